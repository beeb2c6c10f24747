package handlerswap

import (
	"fmt"

	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

// Hooks is the replacement policy of a Registry. Once the registry has been
// finalized, Set and Reset no longer mutate the active handler; instead the
// attempt is handed to OnSetAfterFinalize. Implementations must be either
// observational or terminal; they must not leave the registry in an
// inconsistent state.
type Hooks[I Activatable] interface {
	// OnSetAfterFinalize receives the handler that is currently active and
	// the handler that was requested to become active.
	OnSetAfterFinalize(current, attempted I)
}

// NopHooks silently ignores replacement attempts after finalization.
type NopHooks[I Activatable] struct{}

func (NopHooks[I]) OnSetAfterFinalize(current, attempted I) {}

// LoggingHooks reports replacement attempts after finalization through a
// logger. A nil Log falls back to the no-op logger singleton, which keeps a
// zero-configuration registry usable out of the box.
type LoggingHooks[I Activatable] struct {
	Log logger.Logger
}

func (h LoggingHooks[I]) OnSetAfterFinalize(current, attempted I) {
	log := h.Log
	if log == nil {
		log = GetSingletonNoOpLogger()
	}
	log.Errorf("handler replacement attempted after finalize: active %T, attempted %T", current, attempted)
}

// PanicHooks treats a replacement attempt after finalization as fatal.
type PanicHooks[I Activatable] struct{}

func (PanicHooks[I]) OnSetAfterFinalize(current, attempted I) {
	panic(fmt.Sprintf("handlerswap: handler replacement attempted after finalize: active %T, attempted %T", current, attempted))
}
