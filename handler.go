package handlerswap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

// handlerSlot is the unit the registry swaps atomically. Readers never
// observe a partially updated slot; the pointer swap is the linearization
// point of Set and Reset. isDefault tags the single registry-owned slot so
// ownership of the active handler is always known.
type handlerSlot[I Activatable] struct {
	handler   I
	isDefault bool
}

// Registry is a process-wide singleton handler that has a default instance
// and can be switched to another instance at runtime. All instances must
// satisfy the same interface I, which must embed Activatable.
//
// The registry owns the default instance: it is constructed lazily, exactly
// once even under concurrent first access, and kept alive for the registry's
// whole lifetime. Externally supplied instances are referenced but never
// owned; their lifetime is the caller's responsibility, typically discharged
// by holding a Guard for them while they may be active.
type Registry[I Activatable] struct {
	name  string
	hooks Hooks[I]
	log   logger.Logger

	// defaultMu serializes default construction; a failed constructor caches
	// nothing so the next access re-attempts.
	defaultMu   sync.Mutex
	defaultInit func() (I, error)
	defaultSlot *handlerSlot[I]

	current   atomic.Pointer[handlerSlot[I]]
	finalized atomic.Bool
}

// Option configures a Registry.
type Option[I Activatable] func(*Registry[I])

// WithName attaches a diagnostic name used in log output.
func WithName[I Activatable](name string) Option[I] {
	return func(r *Registry[I]) {
		r.name = name
	}
}

// WithLogger sets the logger the registry and its default hooks report
// through.
func WithLogger[I Activatable](log logger.Logger) Option[I] {
	return func(r *Registry[I]) {
		r.log = log
	}
}

// New creates a registry whose default instance is produced by defaultInit on
// first access. A nil hooks installs LoggingHooks. New panics on a nil
// defaultInit since a registry without a default cannot honor Reset.
func New[I Activatable](defaultInit func() (I, error), hooks Hooks[I], opts ...Option[I]) *Registry[I] {
	if defaultInit == nil {
		panic("handlerswap: registry requires a default instance initializer")
	}
	r := &Registry[I]{
		defaultInit: defaultInit,
		hooks:       hooks,
		log:         GetSingletonNoOpLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.name == "" {
		r.name = fmt.Sprintf("%T", r)
	}
	if r.hooks == nil {
		r.hooks = LoggingHooks[I]{Log: r.log}
	}
	return r
}

// ensureDefault constructs the default instance exactly once. Construction
// failures are surfaced to the caller and retried on the next access.
func (r *Registry[I]) ensureDefault() (*handlerSlot[I], error) {
	r.defaultMu.Lock()
	defer r.defaultMu.Unlock()

	if r.defaultSlot != nil {
		return r.defaultSlot, nil
	}
	h, err := r.defaultInit()
	if err != nil {
		return nil, err
	}
	r.defaultSlot = &handlerSlot[I]{handler: h, isDefault: true}
	r.log.Debugf("registry %s: default handler constructed (%T)", r.name, h)
	return r.defaultSlot, nil
}

// ensureCurrent makes sure some handler is active, installing the default if
// none has been set yet.
func (r *Registry[I]) ensureCurrent() (*handlerSlot[I], error) {
	if slot := r.current.Load(); slot != nil {
		return slot, nil
	}
	slot, err := r.ensureDefault()
	if err != nil {
		return nil, err
	}
	// Another goroutine may have installed a handler meanwhile; first one
	// wins, the default slot stays cached for Reset either way.
	r.current.CompareAndSwap(nil, slot)
	return r.current.Load(), nil
}

// GetE returns the currently active handler, constructing the default
// instance on first access. The only possible error is a failed default
// construction, which will be re-attempted on the next call.
func (r *Registry[I]) GetE() (I, error) {
	slot, err := r.ensureCurrent()
	if err != nil {
		var zero I
		return zero, err
	}
	return slot.handler, nil
}

// Get returns the currently active handler. It panics if the default
// instance cannot be constructed; use GetE to observe that error.
func (r *Registry[I]) Get() I {
	h, err := r.GetE()
	if err != nil {
		panic(fmt.Sprintf("handlerswap: registry %s: %v", r.name, err))
	}
	return h
}

// Set atomically installs h as the active handler and returns the previously
// active one (the zero value of I if none could be established). The static
// conversion of the concrete handler to I at the call site is what enforces
// the capability contract; a type lacking it does not compile.
//
// The registry does not extend h's lifetime. The caller must keep h alive,
// typically by holding the Guard it obtained h from, for as long as h may
// remain active.
//
// After Finalize, Set no longer mutates the active handler; the attempt is
// routed to the hooks and the previously active handler is still returned.
func (r *Registry[I]) Set(h I) I {
	// Establish the default first so the reported previous instance matches
	// what a Get before this call would have returned.
	prev, _ := r.ensureCurrent()

	if r.finalized.Load() {
		return r.interceptReplacement(prev, h)
	}

	old := r.current.Swap(&handlerSlot[I]{handler: h})
	if old == nil {
		var zero I
		return zero
	}
	return old.handler
}

// Reset restores the registry-owned default instance as the active handler
// and returns the previously active one. Like Set it is intercepted by the
// hooks once the registry is finalized. The error reports a failed default
// construction.
func (r *Registry[I]) Reset() (I, error) {
	slot, err := r.ensureDefault()
	if err != nil {
		var zero I
		return zero, err
	}

	prev := r.current.Load()
	if r.finalized.Load() {
		return r.interceptReplacement(prev, slot.handler), nil
	}

	old := r.current.Swap(slot)
	if old == nil {
		var zero I
		return zero, nil
	}
	return old.handler, nil
}

func (r *Registry[I]) interceptReplacement(prev *handlerSlot[I], attempted I) I {
	var current I
	if prev != nil {
		current = prev.handler
	}
	r.hooks.OnSetAfterFinalize(current, attempted)
	return current
}

// Finalize irreversibly freezes the active handler. The first call wins;
// further calls are no-ops. Every Set or Reset that starts after Finalize
// returns is guaranteed to be routed to the hooks instead of applied.
func (r *Registry[I]) Finalize() {
	if r.finalized.CompareAndSwap(false, true) {
		r.log.Debugf("registry %s finalized", r.name)
	}
}

// Finalized reports whether Finalize has been called.
func (r *Registry[I]) Finalized() bool {
	return r.finalized.Load()
}

// Guard returns a lifetime guard pinning the registry (and, transitively, the
// default instance it owns) for at least as long as the guard is alive. The
// first call places the registry under lifetime management; it fails only if
// a different Registry[I] is already managed process-wide.
func (r *Registry[I]) Guard() (*Guard[Registry[I]], error) {
	return adoptLifetime(r)
}

// Shared returns a guard for the process-wide registry of I, constructing the
// registry on first call via setup. Later calls may pass nil. This is the
// accessor long-lived components use to obtain and pin one registry per
// handler interface.
func Shared[I Activatable](setup func() (*Registry[I], error)) (*Guard[Registry[I]], error) {
	return Acquire(setup)
}
