package handlerswap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
)

// probe is the handler interface the registry tests run against.
type probe interface {
	Activatable
	Tag() string
}

type probeHandler struct {
	ActivationFlag
	tag string
}

func (h *probeHandler) Tag() string { return h.tag }

func newProbeInit(tag string) func() (probe, error) {
	return func() (probe, error) {
		return &probeHandler{tag: tag}, nil
	}
}

type hookCall struct {
	current   probe
	attempted probe
}

type recordingHooks struct {
	calls []hookCall
}

func (h *recordingHooks) OnSetAfterFinalize(current, attempted probe) {
	h.calls = append(h.calls, hookCall{current: current, attempted: attempted})
}

func TestRegistry_GetConstructsDefault(t *testing.T) {
	registry := New(newProbeInit("default"), NopHooks[probe]{})

	h := registry.Get()
	require.NotNil(t, h)
	assert.Equal(t, "default", h.Tag())
	assert.True(t, h.IsActive(), "handlers start active")

	// Repeated access returns the same default instance.
	assert.Same(t, h, registry.Get())
}

func TestRegistry_SetReturnsPrevious(t *testing.T) {
	registry := New(newProbeInit("default"), NopHooks[probe]{})

	defaultInstance := registry.Get()
	custom1 := &probeHandler{tag: "custom-1"}
	custom2 := &probeHandler{tag: "custom-2"}

	prev := registry.Set(custom1)
	assert.Same(t, defaultInstance, prev)
	assert.Same(t, custom1, registry.Get())

	prev = registry.Set(custom2)
	assert.Same(t, probe(custom1), prev)
	assert.Same(t, custom2, registry.Get())

	// Restoring the first custom handler reports the second as previous.
	prev = registry.Set(custom1)
	assert.Same(t, probe(custom2), prev)
}

func TestRegistry_SetBeforeGet(t *testing.T) {
	registry := New(newProbeInit("default"), NopHooks[probe]{})

	custom := &probeHandler{tag: "custom"}
	prev := registry.Set(custom)

	// The default is established before the swap, so it is reported as the
	// previous instance even when nothing was ever read.
	require.NotNil(t, prev)
	assert.Equal(t, "default", prev.Tag())
	assert.Same(t, custom, registry.Get())
}

func TestRegistry_ResetRestoresDefault(t *testing.T) {
	registry := New(newProbeInit("default"), NopHooks[probe]{})

	defaultInstance := registry.Get()
	custom := &probeHandler{tag: "custom"}
	registry.Set(custom)

	prev, err := registry.Reset()
	require.NoError(t, err)
	assert.Same(t, probe(custom), prev)
	assert.Same(t, defaultInstance, registry.Get(), "reset must restore the identical default instance")
}

func TestRegistry_FinalizeInterceptsReplacement(t *testing.T) {
	hooks := &recordingHooks{}
	registry := New(newProbeInit("default"), hooks)

	custom := &probeHandler{tag: "custom"}
	registry.Set(custom)

	registry.Finalize()
	assert.True(t, registry.Finalized())
	registry.Finalize() // idempotent

	other := &probeHandler{tag: "other"}
	prev := registry.Set(other)

	assert.Same(t, probe(custom), prev, "previous instance is still reported")
	assert.Same(t, custom, registry.Get(), "the active handler must not change")
	require.Len(t, hooks.calls, 1)
	assert.Same(t, probe(custom), hooks.calls[0].current)
	assert.Same(t, probe(other), hooks.calls[0].attempted)

	prev, err := registry.Reset()
	require.NoError(t, err)
	assert.Same(t, probe(custom), prev)
	assert.Same(t, custom, registry.Get())
	require.Len(t, hooks.calls, 2)
	assert.Same(t, probe(custom), hooks.calls[1].current)
	assert.Equal(t, "default", hooks.calls[1].attempted.Tag())
}

func TestRegistry_DefaultConstructionFailureIsRetried(t *testing.T) {
	attempts := 0
	registry := New(func() (probe, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("backend unavailable")
		}
		return &probeHandler{tag: "default"}, nil
	}, NopHooks[probe]{})

	_, err := registry.GetE()
	require.Error(t, err)

	// The failure is not cached: the next access constructs successfully.
	h, err := registry.GetE()
	require.NoError(t, err)
	assert.Equal(t, "default", h.Tag())
	assert.Equal(t, 2, attempts)
}

func TestRegistry_GetPanicsOnConstructionFailure(t *testing.T) {
	registry := New(func() (probe, error) {
		return nil, errors.New("broken")
	}, NopHooks[probe]{})

	assert.Panics(t, func() { registry.Get() })
}

func TestRegistry_ResetSurfacesConstructionFailure(t *testing.T) {
	registry := New(func() (probe, error) {
		return nil, errors.New("broken")
	}, NopHooks[probe]{})

	_, err := registry.Reset()
	require.Error(t, err)
}

func TestRegistry_NewRequiresDefaultInit(t *testing.T) {
	assert.Panics(t, func() {
		New[probe](nil, NopHooks[probe]{})
	})
}

func TestRegistry_GuardPinsRegistry(t *testing.T) {
	t.Cleanup(ResetForTesting)
	ResetForTesting()

	registry := New(newProbeInit("default"), NopHooks[probe]{})

	g1, err := registry.Guard()
	require.NoError(t, err)
	g2, err := registry.Guard()
	require.NoError(t, err)
	assert.Same(t, registry, g1.Get())
	assert.Same(t, registry, g2.Get())

	// A second registry for the same interface cannot be adopted while the
	// first one is managed.
	other := New(newProbeInit("other"), NopHooks[probe]{})
	_, err = other.Guard()
	assert.ErrorIs(t, err, ErrInstanceMismatch)

	g1.Release()
	g2.Release()
}

func TestShared_ConstructsRegistryOnce(t *testing.T) {
	t.Cleanup(ResetForTesting)
	ResetForTesting()

	setups := 0
	setup := func() (*Registry[probe], error) {
		setups++
		return New(newProbeInit("default"), NopHooks[probe]{}), nil
	}

	g1, err := Shared(setup)
	require.NoError(t, err)
	g2, err := Shared[probe](nil)
	require.NoError(t, err)

	assert.Equal(t, 1, setups)
	assert.Same(t, g1.Get(), g2.Get())
	assert.Equal(t, "default", g1.Get().Get().Tag())
}

func TestRegistry_ConstructionErrorCode(t *testing.T) {
	t.Cleanup(ResetForTesting)
	ResetForTesting()

	_, err := Shared(func() (*Registry[probe], error) {
		return nil, errors.New("wiring failed")
	})
	require.Error(t, err)
	assert.True(t, liberrors.HasCode(err, liberrors.ErrCodeConstructFailed))
}
