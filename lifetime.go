package handlerswap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
)

var (
	// ErrNotConstructed is returned by Acquire when no initializer is supplied
	// and the singleton for the requested type has not been constructed yet.
	ErrNotConstructed = errors.New("handlerswap: singleton not constructed")
	// ErrStoreShutdown is returned when a guard is requested after Shutdown.
	ErrStoreShutdown = errors.New("handlerswap: lifetime store is shut down")
	// ErrInstanceMismatch indicates an attempt to adopt an instance while a
	// different instance of the same type is already managed.
	ErrInstanceMismatch = errors.New("handlerswap: a different instance is already managed for this type")
)

// Guard is a token certifying that the process-wide singleton of T has been
// constructed and will not be torn down while the token (or any clone of it)
// is alive. Tokens are cheap and opaque; their only behavior is existing.
type Guard[T any] struct {
	mu       sync.Mutex
	released bool
	entry    *lifetimeEntry
}

// Get returns the guarded singleton instance.
// It panics if the guard has already been released.
func (g *Guard[T]) Get() *T {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		panic("handlerswap: guard used after release")
	}
	v, _ := g.entry.instance().(*T)
	return v
}

// Clone returns a new guard referencing the same singleton. Cloning is how a
// guard is handed to another holder; each clone must be released
// independently. It panics if the guard has already been released.
func (g *Guard[T]) Clone() *Guard[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		panic("handlerswap: guard cloned after release")
	}
	g.entry.addRef()
	return &Guard[T]{entry: g.entry}
}

// Release drops the guard's reference. When the last reference to the
// singleton is gone (all guards plus the store's own reference), its
// finalizer runs and the instance is removed from the store.
// Releasing an already released guard is a no-op.
func (g *Guard[T]) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	entry := g.entry
	g.mu.Unlock()
	entry.release(lifetimeRegistry())
}

// lifetimeEntry tracks one process-wide singleton instance. The entry mutex
// serializes construction and reference transitions; construction of
// different types may nest (an initializer may acquire guards for other
// types), which locks distinct entries. A cyclic guard dependency deadlocks
// and is a programming error.
type lifetimeEntry struct {
	typ reflect.Type

	mu          sync.Mutex
	constructed bool
	destroyed   bool
	value       any
	finalizer   func(any)
	refs        int64
}

func (e *lifetimeEntry) instance() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *lifetimeEntry) addRef() {
	e.mu.Lock()
	e.refs++
	e.mu.Unlock()
}

// release drops one reference and, on the last one, runs the finalizer and
// detaches the entry from the store so a later Acquire constructs afresh.
func (e *lifetimeEntry) release(s *lifetimeStore) {
	e.mu.Lock()
	if e.destroyed || e.refs == 0 {
		e.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	value := e.value
	finalizer := e.finalizer
	e.value = nil
	e.mu.Unlock()

	s.detach(e)

	if finalizer != nil {
		finalizer(value)
	}
}

// lifetimeStore is the process-wide registry of singleton lifetimes, keyed by
// the singleton's pointer type.
type lifetimeStore struct {
	mu       sync.Mutex
	entries  map[reflect.Type]*lifetimeEntry
	order    []*lifetimeEntry // construction completion order, for teardown
	shutdown bool
}

var (
	lifetimesOnce sync.Once
	lifetimes     *lifetimeStore
)

func lifetimeRegistry() *lifetimeStore {
	lifetimesOnce.Do(func() {
		lifetimes = &lifetimeStore{
			entries: make(map[reflect.Type]*lifetimeEntry),
		}
	})
	return lifetimes
}

func (s *lifetimeStore) entryFor(typ reflect.Type, create bool) (*lifetimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return nil, ErrStoreShutdown
	}
	e, ok := s.entries[typ]
	if !ok {
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrNotConstructed, typ)
		}
		e = &lifetimeEntry{typ: typ}
		s.entries[typ] = e
	}
	return e, nil
}

func (s *lifetimeStore) recordConstructed(e *lifetimeEntry) {
	s.mu.Lock()
	s.order = append(s.order, e)
	s.mu.Unlock()
}

func (s *lifetimeStore) detach(e *lifetimeEntry) {
	s.mu.Lock()
	if s.entries[e.typ] == e {
		delete(s.entries, e.typ)
	}
	for i, candidate := range s.order {
		if candidate == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Acquire returns a guard for the process-wide singleton of T, constructing
// the instance exactly once under concurrent first access. Only the call that
// performs construction consults init; later calls may pass nil. Acquire with
// a nil init before the instance exists fails with ErrNotConstructed.
//
// A failed init caches nothing: the error is surfaced to the triggering
// caller and the next Acquire re-attempts construction.
func Acquire[T any](init func() (*T, error)) (*Guard[T], error) {
	return AcquireWithFinalizer(init, nil)
}

// MustAcquire is Acquire panicking on error.
func MustAcquire[T any](init func() (*T, error)) *Guard[T] {
	g, err := Acquire(init)
	if err != nil {
		panic(fmt.Sprintf("handlerswap: acquire %T: %v", (*T)(nil), err))
	}
	return g
}

// AcquireWithFinalizer is Acquire with a finalizer that runs once the last
// reference to the instance is gone. The finalizer supplied by the
// constructing call wins; later calls' finalizers are ignored.
func AcquireWithFinalizer[T any](init func() (*T, error), final func(*T)) (*Guard[T], error) {
	s := lifetimeRegistry()
	typ := reflect.TypeOf((*T)(nil))

	for {
		e, err := s.entryFor(typ, init != nil)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.destroyed {
			// Lost a race against teardown of this entry; start over.
			e.mu.Unlock()
			continue
		}
		if !e.constructed {
			if init == nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("%w: %s", ErrNotConstructed, typ)
			}
			value, initErr := init()
			if initErr != nil {
				e.mu.Unlock()
				return nil, liberrors.NewConstructionError(typ.String(), initErr)
			}
			if value == nil {
				e.mu.Unlock()
				return nil, liberrors.NewConstructionError(typ.String(), errors.New("initializer returned nil instance"))
			}
			e.value = value
			if final != nil {
				e.finalizer = func(v any) {
					if inst, ok := v.(*T); ok {
						final(inst)
					}
				}
			}
			e.constructed = true
			e.refs = 1 // the store's own reference, dropped by Shutdown
			s.recordConstructed(e)
		}
		e.refs++
		e.mu.Unlock()
		return &Guard[T]{entry: e}, nil
	}
}

// adoptLifetime places an externally constructed instance under lifetime
// management and returns a guard for it. If an instance of the same type is
// already managed, the existing one must be identical.
func adoptLifetime[T any](v *T) (*Guard[T], error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil instance", ErrInstanceMismatch)
	}
	s := lifetimeRegistry()
	typ := reflect.TypeOf((*T)(nil))

	for {
		e, err := s.entryFor(typ, true)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.destroyed {
			e.mu.Unlock()
			continue
		}
		if e.constructed {
			if existing, ok := e.value.(*T); !ok || existing != v {
				e.mu.Unlock()
				return nil, fmt.Errorf("%w: %s", ErrInstanceMismatch, typ)
			}
		} else {
			e.value = v
			e.constructed = true
			e.refs = 1
			s.recordConstructed(e)
		}
		e.refs++
		e.mu.Unlock()
		return &Guard[T]{entry: e}, nil
	}
}

// Shutdown releases the store's own reference to every managed singleton, in
// reverse construction order so that a singleton whose initializer acquired a
// guard to another singleton is finalized before its dependency. Instances
// still pinned by outstanding guards survive until their last guard is
// released. Finalizer panics are collected and reported; the context bounds
// the teardown loop.
func Shutdown(ctx context.Context) error {
	s := lifetimeRegistry()

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return ErrStoreShutdown
	}
	s.shutdown = true
	pending := make([]*lifetimeEntry, len(s.order))
	copy(pending, s.order)
	s.mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("teardown interrupted: %w", err))
			break
		}
		entry := pending[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					errs = append(errs, fmt.Errorf("finalizer for %s panicked: %v", entry.typ, r))
				}
			}()
			entry.release(s)
		}()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ResetForTesting clears the lifetime store without running finalizers and
// re-arms it after a Shutdown. It is not safe for concurrent use and exists
// for tests only.
func ResetForTesting() {
	s := lifetimeRegistry()
	s.mu.Lock()
	s.entries = make(map[reflect.Type]*lifetimeEntry)
	s.order = nil
	s.shutdown = false
	s.mu.Unlock()
}
