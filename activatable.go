// Package handlerswap provides runtime-replaceable, process-wide handler
// singletons with controlled lifetime. A Registry owns a lazily constructed
// default handler, allows it to be atomically swapped for an externally
// owned instance, and supports an irreversible finalize transition after
// which replacement attempts are routed to a pluggable policy instead of
// being applied. Lifetime guards keep singletons alive for as long as any
// holder still references them.
package handlerswap

// Activatable is the minimal capability every handler interface used with a
// Registry must expose. It is a binary switch that consumers of a handler
// query to decide whether to route work through it.
type Activatable interface {
	// Activate switches the handler on.
	Activate()

	// Deactivate switches the handler off.
	Deactivate()

	// IsActive reports whether the handler is switched on.
	IsActive() bool
}

// ActivationFlag is an embeddable implementation of Activatable. The zero
// value is active, so handlers are switched on by default.
//
// The flag itself is not synchronized. Callers that need cross-goroutine
// visibility must read and write it under the same synchronization as the
// rest of the embedding handler.
type ActivationFlag struct {
	disabled bool
}

// Activate switches the flag on.
func (f *ActivationFlag) Activate() {
	f.disabled = false
}

// Deactivate switches the flag off.
func (f *ActivationFlag) Deactivate() {
	f.disabled = true
}

// IsActive reports whether the flag is on.
func (f *ActivationFlag) IsActive() bool {
	return !f.disabled
}
