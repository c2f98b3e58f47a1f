// Package atomics provides the two thin atomic wrappers the instrumentation
// is built out of: a relaxed, multi-writer-safe counter and an unordered,
// single-writer-safe cell, plus the compiler barrier and accumulate helper
// that glue them together. Nothing here takes a lock.
package atomics

import "sync/atomic"

// Relaxed is a multi-writer, multi-reader counter. sync/atomic has no relaxed
// ordering, so every operation is sequentially consistent. It exists to give call sites a narrow, intention-revealing API
// instead of sprinkling sync/atomic calls directly through the instrumentation.
type Relaxed struct {
	v atomic.Int64
}

// Load reads the current value.
func (r *Relaxed) Load() int64 { return r.v.Load() }

// Store writes a new value.
func (r *Relaxed) Store(val int64) { r.v.Store(val) }

// Add adds delta and returns the new value.
func (r *Relaxed) Add(delta int64) int64 { return r.v.Add(delta) }

// CompareAndSwap performs a single CAS attempt.
func (r *Relaxed) CompareAndSwap(old, new int64) bool { return r.v.CompareAndSwap(old, new) }

// RelaxedFloat is Relaxed's floating-point counterpart, used for the wait-time
// sum and sum-of-squares accumulators. float64 has no native atomic in Go, so
// it is stored bit-for-bit in a Uint64 and accumulated via CompareAndSwap.
type RelaxedFloat struct {
	bits atomic.Uint64
}

// Load reads the current value.
func (r *RelaxedFloat) Load() float64 {
	return float64frombits(r.bits.Load())
}

// Add adds delta via a compare-exchange loop: floating-point accumulators
// always go through CAS, never a plain store, so concurrent accumulations
// are never lost.
func (r *RelaxedFloat) Add(delta float64) {
	for {
		old := r.bits.Load()
		next := float64tobits(float64frombits(old) + delta)
		if r.bits.CompareAndSwap(old, next) {
			return
		}
	}
}
