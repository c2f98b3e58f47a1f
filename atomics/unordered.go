package atomics

import "sync/atomic"

// Unordered is a plain single-writer, multi-reader cell. Only the owning
// goroutine writes it; other goroutines may read a stale value but, because
// the underlying word is machine-word-sized and accessed through
// sync/atomic (sequentially consistent, so fenced as well), never a torn one.
// It is restricted here to the int64-sized values the instrumentation
// needs (handles and thread ids), which the Go memory model guarantees are
// naturally lock-free.
type Unordered struct {
	v atomic.Int64
}

// Load reads the current value. Call sites in other goroutines (registry
// traversals) must treat the result as a snapshot, not a guarantee that it is
// still current by the time they act on it.
func (u *Unordered) Load() int64 { return u.v.Load() }

// Store writes a new value. Only ever called by the owning goroutine.
func (u *Unordered) Store(val int64) { u.v.Store(val) }

// Accumulate adds delta via a plain read-modify-write: since Unordered is
// single-writer, there is no need for a compare-exchange loop the way
// RelaxedFloat requires one.
func (u *Unordered) Accumulate(delta int64) {
	u.v.Store(u.v.Load() + delta)
}
