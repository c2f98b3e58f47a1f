package atomics

import "sync/atomic"

// fence is touched by Barrier solely to give the compiler a reason not to
// reorder surrounding accesses; its value is never read back.
var fence atomic.Uint32

// Barrier prevents the compiler from reordering or caching accesses across
// it. Go has no standalone fence intrinsic; every sync/atomic operation
// already implies one, so Barrier performs a discarded atomic add. That add
// is sequentially consistent, so on most targets it is also a CPU fence.
func Barrier() {
	fence.Add(1)
}
