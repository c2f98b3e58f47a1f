// Package holdstack implements the bounded, single-writer, multi-reader stack
// of (handle, order) pairs that backs every goroutine's held-mutex list. It is
// written only by its owning goroutine; other goroutines only ever read it,
// during registry traversals, field by field: they may see a pair mixed from
// two pushes, but never a torn field.
package holdstack

import (
	"sync/atomic"

	"github.com/lunaris-aosp/mediamutex/atomics"
)

// Handle is a mutex's opaque, pointer-sized identity. It is never
// dereferenced by this package.
type Handle uintptr

// Order is a capability-order tag. The stack itself is agnostic to what the
// orders mean and does not check them; keeping them from repeating or
// decreasing going up the stack is the caller's job (see the threadinfo
// package's pre-push check).
type Order uint8

// InvalidHandle is the zero handle; no real mutex is ever assigned it.
const InvalidHandle Handle = 0

// Entry is a single held-mutex record.
type Entry struct {
	Handle Handle
	Order  Order
}

// Invalid is the sentinel pair returned by out-of-range reads.
var Invalid = Entry{Handle: InvalidHandle, Order: 0}

// entrySlot stores one Entry as a pair of independently-atomic fields. Pairs
// are read field-by-field: a reader may observe a handle from one push and
// an order from a different one mid-update, but never half a machine word
// from either field.
type entrySlot struct {
	handle atomics.Unordered
	order  atomic.Uint32
}

func (s *entrySlot) set(e Entry) {
	s.handle.Store(int64(e.Handle))
	s.order.Store(uint32(e.Order))
}

func (s *entrySlot) get() Entry {
	return Entry{Handle: Handle(s.handle.Load()), Order: Order(s.order.Load())}
}

// Stack is the fixed-capacity holds list. The zero value is not usable; call
// New.
type Stack struct {
	slots       []entrySlot
	physicalTop atomic.Int64 // number of slots actually populated, 0..cap
	logicalTop  atomic.Int64 // pushes minus removes; may exceed cap
}

// New returns a Stack with the given physical capacity.
func New(capacity int) *Stack {
	return &Stack{slots: make([]entrySlot, capacity)}
}

// Cap returns the physical capacity.
func (s *Stack) Cap() int { return len(s.slots) }

// LogicalSize returns pushes minus removes, which may exceed Cap() once the
// stack has overflowed.
func (s *Stack) LogicalSize() int { return int(s.logicalTop.Load()) }

// PhysicalSize returns the number of populated slots, always <= Cap().
func (s *Stack) PhysicalSize() int { return int(s.physicalTop.Load()) }

// Push writes (handle, order) to the top of the stack. The caller is
// responsible for having already verified that order is admissible (see the
// pre-lock check in mediamutex.Mutex.preLock); Push itself only maintains
// the physical stack's capacity invariant.
//
// If the stack is already at physical capacity, the new entry overwrites the
// topmost physical slot rather than growing it, and the physical top does not
// advance — but the logical top always does. From that point on the physical
// stack is a strict subset of the logical one, and readers are told so via
// LogicalSize() > PhysicalSize().
func (s *Stack) Push(e Entry) {
	phys := int(s.physicalTop.Load())
	if phys >= len(s.slots) {
		s.slots[len(s.slots)-1].set(e)
		atomics.Barrier()
		s.logicalTop.Add(1)
		return
	}
	s.slots[phys].set(e)
	atomics.Barrier()
	s.physicalTop.Store(int64(phys + 1))
	s.logicalTop.Add(1)
}

// Remove scans from the top down for handle, shifting everything above it
// down one slot to keep the order invariant intact, and returns whether a
// matching entry was found.
//
// If no physical entry matches but the logical size already exceeds the
// physical size, the removal is accepted as the removal of an
// overflow-dropped entry: the logical top is decremented and Remove reports
// success without touching the physical slots. Otherwise Remove reports
// failure.
func (s *Stack) Remove(handle Handle) bool {
	phys := int(s.physicalTop.Load())
	for i := phys - 1; i >= 0; i-- {
		if Handle(s.slots[i].handle.Load()) != handle {
			continue
		}
		for j := i; j < phys-1; j++ {
			s.slots[j].set(s.slots[j+1].get())
		}
		atomics.Barrier()
		s.physicalTop.Store(int64(phys - 1))
		s.logicalTop.Add(-1)
		return true
	}
	logical := int(s.logicalTop.Load())
	if logical > phys {
		s.logicalTop.Add(-1)
		return true
	}
	return false
}

// Top returns the entry `offset` slots below the physical top (offset 0 is
// the topmost entry), or Invalid if offset is out of range. Lockless: safe to
// call from any goroutine.
func (s *Stack) Top(offset int) Entry {
	phys := int(s.physicalTop.Load())
	idx := phys - 1 - offset
	if idx < 0 || idx >= phys {
		return Invalid
	}
	return s.slots[idx].get()
}

// Bottom returns the entry `offset` slots above the physical bottom, or
// Invalid if offset is out of range.
func (s *Stack) Bottom(offset int) Entry {
	phys := int(s.physicalTop.Load())
	if offset < 0 || offset >= phys {
		return Invalid
	}
	return s.slots[offset].get()
}
