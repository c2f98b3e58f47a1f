// Package threadinfo implements the per-goroutine descriptor: which mutex (if
// any) the goroutine is blocked on, why it is blocked on something that isn't
// a mutex, and the lockless stack of mutexes it currently holds.
package threadinfo

import (
	"fmt"

	"github.com/lunaris-aosp/mediamutex/atomics"
	"github.com/lunaris-aosp/mediamutex/holdstack"
)

// Reason identifies why a goroutine is blocked on something other than a
// mutex it can see in another goroutine's held stack.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonCV
	ReasonJoin
	ReasonQueue
)

func (r Reason) String() string {
	switch r {
	case ReasonCV:
		return "cv"
	case ReasonJoin:
		return "join"
	case ReasonQueue:
		return "queue"
	default:
		return "none"
	}
}

// otherWait is the auxiliary "blocked on something that isn't a mutex" slot.
type otherWait struct {
	tid    atomics.Unordered
	reason atomics.Unordered // Reason, stored as int64
	order  atomics.Unordered // holdstack.Order, stored as int64
}

// Info is one goroutine's descriptor. All fields are written only by the
// owning goroutine and read by others only during registry traversals, so
// every field uses the Unordered wrapper rather than a lock.
type Info struct {
	TID     int64
	waiting atomics.Unordered // holdstack.Handle, stored as int64
	other   otherWait
	Held    *holdstack.Stack
}

// New returns a fresh descriptor for tid with a held-stack of the given
// capacity.
func New(tid int64, stackDepth int) *Info {
	return &Info{TID: tid, Held: holdstack.New(stackDepth)}
}

// ResetWaiter sets the mutex handle the goroutine is currently blocked on,
// or holdstack.InvalidHandle to clear it. Only ever called by the owning
// goroutine.
func (i *Info) ResetWaiter(handle holdstack.Handle) {
	i.waiting.Store(int64(handle))
}

// WaitingOn returns the mutex handle the goroutine is blocked on, or
// holdstack.InvalidHandle if it isn't blocked on one.
func (i *Info) WaitingOn() holdstack.Handle {
	return holdstack.Handle(i.waiting.Load())
}

// CheckHeld scans the held stack from the top down for either an entry whose
// order is >= order (inversion, or order-recursion if equal) or an entry
// whose handle equals handle (true recursion). It returns the first such
// entry, or holdstack.Invalid if the proposed push would be legal: that is
// exactly the condition under which pushing (handle, order) would preserve
// strict order monotonicity without duplicating a handle.
func (i *Info) CheckHeld(handle holdstack.Handle, order holdstack.Order) holdstack.Entry {
	phys := i.Held.PhysicalSize()
	for off := 0; off < phys; off++ {
		e := i.Held.Top(off)
		if e.Handle == handle || e.Order >= order {
			return e
		}
	}
	return holdstack.Invalid
}

// PushHeld records a newly-acquired mutex.
func (i *Info) PushHeld(handle holdstack.Handle, order holdstack.Order) {
	i.Held.Push(holdstack.Entry{Handle: handle, Order: order})
}

// RemoveHeld removes a released mutex, reporting whether it was found (or
// accepted as an overflow-dropped removal; see holdstack.Stack.Remove).
func (i *Info) RemoveHeld(handle holdstack.Handle) bool {
	return i.Held.Remove(handle)
}

// PushHeldForCV marks that the goroutine is condition-waiting with the mutex
// (handle, order) still recorded on its held stack: order checks must still
// see it occupying that capability order after it wakes, even though the
// underlying OS primitive is physically unlocked for the duration of the
// wait. notifierTID is the goroutine this one expects to signal it; the
// registry's deadlock traversal follows this as a "cv-<order name>" edge.
func (i *Info) PushHeldForCV(handle holdstack.Handle, order holdstack.Order, notifierTID int64) {
	i.other.tid.Store(notifierTID)
	i.other.reason.Store(int64(ReasonCV))
	i.other.order.Store(int64(order))
}

// RemoveHeldForCV clears the auxiliary cv-wait marker once the wait has
// resumed and the mutex has been physically reacquired. The held-stack entry
// was never removed, so there is nothing to push back.
func (i *Info) RemoveHeldForCV(handle holdstack.Handle, order holdstack.Order) {
	i.other.reason.Store(int64(ReasonNone))
	i.other.tid.Store(0)
}

// AddWaitJoin marks the goroutine as blocked joining tid.
func (i *Info) AddWaitJoin(tid int64) {
	i.other.tid.Store(tid)
	i.other.reason.Store(int64(ReasonJoin))
}

// RemoveWaitJoin clears a join-wait marker.
func (i *Info) RemoveWaitJoin() { i.clearOther() }

// AddWaitQueue marks the goroutine as blocked sending to/receiving from tid's queue.
func (i *Info) AddWaitQueue(tid int64) {
	i.other.tid.Store(tid)
	i.other.reason.Store(int64(ReasonQueue))
}

// RemoveWaitQueue clears a queue-wait marker.
func (i *Info) RemoveWaitQueue() { i.clearOther() }

func (i *Info) clearOther() {
	i.other.reason.Store(int64(ReasonNone))
	i.other.tid.Store(0)
}

// OtherWait returns the current auxiliary wait marker: the goroutine it
// names, the reason, and (for cv waits) the mutex order.
func (i *Info) OtherWait() (tid int64, reason Reason, order holdstack.Order) {
	return i.other.tid.Load(), Reason(i.other.reason.Load()), holdstack.Order(i.other.order.Load())
}

// Empty reports whether the goroutine is neither waiting on a mutex nor
// holding any.
func (i *Info) Empty() bool {
	_, reason, _ := i.OtherWait()
	return i.WaitingOn() == holdstack.InvalidHandle && reason == ReasonNone && i.Held.LogicalSize() == 0
}

// String renders the descriptor for diagnostic dumps.
func (i *Info) String() string {
	tid, reason, order := i.OtherWait()
	held := i.Held.LogicalSize()
	if reason != ReasonNone {
		return fmt.Sprintf("tid=%d waiting_on=%#x other_wait={tid=%d reason=%s order=%d} held=%d",
			i.TID, i.WaitingOn(), tid, reason, order, held)
	}
	return fmt.Sprintf("tid=%d waiting_on=%#x held=%d", i.TID, i.WaitingOn(), held)
}
