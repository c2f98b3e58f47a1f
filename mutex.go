package mediamutex

import (
	"fmt"
	"time"

	"github.com/lunaris-aosp/mediamutex/holdstack"
	"github.com/lunaris-aosp/mediamutex/stats"
	"github.com/lunaris-aosp/mediamutex/threadinfo"
	"v.io/x/lib/nsync"

	"github.com/lunaris-aosp/mediamutex/atomics"
)

// Mutex is an exclusive lock permanently tagged with a capability Order. The
// underlying primitive is nsync.Mu rather than sync.Mutex: after the pre-lock
// ordering check, Lock uses nsync.Mu's TryLock to tell an uncontended
// acquisition from one that has to wait and is counted as a wait.
type Mutex struct {
	native   nsync.Mu
	handle   Handle
	order    Order
	category *stats.Category
	priority bool
}

// Option configures a Mutex at construction.
type Option func(*Mutex)

// WithPriorityInheritance overrides the process-wide
// PriorityInheritanceEnabled query for this one mutex.
func WithPriorityInheritance(enabled bool) Option {
	return func(m *Mutex) { m.priority = enabled }
}

// NewMutex returns a Mutex tagged with order. Passing no Option defers to
// PriorityInheritanceEnabled, read once here at construction.
func NewMutex(order Order, opts ...Option) *Mutex {
	m := &Mutex{order: order, category: global.Stats.For(uint8(order)), priority: PriorityInheritanceEnabled()}
	for _, opt := range opts {
		opt(m)
	}
	m.handle = handleOf(m)
	if m.priority {
		// Goroutines are not OS threads with a scheduler-visible priority
		// attribute, so there is no native protocol to install; this is
		// always the "failed to set the attribute" path, logged once
		// and otherwise non-fatal.
		diagLogger.Printf("mutex %#x: priority inheritance requested but not supported on this platform, degrading to default", m.handle)
	}
	return m
}

// Handle returns m's opaque, stable identity.
func (m *Mutex) Handle() Handle { return m.handle }

// Order returns m's fixed capability order.
func (m *Mutex) Order() Order { return m.order }

// Native exposes the underlying primitive so ConditionVariable can pass it
// as the sync.Locker WaitWithDeadline requires.
func (m *Mutex) Native() *nsync.Mu { return &m.native }

// Lock acquires m, blocking if necessary.
func (m *Mutex) Lock() {
	if !TrackingEnabled {
		m.native.Lock()
		return
	}
	ti := current()
	m.preLock(ti)

	if m.native.TryLock() {
		m.postLock(ti)
		return
	}

	ti.ResetWaiter(m.handle)
	m.category.IncWaits()
	start := time.Now()
	m.native.Lock()
	ti.ResetWaiter(holdstack.InvalidHandle)
	atomics.Barrier()
	m.category.AddWait(time.Since(start))
	m.postLock(ti)
}

// TryLockFor attempts to acquire m within timeout. A non-positive timeout
// performs a single non-blocking try; it must never invoke the timed-lock
// path at all.
func (m *Mutex) TryLockFor(timeout time.Duration) bool {
	if !TrackingEnabled {
		if timeout <= 0 {
			return m.native.TryLock()
		}
		return tryLockUntil(time.Now().Add(timeout), m.native.TryLock)
	}

	ti := current()
	m.preLock(ti)

	if timeout <= 0 {
		if m.native.TryLock() {
			m.postLock(ti)
			return true
		}
		return false
	}

	ti.ResetWaiter(m.handle)
	m.category.IncWaits()
	start := time.Now()
	acquired := tryLockUntil(time.Now().Add(timeout), m.native.TryLock)
	ti.ResetWaiter(holdstack.InvalidHandle)
	if !acquired {
		// Timed-lock expiry: the acquisition never happened, so there is no
		// wait time to fold into the category's statistics.
		return false
	}
	atomics.Barrier()
	m.category.AddWait(time.Since(start))
	m.postLock(ti)
	return true
}

// Unlock releases m, checking first that the calling goroutine actually
// holds it.
func (m *Mutex) Unlock() {
	if !TrackingEnabled {
		m.native.Unlock()
		return
	}
	ti := current()
	if !ti.RemoveHeld(m.handle) && AbortOnInvalidUnlock {
		OnFatalViolation(fmt.Sprintf("invalid unlock: thread %d does not hold mutex %#x (order %s)", ti.TID, m.handle, OrderName(m.order)))
	}
	m.category.IncUnlocks()
	atomics.Barrier()
	m.native.Unlock()
}

// preLock runs the pre-lock check: order inversion, order recursion, and
// true recursion are all detected the same way, by threadinfo.CheckHeld, and
// differ only in which flag governs them and the message reported.
func (m *Mutex) preLock(ti *threadinfo.Info) {
	conflict := ti.CheckHeld(m.handle, m.order)
	if conflict == holdstack.Invalid {
		return
	}

	if conflict.Handle == m.handle {
		if AbortOnRecursionCheck {
			OnFatalViolation(fmt.Sprintf("recursive lock: thread %d already holds mutex %#x (order %s)",
				ti.TID, m.handle, OrderName(m.order)))
		}
		return
	}

	if conflict.Order == m.order {
		if AbortOnRecursionCheck {
			OnFatalViolation(fmt.Sprintf("order recursion: thread %d already holds order %s while locking a different mutex %#x of the same order",
				ti.TID, OrderName(m.order), m.handle))
		}
		return
	}

	if AbortOnOrderCheck {
		OnFatalViolation(fmt.Sprintf("order inversion: thread %d holds order %d (%s) while locking order %d (%s)",
			ti.TID, conflict.Order, OrderName(conflict.Order), m.order, OrderName(m.order)))
	}
}

// lockSuppressingOrderCheck is Lock's twin for LockGuardWithoutOrderCheck:
// it still detects true recursion (the same handle appearing twice) but
// never reports order inversion or order-recursion, for the legitimate case
// of two distinct mutexes sharing one capability order.
func (m *Mutex) lockSuppressingOrderCheck() {
	if !TrackingEnabled {
		m.native.Lock()
		return
	}
	ti := current()
	if conflict := ti.CheckHeld(m.handle, m.order); conflict.Handle == m.handle && AbortOnRecursionCheck {
		OnFatalViolation(fmt.Sprintf("recursive lock: thread %d already holds mutex %#x (order %s)",
			ti.TID, m.handle, OrderName(m.order)))
	}

	if m.native.TryLock() {
		m.postLock(ti)
		return
	}

	ti.ResetWaiter(m.handle)
	m.category.IncWaits()
	start := time.Now()
	m.native.Lock()
	ti.ResetWaiter(holdstack.InvalidHandle)
	atomics.Barrier()
	m.category.AddWait(time.Since(start))
	m.postLock(ti)
}

// postLock runs the post-lock bookkeeping: record the acquisition in the
// category's counters and push the handle onto the held stack.
func (m *Mutex) postLock(ti *threadinfo.Info) {
	m.category.IncLocks()
	ti.PushHeld(m.handle, m.order)
	atomics.Barrier()
}
