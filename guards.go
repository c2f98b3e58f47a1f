package mediamutex

import (
	"fmt"
	"sort"
	"time"
)

// LockGuard acquires its Mutex on construction and releases it on Close,
// the idiomatic Go substitute for a C++ RAII destructor (use with
// `defer guard.Close()`).
type LockGuard struct {
	m *Mutex
}

// NewLockGuard locks m and returns a guard that releases it on Close.
func NewLockGuard(m *Mutex) *LockGuard {
	m.Lock()
	return &LockGuard{m: m}
}

// Close releases the held mutex.
func (g *LockGuard) Close() error {
	g.m.Unlock()
	return nil
}

// LockGuardWithoutOrderCheck is LockGuard's twin for the legitimate case
// where two distinct mutexes share a capability order deliberately; it
// suppresses order-inversion and order-recursion checking but still detects
// true recursion on the same mutex.
type LockGuardWithoutOrderCheck struct {
	m *Mutex
}

// NewLockGuardWithoutOrderCheck locks m, suppressing order checks.
func NewLockGuardWithoutOrderCheck(m *Mutex) *LockGuardWithoutOrderCheck {
	m.lockSuppressingOrderCheck()
	return &LockGuardWithoutOrderCheck{m: m}
}

// Close releases the held mutex.
func (g *LockGuardWithoutOrderCheck) Close() error {
	g.m.Unlock()
	return nil
}

// UniqueLock holds an owning, deferrable reference to a Mutex: unlike
// LockGuard it need not be locked for its whole lifetime, and exposes the
// native handle ConditionVariable needs.
type UniqueLock struct {
	m      *Mutex
	locked bool
}

// NewUniqueLock constructs a UniqueLock around m without locking it.
func NewUniqueLock(m *Mutex) *UniqueLock { return &UniqueLock{m: m} }

// Lock acquires the underlying mutex.
func (u *UniqueLock) Lock() {
	u.m.Lock()
	u.locked = true
}

// Unlock releases the underlying mutex.
func (u *UniqueLock) Unlock() {
	u.m.Unlock()
	u.locked = false
}

// TryLock attempts a non-blocking acquisition.
func (u *UniqueLock) TryLock() bool {
	ok := u.m.TryLockFor(0)
	u.locked = u.locked || ok
	return ok
}

// TryLockFor attempts acquisition within timeout.
func (u *UniqueLock) TryLockFor(timeout time.Duration) bool {
	ok := u.m.TryLockFor(timeout)
	u.locked = u.locked || ok
	return ok
}

// TryLockUntil attempts acquisition until the absolute deadline.
func (u *UniqueLock) TryLockUntil(deadline time.Time) bool {
	return u.TryLockFor(time.Until(deadline))
}

// OwnsLock reports whether this UniqueLock currently holds its mutex.
func (u *UniqueLock) OwnsLock() bool { return u.locked }

// Mutex returns the wrapped Mutex, the handle ConditionVariable needs.
func (u *UniqueLock) Mutex() *Mutex { return u.m }

// Close releases the mutex if still held. Safe to call unconditionally via defer.
func (u *UniqueLock) Close() error {
	if u.locked {
		u.Unlock()
	}
	return nil
}

// ScopedLock acquires several mutexes at once without risking deadlock among
// themselves: it sorts by capability order first, so the acquisition order
// it uses can never itself invert. Passing two mutexes of
// the same order is the legitimate LockGuardWithoutOrderCheck case and is
// rejected here with a fatal violation, matching Mutex.Lock's own handling of
// order-recursion.
type ScopedLock struct {
	mutexes []*Mutex
}

// NewScopedLock locks every mutex in mutexes, in ascending order.
func NewScopedLock(mutexes ...*Mutex) *ScopedLock {
	ordered := append([]*Mutex(nil), mutexes...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	for i := 1; i < len(ordered); i++ {
		if ordered[i].order == ordered[i-1].order && AbortOnRecursionCheck {
			OnFatalViolation(fmt.Sprintf("scoped_lock: two mutexes share order %s (%#x, %#x); use LockGuardWithoutOrderCheck instead",
				OrderName(ordered[i].order), ordered[i-1].handle, ordered[i].handle))
		}
	}

	for _, m := range ordered {
		m.Lock()
	}
	return &ScopedLock{mutexes: ordered}
}

// Close releases every held mutex in reverse acquisition order.
func (s *ScopedLock) Close() error {
	for i := len(s.mutexes) - 1; i >= 0; i-- {
		s.mutexes[i].Unlock()
	}
	return nil
}

// ScopedJoinWaitCheck marks the calling goroutine as blocked joining tid for
// its lifetime; Close clears the marker.
type ScopedJoinWaitCheck struct{}

// NewScopedJoinWaitCheck records a join-wait on tid.
func NewScopedJoinWaitCheck(tid int64) *ScopedJoinWaitCheck {
	current().AddWaitJoin(tid)
	return &ScopedJoinWaitCheck{}
}

// Close clears the join-wait marker.
func (s *ScopedJoinWaitCheck) Close() error {
	current().RemoveWaitJoin()
	return nil
}

// ScopedQueueWaitCheck marks the calling goroutine as blocked sending to or
// receiving from tid's queue for its lifetime; Close clears the marker.
type ScopedQueueWaitCheck struct{}

// NewScopedQueueWaitCheck records a queue-wait on tid.
func NewScopedQueueWaitCheck(tid int64) *ScopedQueueWaitCheck {
	current().AddWaitQueue(tid)
	return &ScopedQueueWaitCheck{}
}

// Close clears the queue-wait marker.
func (s *ScopedQueueWaitCheck) Close() error {
	current().RemoveWaitQueue()
	return nil
}
