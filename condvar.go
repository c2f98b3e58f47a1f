package mediamutex

import (
	"time"

	"v.io/x/lib/nsync"
)

// ConditionVariable wraps nsync.CV, the Mesa-style condition variable that
// natively supports an absolute deadline — an exact match for the timed
// wait variants below.
type ConditionVariable struct {
	native nsync.CV
}

// NewConditionVariable returns a ready-to-use ConditionVariable. The zero
// value of nsync.CV is already valid, so this exists only for symmetry with
// NewMutex.
func NewConditionVariable() *ConditionVariable { return &ConditionVariable{} }

// Signal wakes at least one waiter.
func (cv *ConditionVariable) Signal() { cv.native.Signal() }

// Broadcast wakes every waiter.
func (cv *ConditionVariable) Broadcast() { cv.native.Broadcast() }

// Wait blocks on m until Signal or Broadcast, recording notifierTID as the
// thread this goroutine expects to wake it. The held-stack entry for m is
// left in place for the duration of the wait (see threadinfo.PushHeldForCV);
// only the underlying primitive is physically unlocked.
func (cv *ConditionVariable) Wait(m *Mutex, notifierTID int64) {
	cv.waitUntil(m, notifierTID, nsync.NoDeadline, nil)
}

// WaitFor blocks on m for at most timeout. Returns false on timeout.
func (cv *ConditionVariable) WaitFor(m *Mutex, notifierTID int64, timeout time.Duration) bool {
	return cv.waitUntil(m, notifierTID, time.Now().Add(timeout), nil)
}

// WaitUntil blocks on m until the absolute deadline. Returns false on timeout.
func (cv *ConditionVariable) WaitUntil(m *Mutex, notifierTID int64, deadline time.Time) bool {
	return cv.waitUntil(m, notifierTID, deadline, nil)
}

// WaitWhile re-enters Wait in a loop while pred returns true, the Mesa-style
// pattern nsync.CV's own doc comment prescribes: on every loop iteration
// (including spurious wakeups) the mutex is reacquired and the cv-wait scope
// is re-entered before the predicate is checked again.
func (cv *ConditionVariable) WaitWhile(m *Mutex, notifierTID int64, pred func() bool) {
	for pred() {
		cv.Wait(m, notifierTID)
	}
}

func (cv *ConditionVariable) waitUntil(m *Mutex, notifierTID int64, deadline time.Time, cancel <-chan struct{}) bool {
	if !TrackingEnabled {
		outcome := cv.native.WaitWithDeadline(&m.native, deadline, cancel)
		return outcome == nsync.OK
	}

	ti := current()
	ti.PushHeldForCV(m.handle, m.order, notifierTID)
	outcome := cv.native.WaitWithDeadline(&m.native, deadline, cancel)
	ti.RemoveHeldForCV(m.handle, m.order)
	return outcome == nsync.OK
}
