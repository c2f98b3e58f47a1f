package mediamutex

import "time"

// Backoff schedule for the timed-lock helper. nsync.Mu exposes only
// TryLock/Lock, no deadline-bounded lock, so a timed acquisition here is
// built the way a userspace spinlock-with-timeout usually is: poll, back
// off, repeat until the deadline.
const (
	startingBackoff = 50 * time.Microsecond
	maxBackoff      = 500 * time.Millisecond
	backoffFactor   = 2
)

// tryLockUntil polls try for success, backing off between attempts, until
// deadline passes. Returns whether it acquired before the deadline.
func tryLockUntil(deadline time.Time, try func() bool) bool {
	backoff := startingBackoff
	for {
		if try() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		remaining := time.Until(deadline)
		if backoff > remaining {
			backoff = remaining
		}
		if backoff > 0 {
			time.Sleep(backoff)
		}
		backoff *= backoffFactor
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
