package mediamutex

import (
	"log"
	"os"
)

// Fixed-at-build configuration. These are package vars rather than a Config
// struct because they are process-wide build-time constants, not
// per-instance options; tests override them directly and restore them
// afterward.
var (
	// TrackingEnabled gates every pre/post/pre-unlock hook. When false, Mutex
	// degrades to a plain exclusive lock around the underlying nsync.Mu.
	TrackingEnabled = true

	// AbortOnOrderCheck makes an order inversion fatal.
	AbortOnOrderCheck = true

	// AbortOnRecursionCheck makes recursion fatal: true recursion (same
	// handle) and order-recursion (a second mutex of an order already held).
	AbortOnRecursionCheck = true

	// AbortOnInvalidUnlock makes unlocking a mutex the thread does not hold fatal.
	AbortOnInvalidUnlock = true

	// StackDepth is the physical capacity of every thread's held stack.
	StackDepth = 16

	// PriorityInheritanceEnabled is the process-wide configuration query,
	// read once per NewMutex call. Goroutines have no OS-visible scheduling
	// priority, so the default always reports false; see DESIGN.md.
	PriorityInheritanceEnabled = func() bool { return false }
)

// diagLogger receives every non-fatal diagnostic: registry inconsistencies,
// priority-inheritance no-ops. Uses the standard log package; no
// structured-logging library is introduced here (see DESIGN.md).
var diagLogger = log.New(os.Stderr, "mediamutex: ", log.LstdFlags)

// OnFatalViolation is called for every mutex-discipline violation classified
// as fatal: order inversion, recursion, and invalid unlock, when the
// corresponding abort flag is enabled. It is reassignable so tests can
// observe a violation without killing the test binary, the same shape as
// sasha-s/go-deadlock's Opts.OnPotentialDeadlock.
var OnFatalViolation = func(msg string) {
	diagLogger.Output(2, "FATAL: "+msg)
	os.Exit(2)
}
