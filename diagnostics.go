package mediamutex

import "github.com/lunaris-aosp/mediamutex/registry"

// DeadlockInfo is the result of a deadlock_detection traversal.
type DeadlockInfo = registry.Info

// ChainLink is one hop in a DeadlockInfo's chain.
type ChainLink = registry.ChainLink

// AllStatsToString renders every capability order with at least one
// recorded lock, one line per order, for a watchdog dump.
func AllStatsToString() string {
	return global.Stats.AllToString(allOrderNames())
}

// AllThreadsToString renders every registered goroutine's descriptor: the
// non-empty ones first, then a compact list of idle ones.
func AllThreadsToString() string {
	return global.Registry.Dump()
}

// DeadlockDetection runs the cycle-detection traversal starting from tid.
func DeadlockDetection(tid int64) DeadlockInfo {
	return global.Registry.DeadlockDetection(tid, allOrderNames())
}
