// Package stats implements the per-capability-order contention counters:
// lock/unlock/wait counts and a running sum and sum-of-squares of wait times,
// one instance per order, shared by every mutex of that order for the life of
// the process.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/lunaris-aosp/mediamutex/atomics"
)

// Category holds the five counters for a single capability order. The zero
// value is ready to use.
type Category struct {
	locks       atomics.Relaxed
	unlocks     atomics.Relaxed
	waits       atomics.Relaxed
	waitSumNs   atomics.RelaxedFloat
	waitSumSqNs atomics.RelaxedFloat
}

// IncLocks records a successful acquisition.
func (c *Category) IncLocks() { c.locks.Add(1) }

// IncUnlocks records a release.
func (c *Category) IncUnlocks() { c.unlocks.Add(1) }

// IncWaits records that an acquisition had to block.
func (c *Category) IncWaits() { c.waits.Add(1) }

// AddWait folds a blocked-then-acquired wait duration into the running sum
// and sum-of-squares, the only way wait-time statistics are ever updated.
func (c *Category) AddWait(d time.Duration) {
	ns := float64(d.Nanoseconds())
	c.waitSumNs.Add(ns)
	c.waitSumSqNs.Add(ns * ns)
}

// Snapshot is a point-in-time, possibly inconsistent, read of a Category.
type Snapshot struct {
	Locks, Unlocks, Waits int64
	WaitSumNs, WaitSumSqNs float64
}

// MeanWaitMs is the mean wait time in milliseconds, or 0 if there were no waits.
func (s Snapshot) MeanWaitMs() float64 {
	if s.Waits == 0 {
		return 0
	}
	return (s.WaitSumNs / float64(s.Waits)) / 1e6
}

// StdDevWaitMs is the sample standard deviation of wait times in
// milliseconds. Undefined (reported as zero) for fewer than two samples.
func (s Snapshot) StdDevWaitMs() float64 {
	if s.Waits < 2 {
		return 0
	}
	n := float64(s.Waits)
	mean := s.WaitSumNs / n
	variance := (s.WaitSumSqNs/n - mean*mean) * n / (n - 1)
	if variance < 0 {
		// Floating-point noise under concurrent, inconsistent reads can push
		// this marginally negative; clamp rather than report NaN.
		variance = 0
	}
	return math.Sqrt(variance) / 1e6
}

// Snapshot reads the current counters. Readers may observe a slightly
// inconsistent tuple (e.g. Waits incremented but WaitSumNs not yet caught
// up); this is an accepted tradeoff for lockless counters.
func (c *Category) Snapshot() Snapshot {
	return Snapshot{
		Locks:       c.locks.Load(),
		Unlocks:     c.unlocks.Load(),
		Waits:       c.waits.Load(),
		WaitSumNs:   c.waitSumNs.Load(),
		WaitSumSqNs: c.waitSumSqNs.Load(),
	}
}

// String renders a Snapshot as locks, uncontested count, waits, unlocks,
// mean wait, and sample stddev.
func (s Snapshot) String() string {
	uncontested := s.Locks - s.Waits
	return fmt.Sprintf(
		"locks=%d uncontested=%d waits=%d unlocks=%d mean_wait_ms=%.4f stddev_wait_ms=%.4f",
		s.Locks, uncontested, s.Waits, s.Unlocks, s.MeanWaitMs(), s.StdDevWaitMs(),
	)
}

// Table is a fixed-size array of Category, one slot per order value. Orders
// are dense integers, so Table is indexed directly rather than through a map.
type Table struct {
	categories []Category
}

// NewTable allocates a Table sized for orders [0, numOrders).
func NewTable(numOrders int) *Table {
	return &Table{categories: make([]Category, numOrders)}
}

// For returns the Category for the given order.
func (t *Table) For(order uint8) *Category {
	return &t.categories[order]
}

// AllToString renders every category with a non-zero lock count, named via
// names, one line per order, in order.
func (t *Table) AllToString(names []string) string {
	out := ""
	for i := range t.categories {
		snap := t.categories[i].Snapshot()
		if snap.Locks == 0 {
			continue
		}
		name := fmt.Sprintf("order-%d", i)
		if i < len(names) {
			name = names[i]
		}
		out += fmt.Sprintf("%s: %s\n", name, snap)
	}
	return out
}
