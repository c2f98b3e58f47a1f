package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAndUncontested(t *testing.T) {
	var c Category
	c.IncLocks()
	c.IncLocks()
	c.IncWaits()
	c.IncUnlocks()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Locks)
	assert.Equal(t, int64(1), snap.Waits)
	assert.Equal(t, int64(1), snap.Unlocks)
	assert.Equal(t, int64(1), snap.Locks-snap.Waits) // uncontested
}

func TestMeanAndStdDevWait(t *testing.T) {
	var c Category
	c.IncWaits()
	c.AddWait(10 * time.Millisecond)
	c.IncWaits()
	c.AddWait(20 * time.Millisecond)

	snap := c.Snapshot()
	assert.InDelta(t, 15.0, snap.MeanWaitMs(), 1e-6)
	assert.Greater(t, snap.StdDevWaitMs(), 0.0)
}

func TestStdDevUndefinedBelowTwoSamples(t *testing.T) {
	var c Category
	c.IncWaits()
	c.AddWait(5 * time.Millisecond)
	assert.Zero(t, c.Snapshot().StdDevWaitMs())

	var empty Category
	assert.Zero(t, empty.Snapshot().StdDevWaitMs())
	assert.Zero(t, empty.Snapshot().MeanWaitMs())
}

func TestWaitsNeverExceedsLocksInvariantHolds(t *testing.T) {
	var c Category
	for i := 0; i < 5; i++ {
		c.IncLocks()
		if i%2 == 0 {
			c.IncWaits()
		}
	}
	snap := c.Snapshot()
	assert.LessOrEqual(t, snap.Waits, snap.Locks)
}

func TestTableAllToStringSkipsIdleOrders(t *testing.T) {
	tab := NewTable(3)
	tab.For(1).IncLocks()
	out := tab.AllToString([]string{"Other", "Busy", "Idle"})
	assert.Contains(t, out, "Busy:")
	assert.NotContains(t, out, "Other:")
	assert.NotContains(t, out, "Idle:")
}

func TestSnapshotIdempotentWithoutIntermediateLocks(t *testing.T) {
	var c Category
	c.IncLocks()
	c.AddWait(time.Millisecond)
	first := c.Snapshot()
	second := c.Snapshot()
	assert.Equal(t, first, second)
}
