package threadinfo

import (
	"testing"

	"github.com/lunaris-aosp/mediamutex/holdstack"
	"github.com/stretchr/testify/assert"
)

func TestCheckHeldDetectsInversionAndRecursion(t *testing.T) {
	i := New(1, 16)
	i.PushHeld(100, 5)

	// Lower order than held -> inversion conflict, returns the held entry.
	assert.Equal(t, holdstack.Entry{Handle: 100, Order: 5}, i.CheckHeld(200, 3))

	// Equal order -> order-recursion conflict, returns the conflicting entry.
	conflict := i.CheckHeld(300, 5)
	assert.Equal(t, holdstack.Entry{Handle: 100, Order: 5}, conflict)

	// Same handle -> true recursion conflict.
	conflict = i.CheckHeld(100, 9)
	assert.Equal(t, holdstack.Entry{Handle: 100, Order: 5}, conflict)

	// Strictly greater order -> fine, admits the push.
	assert.Equal(t, holdstack.Invalid, i.CheckHeld(400, 9))
}

func TestPushRemoveHeldRoundTrips(t *testing.T) {
	i := New(1, 16)
	i.PushHeld(1, 3)
	i.PushHeld(2, 5)
	assert.False(t, i.Empty())

	assert.True(t, i.RemoveHeld(2))
	assert.True(t, i.RemoveHeld(1))
	assert.True(t, i.Empty())
}

func TestCVWaitSetsAuxiliaryFieldAndKeepsHeldEntry(t *testing.T) {
	i := New(1, 16)
	i.PushHeld(7, 4)

	i.PushHeldForCV(7, 4, 99)
	tid, reason, order := i.OtherWait()
	assert.Equal(t, int64(99), tid)
	assert.Equal(t, ReasonCV, reason)
	assert.Equal(t, holdstack.Order(4), order)
	assert.Equal(t, 1, i.Held.LogicalSize(), "held entry survives a cv wait so order checks still see it")

	i.RemoveHeldForCV(7, 4)
	_, reason, _ = i.OtherWait()
	assert.Equal(t, ReasonNone, reason)
	assert.Equal(t, 1, i.Held.LogicalSize())
}

func TestJoinAndQueueWaitMarkers(t *testing.T) {
	i := New(1, 16)
	i.AddWaitJoin(5)
	tid, reason, _ := i.OtherWait()
	assert.Equal(t, int64(5), tid)
	assert.Equal(t, ReasonJoin, reason)
	i.RemoveWaitJoin()
	_, reason, _ = i.OtherWait()
	assert.Equal(t, ReasonNone, reason)

	i.AddWaitQueue(6)
	tid, reason, _ = i.OtherWait()
	assert.Equal(t, int64(6), tid)
	assert.Equal(t, ReasonQueue, reason)
	i.RemoveWaitQueue()
	_, reason, _ = i.OtherWait()
	assert.Equal(t, ReasonNone, reason)
}

func TestEmptyConsidersWaitingAndAuxiliaryState(t *testing.T) {
	i := New(1, 16)
	assert.True(t, i.Empty())

	i.ResetWaiter(42)
	assert.False(t, i.Empty())
	i.ResetWaiter(holdstack.InvalidHandle)
	assert.True(t, i.Empty())

	i.AddWaitJoin(2)
	assert.False(t, i.Empty())
}
