package registry

import (
	"runtime"
	"testing"

	"github.com/lunaris-aosp/mediamutex/holdstack"
	"github.com/lunaris-aosp/mediamutex/threadinfo"
	"github.com/stretchr/testify/assert"
)

var orderNames = []string{"Other", "A", "B", "C", "D", "E"}

func TestAddRemoveRoundTrip(t *testing.T) {
	r := New()
	info := threadinfo.New(1, 16)
	r.Add(info)
	snap := r.CopyMap()
	assert.Contains(t, snap, int64(1))

	r.Remove(1)
	snap = r.CopyMap()
	assert.NotContains(t, snap, int64(1))
	runtime.KeepAlive(info)
}

func TestDuplicateAddAndMissingRemoveWarnButDoNotPanic(t *testing.T) {
	r := New()
	var warnings []string
	r.SetWarnFunc(func(s string) { warnings = append(warnings, s) })

	info := threadinfo.New(1, 16)
	r.Add(info)
	r.Add(info) // duplicate
	r.Remove(1)
	r.Remove(1) // missing

	assert.Len(t, warnings, 2)
	runtime.KeepAlive(info)
}

func TestDumpListsNonEmptyThenIdle(t *testing.T) {
	r := New()
	busy := threadinfo.New(1, 16)
	busy.PushHeld(10, 1)
	idle := threadinfo.New(2, 16)
	r.Add(busy)
	r.Add(idle)

	dump := r.Dump()
	assert.Contains(t, dump, "tid=1")
	assert.Contains(t, dump, "idle: [2]")
	runtime.KeepAlive(busy)
	runtime.KeepAlive(idle)
}

func TestDeadlockDetectionEmptyChainWhenNotBlocked(t *testing.T) {
	r := New()
	info := threadinfo.New(1, 16)
	r.Add(info)
	result := r.DeadlockDetection(1, orderNames)
	assert.False(t, result.HasCycle)
	assert.Empty(t, result.Chain)
	runtime.KeepAlive(info)
}

// T1 blocks on A held by T2; T2 blocks on B held by T3; T3 blocks on C held
// by T1. Expected a 3-hop cycle back to T1.
func TestDeadlockDetectionThreeThreadCycle(t *testing.T) {
	r := New()
	t1, t2, t3 := threadinfo.New(1, 16), threadinfo.New(2, 16), threadinfo.New(3, 16)

	handleA, handleB, handleC := holdstack.Handle(0xA), holdstack.Handle(0xB), holdstack.Handle(0xC)

	t2.PushHeld(handleA, 1)
	t1.ResetWaiter(handleA)

	t3.PushHeld(handleB, 2)
	t2.ResetWaiter(handleB)

	t1.PushHeld(handleC, 3)
	t3.ResetWaiter(handleC)

	r.Add(t1)
	r.Add(t2)
	r.Add(t3)

	result := r.DeadlockDetection(1, orderNames)
	assert.True(t, result.HasCycle)
	if assert.Len(t, result.Chain, 3) {
		assert.Equal(t, int64(2), result.Chain[0].TID)
		assert.Equal(t, int64(3), result.Chain[1].TID)
		assert.Equal(t, int64(1), result.Chain[2].TID)
	}
	runtime.KeepAlive(t1)
	runtime.KeepAlive(t2)
	runtime.KeepAlive(t3)
}

// T1 holds A and condition-waits on A naming T2 as notifier; T2 is blocked
// acquiring A.
func TestDeadlockDetectionConditionVariableEdge(t *testing.T) {
	r := New()
	t1, t2 := threadinfo.New(1, 16), threadinfo.New(2, 16)
	handleA := holdstack.Handle(0xA)

	t1.PushHeld(handleA, 4)
	t1.PushHeldForCV(handleA, 4, 2) // T1 keeps its held entry, cv-waits naming T2
	t2.ResetWaiter(handleA)         // T2 blocked acquiring A, which the lookup still attributes to T1

	r.Add(t1)
	r.Add(t2)

	result := r.DeadlockDetection(1, orderNames)
	assert.True(t, result.HasCycle)
	assert.Equal(t, "cv", result.OtherWaitReason)
	if assert.Len(t, result.Chain, 2) {
		assert.Equal(t, "cv-D", result.Chain[0].Label)
		assert.Equal(t, int64(2), result.Chain[0].TID)
		assert.Equal(t, "D", result.Chain[1].Label)
		assert.Equal(t, int64(1), result.Chain[1].TID)
	}
	runtime.KeepAlive(t1)
	runtime.KeepAlive(t2)
}

func TestDeadlockDetectionNoCycleWhenChainEnds(t *testing.T) {
	r := New()
	t1 := threadinfo.New(1, 16)
	t1.ResetWaiter(holdstack.Handle(0xDEAD)) // nobody owns this handle
	r.Add(t1)

	result := r.DeadlockDetection(1, orderNames)
	assert.False(t, result.HasCycle)
	assert.Empty(t, result.Chain)
	runtime.KeepAlive(t1)
}
