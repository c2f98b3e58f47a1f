// Package registry implements the process-wide thread registry: the mapping
// from goroutine id to a weak reference to that goroutine's descriptor, and
// the deadlock-cycle detector that walks it.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"weak"

	"github.com/lunaris-aosp/mediamutex/holdstack"
	"github.com/lunaris-aosp/mediamutex/threadinfo"
)

// Registry is a thread-safe map from goroutine id to a weak reference to its
// descriptor. The internal mutex (a plain sync.Mutex, deliberately not an
// instrumented one — instrumenting the instrumentation's own bookkeeping lock
// would recurse) is only ever held across insert, remove, and snapshot.
type Registry struct {
	mu   sync.Mutex
	byID map[int64]weak.Pointer[threadinfo.Info]
	// warn receives a one-line message for every non-fatal registry
	// inconsistency (double add, missing remove). Defaults to a no-op;
	// mediamutex wires this to its diagnostic logger.
	warn func(string)
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[int64]weak.Pointer[threadinfo.Info])}
}

// SetWarnFunc installs the callback used to report non-fatal registry
// inconsistencies. Passing nil silences them.
func (r *Registry) SetWarnFunc(warn func(string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warn = warn
}

func (r *Registry) warnf(format string, args ...any) {
	if r.warn != nil {
		r.warn(fmt.Sprintf(format, args...))
	}
}

// Add inserts info by its TID. Re-registering an already-present tid is a
// warning, never an error: the later descriptor wins.
func (r *Registry) Add(info *threadinfo.Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[info.TID]; exists {
		r.warnf("registry: duplicate add for tid %d", info.TID)
	}
	r.byID[info.TID] = weak.Make(info)
}

// Remove erases tid's entry. A missing entry is a warning, never an error.
func (r *Registry) Remove(tid int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[tid]; !exists {
		r.warnf("registry: remove of unregistered tid %d", tid)
		return
	}
	delete(r.byID, tid)
}

// CopyMap returns a snapshot mapping tid to its resolved descriptor. Entries
// whose descriptor has already been garbage collected (the weak reference no
// longer resolves) are silently omitted; the registry observes goroutines asynchronously, so
// this is expected, not an error.
func (r *Registry) CopyMap() map[int64]*threadinfo.Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*threadinfo.Info, len(r.byID))
	for tid, ref := range r.byID {
		if info := ref.Value(); info != nil {
			out[tid] = info
		}
	}
	return out
}

// Dump walks a sorted snapshot, listing non-empty descriptors via their
// textual form and then a compact list of idle tids.
func (r *Registry) Dump() string {
	snap := r.CopyMap()
	tids := make([]int64, 0, len(snap))
	for tid := range snap {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })

	var b strings.Builder
	var idle []int64
	for _, tid := range tids {
		info := snap[tid]
		if info.Empty() {
			idle = append(idle, tid)
			continue
		}
		fmt.Fprintln(&b, info.String())
	}
	if len(idle) > 0 {
		fmt.Fprintf(&b, "idle: %v\n", idle)
	}
	return b.String()
}

// edge is a lookup entry: which tid holds a handle, and at what order.
type edge struct {
	ownerTID int64
	order    holdstack.Order
}

// ChainLink is one hop in a deadlock chain: the goroutine reached, and the
// label describing the edge that reached it (an order name, "cv-<order
// name>", "join", or "queue").
type ChainLink struct {
	TID   int64
	Label string
}

// Info is the result of a deadlock_detection traversal.
type Info struct {
	TargetTID       int64
	HasCycle        bool
	OtherWaitReason string
	Chain           []ChainLink
	// MayBeIncomplete is set when at least one snapshot descriptor had
	// overflowed its held stack, meaning the handle-ownership lookup built
	// for this traversal is missing entries and so the traversal may produce
	// a false negative.
	MayBeIncomplete bool
}

// DeadlockDetection walks a snapshot of the registry looking for a cycle
// reachable from targetTID. orderNames indexes capability orders to their
// display names for edge labels.
func (r *Registry) DeadlockDetection(targetTID int64, orderNames []string) Info {
	snap := r.CopyMap()
	result := Info{TargetTID: targetTID}

	target, ok := snap[targetTID]
	if !ok {
		return result
	}
	if waiting := target.WaitingOn(); waiting == holdstack.InvalidHandle {
		if _, reason, _ := target.OtherWait(); reason == threadinfo.ReasonNone {
			return result
		}
	}

	lookup := make(map[holdstack.Handle]edge)
	for tid, info := range snap {
		phys := info.Held.PhysicalSize()
		if info.Held.LogicalSize() > phys {
			result.MayBeIncomplete = true
		}
		for off := 0; off < phys; off++ {
			e := info.Held.Top(off)
			lookup[e.Handle] = edge{ownerTID: tid, order: e.Order}
		}
	}

	orderName := func(o holdstack.Order) string {
		if int(o) < len(orderNames) {
			return orderNames[o]
		}
		return fmt.Sprintf("order-%d", o)
	}

	visited := map[int64]bool{targetTID: true}
	cur := target
	for {
		if waiting := cur.WaitingOn(); waiting != holdstack.InvalidHandle {
			if e, ok := lookup[waiting]; ok {
				result.Chain = append(result.Chain, ChainLink{TID: e.ownerTID, Label: orderName(e.order)})
				if visited[e.ownerTID] {
					result.HasCycle = true
					return result
				}
				visited[e.ownerTID] = true
				next, ok := snap[e.ownerTID]
				if !ok {
					return result
				}
				cur = next
				continue
			}
			// Waiting on a handle not present in the lookup: either the
			// owner is untracked or its held entry overflowed. Either way
			// the chain cannot be extended further.
			return result
		}

		otherTID, reason, order := cur.OtherWait()
		if reason == threadinfo.ReasonNone {
			return result
		}
		var label string
		switch reason {
		case threadinfo.ReasonCV:
			label = "cv-" + orderName(order)
			result.OtherWaitReason = "cv"
		case threadinfo.ReasonJoin:
			label = "join"
			result.OtherWaitReason = "join"
		case threadinfo.ReasonQueue:
			label = "queue"
			result.OtherWaitReason = "queue"
		}
		result.Chain = append(result.Chain, ChainLink{TID: otherTID, Label: label})
		if visited[otherTID] {
			result.HasCycle = true
			return result
		}
		visited[otherTID] = true
		next, ok := snap[otherTID]
		if !ok {
			return result
		}
		cur = next
	}
}
