package mediamutex

import (
	"sync"

	"github.com/lunaris-aosp/mediamutex/gid"
	"github.com/lunaris-aosp/mediamutex/registry"
	"github.com/lunaris-aosp/mediamutex/stats"
	"github.com/lunaris-aosp/mediamutex/threadinfo"
)

// global is the process-wide state every Mutex, guard, and introspection
// call shares: the one thread registry, the one statistics table, and the
// strong-reference map a goroutine's descriptor lives in until Detach().
//
// descriptors is this port's thread-local-once-init: Go has no per-goroutine
// storage API, so the nearest equivalent is a lazily-populated map keyed by
// gid.Current(), guarded by a plain sync.Mutex (never an instrumented Mutex —
// instrumenting the instrumentation's own bookkeeping lock would recurse).
var global = struct {
	mu          sync.Mutex
	descriptors map[int64]*threadinfo.Info
	Registry    *registry.Registry
	Stats       *stats.Table
}{
	descriptors: make(map[int64]*threadinfo.Info),
	Registry:    registry.New(),
	Stats:       stats.NewTable(int(numOrders)),
}

func init() {
	global.Registry.SetWarnFunc(func(msg string) { diagLogger.Println(msg) })
}

// current returns the calling goroutine's descriptor, creating and
// registering one on first use, this port's thread-local once-init; the
// strong reference lives in global.descriptors until Detach.
func current() *threadinfo.Info {
	tid := gid.Current()

	global.mu.Lock()
	info, ok := global.descriptors[tid]
	if !ok {
		info = threadinfo.New(tid, StackDepth)
		global.descriptors[tid] = info
	}
	global.mu.Unlock()

	if !ok {
		global.Registry.Add(info)
	}
	return info
}

// Detach releases the calling goroutine's descriptor. Go has no portable
// goroutine-exit hook (unlike a pthread-key destructor), so callers that
// spawn short-lived goroutines which use this package must call Detach
// before the goroutine returns, or global.descriptors keeps its strong
// reference, so the descriptor and its registry entry stay for the life of
// the process.
func Detach() {
	tid := gid.Current()

	global.mu.Lock()
	delete(global.descriptors, tid)
	global.mu.Unlock()

	global.Registry.Remove(tid)
}
