package gid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentIsStableWithinGoroutine(t *testing.T) {
	a := Current()
	b := Current()
	assert.Equal(t, a, b)
	assert.NotZero(t, a)
}

func TestCurrentDiffersAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	ids := make(chan int64, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			ids <- Current()
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "goroutine ids must not collide")
		seen[id] = true
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	assert.Zero(t, parse([]byte("not a stack trace")))
	assert.Zero(t, parse([]byte("goroutine")))
	assert.Equal(t, int64(42), parse([]byte("goroutine 42 [running]:\nmore")))
}
