package cpu

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarrier_Phases(t *testing.T) {
	const parties = 8
	b := newBarrier(parties)
	var mu sync.Mutex
	phase := make([]int, parties)
	var wg sync.WaitGroup
	for i := 0; i < parties; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := 1; p <= 3; p++ {
				mu.Lock()
				phase[i] = p
				mu.Unlock()
				b.wait()
				mu.Lock()
				for _, other := range phase {
					assert.GreaterOrEqual(t, other, p)
				}
				mu.Unlock()
				b.wait()
			}
			b.leave()
		}()
	}
	wg.Wait()
}

func TestBarrier_Abort(t *testing.T) {
	b := newBarrier(2)
	done := make(chan any)
	go func() {
		defer func() { done <- recover() }()
		b.wait()
	}()
	b.abort()
	assert.Equal(t, errBarrierBroken, <-done)
	assert.PanicsWithValue(t, errBarrierBroken, func() { b.wait() })
}
