package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVisitsEveryIndex(t *testing.T) {
	for _, cfg := range []Config{{Enabled: false}, {Enabled: true, NumWorkers: 3}} {
		seen := make([]int32, 100)
		err := Run(context.Background(), len(seen), func(_ context.Context, i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		}, cfg)
		require.NoError(t, err)
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "index %d (parallel=%v)", i, cfg.Enabled)
		}
	}
}

func TestRunReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), 10, func(_ context.Context, i int) error {
		if i == 4 {
			return boom
		}
		return nil
	}, Config{Enabled: true, NumWorkers: 2})
	assert.ErrorIs(t, err, boom)

	calls := 0
	err = Run(context.Background(), 10, func(_ context.Context, i int) error {
		calls++
		if i == 1 {
			return boom
		}
		return nil
	}, Config{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRunLimitsConcurrency(t *testing.T) {
	var running, peak int32
	err := Run(context.Background(), 50, func(_ context.Context, _ int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil
	}, Config{Enabled: true, NumWorkers: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
