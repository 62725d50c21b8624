package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_EnforcesMinimumInterval(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSecond: 20, Burst: 1})
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(ctx))
	}
	// Two inter-request gaps of 50ms each.
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestLimiter_SharedAcrossConcurrentCallers(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSecond: 50, Burst: 1})
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Wait(ctx)
		}()
	}
	wg.Wait()

	// Four grants at 50 rps need at least three 20ms gaps in aggregate,
	// regardless of how many goroutines are waiting.
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_UnlimitedWhenRateNotPositive(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSecond: 0})
	ctx := context.Background()

	start := time.Now()
	for range 100 {
		require.NoError(t, l.Wait(ctx))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSecond: 0.1, Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx))
	require.Error(t, l.Wait(ctx))
}
