package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounters_IncrementIsMonotonicPerKey(t *testing.T) {
	t.Parallel()

	counters := NewMemoryCounters()
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := counters.Increment(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestMemoryCounters_ExpiredKeyRestartsAtOne(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	counters := NewMemoryCounters(WithCounterClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := counters.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	got, err := counters.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestMemoryCounters_SweepDropsExpiredEntries(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	counters := NewMemoryCounters(WithCounterClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := counters.Increment(ctx, "old-1", time.Minute)
	require.NoError(t, err)
	_, err = counters.Increment(ctx, "old-2", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, counters.Len())

	// Creating a fresh bucket after expiry sweeps the stale ones.
	now = now.Add(2 * time.Minute)
	_, err = counters.Increment(ctx, "new", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, counters.Len())
}

func TestMemoryCounters_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	counters := NewMemoryCounters()
	ctx := context.Background()

	const goroutines = 32
	const perGoroutine = 25

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := counters.Increment(ctx, "shared", time.Minute)
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := counters.Increment(ctx, "shared", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(goroutines*perGoroutine+1), got)
}
