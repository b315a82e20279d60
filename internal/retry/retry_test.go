package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/testutil"
)

func TestWrap_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	recorder := &testutil.SleepRecorder{}
	policy := Policy{MaxRetries: 3, BackoffBase: 2, Sleep: recorder.Sleep}

	calls := 0
	fn := policy.Wrap("draft", func(_ context.Context, state pipeline.State) (pipeline.State, error) {
		calls++
		state.Draft = "done"
		return state, nil
	})

	state := fn(context.Background(), pipeline.State{Input: "q"})

	require.Equal(t, 1, calls)
	require.Equal(t, "done", state.Draft)
	require.False(t, state.Fallback)
	require.Empty(t, recorder.Durations(), "no sleeps on first-attempt success")
}

func TestWrap_RecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	recorder := &testutil.SleepRecorder{}
	policy := Policy{MaxRetries: 3, BackoffBase: 2, Sleep: recorder.Sleep}

	calls := 0
	fn := policy.Wrap("research", func(_ context.Context, state pipeline.State) (pipeline.State, error) {
		calls++
		if calls < 3 {
			return state, errors.New("provider unavailable")
		}
		state.ResearchSummary = "recovered"
		return state, nil
	})

	state := fn(context.Background(), pipeline.State{Input: "q"})

	require.Equal(t, 3, calls)
	require.Equal(t, "recovered", state.ResearchSummary)
	require.False(t, state.Fallback)

	// Exponential backoff: 2^1 then 2^2 seconds before attempts 2 and 3.
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, recorder.Durations())
}

func TestWrap_FallbackAfterExhaustion(t *testing.T) {
	t.Parallel()

	recorder := &testutil.SleepRecorder{}
	policy := Policy{MaxRetries: 3, BackoffBase: 2, Sleep: recorder.Sleep}

	calls := 0
	fn := policy.Wrap("review", func(_ context.Context, state pipeline.State) (pipeline.State, error) {
		calls++
		return state, errors.New("hard failure")
	})

	in := pipeline.State{Input: "q", Draft: "kept"}
	state := fn(context.Background(), in)

	require.Equal(t, 3, calls)
	require.True(t, state.Fallback)
	require.Equal(t, "hard failure", state.Err)
	require.Equal(t, "kept", state.Draft, "fallback preserves the pre-stage state")
	require.Len(t, recorder.Durations(), 2, "no sleep after the final attempt")
}

func TestWrap_CancelledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	policy := Policy{
		MaxRetries:  5,
		BackoffBase: 2,
		Sleep:       func(ctx context.Context, _ time.Duration) {},
	}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	fn := policy.Wrap("draft", func(_ context.Context, state pipeline.State) (pipeline.State, error) {
		calls++
		cancel()
		return state, errors.New("boom")
	})

	state := fn(ctx, pipeline.State{Input: "q"})

	require.Equal(t, 1, calls, "no further attempts once the context is cancelled")
	require.True(t, state.Fallback)
	require.Equal(t, context.Canceled.Error(), state.Err)
}

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	require.Equal(t, 3, p.MaxRetries)
	require.Equal(t, float64(2), p.BackoffBase)
}
