package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/draftpipe/internal/executor"
	"github.com/vk/draftpipe/internal/graph"
	"github.com/vk/draftpipe/internal/memstore"
	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/ratelimit"
	"github.com/vk/draftpipe/internal/retry"
	"github.com/vk/draftpipe/internal/taskstore"
	"github.com/vk/draftpipe/internal/tier"
	"github.com/vk/draftpipe/modules/mockllm"
)

func newTestService(t *testing.T, quotas map[tier.Tier]tier.Quota) (*Service, taskstore.Store) {
	t.Helper()

	store := memstore.New()
	t.Cleanup(store.Close)

	client := mockllm.Client{}
	g := graph.New(
		&pipeline.RetrievalStage{},
		&pipeline.ResearchStage{LLM: client},
		&pipeline.DraftStage{LLM: client},
		&pipeline.ReviewStage{LLM: client},
		graph.Options{Retry: retry.Policy{
			MaxRetries:  3,
			BackoffBase: 2,
			Sleep:       func(context.Context, time.Duration) {},
		}},
	)

	exec := executor.New(g, store, nil, executor.Config{Workers: 1})
	exec.Start(context.Background())
	t.Cleanup(exec.Stop)

	limiter := ratelimit.New(ratelimit.NewMemoryCounters(), quotas)
	return New(limiter, exec, store), store
}

func TestSubmitRun_AcceptsAndCompletes(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sub, err := svc.SubmitRun(ctx, "Explain Raft", "premium_alice")
	require.NoError(t, err)
	require.NotEmpty(t, sub.TaskID)
	require.Equal(t, tier.Premium, sub.Tier)

	require.Eventually(t, func() bool {
		record, err := svc.GetStatus(ctx, sub.TaskID)
		return err == nil && record.Status == taskstore.StatusCompleted
	}, 3*time.Second, 5*time.Millisecond)
}

func TestSubmitRun_QueuedRecordVisibleImmediately(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sub, err := svc.SubmitRun(ctx, "Explain Raft", "")
	require.NoError(t, err)

	// Submit is synchronous up to the queued write, so the task is never
	// invisible between accept and first poll.
	record, err := svc.GetStatus(ctx, sub.TaskID)
	require.NoError(t, err)
	require.NotEqual(t, taskstore.Record{}, record)
}

func TestSubmitRun_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)

	_, err := svc.SubmitRun(context.Background(), "   \t\n", "premium_alice")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitRun_RateLimitedCallerCreatesNoTask(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, map[tier.Tier]tier.Quota{
		tier.Free: {PerMinute: 1, PerDay: 10},
	})
	ctx := context.Background()

	_, err := svc.SubmitRun(ctx, "first", "someone")
	require.NoError(t, err)

	_, err = svc.SubmitRun(ctx, "second", "someone")
	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestSubmitRun_AdmissionPrecedesValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, map[tier.Tier]tier.Quota{
		tier.Free: {PerMinute: 1, PerDay: 10},
	})
	ctx := context.Background()

	// An invalid request still consumes quota: admission runs first.
	_, err := svc.SubmitRun(ctx, "  ", "someone")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SubmitRun(ctx, "valid", "someone")
	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestGetStatus_UnknownTask(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)

	_, err := svc.GetStatus(context.Background(), "no-such-task")
	require.ErrorIs(t, err, taskstore.ErrNotFound)
}

func TestSubmitRun_TaskIDsAreUnique(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		sub, err := svc.SubmitRun(ctx, "q", "premium_alice")
		require.NoError(t, err)
		require.False(t, seen[sub.TaskID])
		seen[sub.TaskID] = true
	}
}
