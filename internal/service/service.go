// Package service is the façade the transport layer (HTTP, CLI) talks to:
// admission, task creation, and status lookup. It owns no state of its own;
// every collaborator is injected at construction so there is exactly one
// instance per process, created at startup and passed by reference.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/executor"
	"github.com/vk/draftpipe/internal/ratelimit"
	"github.com/vk/draftpipe/internal/taskstore"
	"github.com/vk/draftpipe/internal/tier"
)

// ErrInvalidInput rejects empty or whitespace-only run input before a task
// is created.
var ErrInvalidInput = errors.New("input must not be empty")

// Submission is the result of an accepted run request.
type Submission struct {
	TaskID string
	Tier   tier.Tier
}

// Service coordinates admission and task dispatch.
type Service struct {
	limiter  *ratelimit.Limiter
	executor *executor.Executor
	store    taskstore.Store
	newID    func() string
}

// New constructs the service. The store must be the same one the executor
// writes to.
func New(limiter *ratelimit.Limiter, exec *executor.Executor, store taskstore.Store) *Service {
	return &Service{
		limiter:  limiter,
		executor: exec,
		store:    store,
		newID:    func() string { return uuid.NewString() },
	}
}

// SubmitRun admits the caller, validates the input, and enqueues a run.
// It returns ratelimit.ErrRateLimited when the caller's quota is exhausted
// (no task is created) and ErrInvalidInput for empty input. On success the
// caller polls GetStatus with the returned task ID.
func (s *Service) SubmitRun(ctx context.Context, input, callerIdentity string) (Submission, error) {
	t, err := s.limiter.Admit(ctx, callerIdentity)
	if err != nil {
		return Submission{}, err
	}

	if strings.TrimSpace(input) == "" {
		return Submission{}, ErrInvalidInput
	}

	taskID := s.newID()
	if err := s.executor.Submit(ctx, taskID, input, t); err != nil {
		return Submission{}, fmt.Errorf("submitting task: %w", err)
	}

	ctxlog.FromContext(ctx).Info("Run accepted.", "taskID", taskID, "tier", t)
	return Submission{TaskID: taskID, Tier: t}, nil
}

// GetStatus returns the task's lifecycle record, or taskstore.ErrNotFound
// for unknown or expired tasks.
func (s *Service) GetStatus(ctx context.Context, taskID string) (taskstore.Record, error) {
	return s.store.Get(ctx, taskID)
}
