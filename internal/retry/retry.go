// Package retry wraps a single pipeline stage invocation with bounded
// retries, exponential backoff, and a graceful fallback once attempts are
// exhausted. The wrapper hides transient collaborator failures from the
// graph: instead of propagating an error it returns the last known state
// marked as a fallback, preserving the final failure message for diagnostics.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/pipeline"
)

// StageFunc is the shape of a single stage invocation.
type StageFunc func(ctx context.Context, state pipeline.State) (pipeline.State, error)

// Policy configures retry behavior for stage invocations.
type Policy struct {
	// MaxRetries is the total number of attempts before falling back.
	MaxRetries int

	// BackoffBase is the exponential base: attempt n sleeps
	// BackoffBase^n seconds. Non-jittered.
	BackoffBase float64

	// Sleep is the wait function between attempts. Injectable for tests;
	// nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

// DefaultPolicy mirrors the stock configuration: 3 attempts, base-2 backoff.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BackoffBase: 2}
}

// Wrap returns a function that runs fn under this policy. The returned
// function never reports an error: on exhaustion it returns the input state
// augmented with the last error message and the fallback marker.
func (p Policy) Wrap(name string, fn StageFunc) func(ctx context.Context, state pipeline.State) pipeline.State {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	return func(ctx context.Context, state pipeline.State) pipeline.State {
		logger := ctxlog.FromContext(ctx).With("stage", name)

		var lastErr error
		for attempt := 1; attempt <= p.MaxRetries; attempt++ {
			next, err := fn(ctx, state)
			if err == nil {
				return next
			}
			lastErr = err

			if attempt < p.MaxRetries {
				wait := p.backoff(attempt)
				logger.Warn("Stage attempt failed, retrying.", "attempt", attempt, "wait", wait, "error", err)
				sleep(ctx, wait)
				if ctx.Err() != nil {
					lastErr = ctx.Err()
					break
				}
			}
		}

		logger.Error("Stage failed after exhausting retries, falling back.", "maxRetries", p.MaxRetries, "error", lastErr)
		state.Err = lastErr.Error()
		state.Fallback = true
		return state
	}
}

// backoff computes the wait before the next attempt: BackoffBase^attempt seconds.
func (p Policy) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(p.BackoffBase, float64(attempt)) * float64(time.Second))
}

// sleepCtx waits for d or until the context is cancelled, whichever is first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
