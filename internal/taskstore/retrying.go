package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/draftpipe/internal/ctxlog"
)

// Retrying decorates a Store with bounded retries against transient
// unavailability. Put retries with linear backoff and reports the last error
// on exhaustion; Get degrades a persistently failing store to ErrNotFound so
// callers treat an outage as "task unknown" rather than crashing.
type Retrying struct {
	inner    Store
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration)
}

// RetryingOption customizes a Retrying store.
type RetryingOption func(*Retrying)

// WithSleep injects the wait function, used by tests to avoid real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) RetryingOption {
	return func(r *Retrying) { r.sleep = sleep }
}

// NewRetrying wraps inner with the stock policy: 3 attempts, linear backoff
// of 0.5s multiplied by the attempt number.
func NewRetrying(inner Store, opts ...RetryingOption) *Retrying {
	r := &Retrying{
		inner:    inner,
		attempts: 3,
		backoff:  500 * time.Millisecond,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put implements Store.
func (r *Retrying) Put(ctx context.Context, taskID string, record Record) error {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := r.inner.Put(ctx, taskID, record); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < r.attempts {
			ctxlog.FromContext(ctx).Warn("Status store put failed, retrying.", "taskID", taskID, "attempt", attempt, "error", lastErr)
			r.sleep(ctx, time.Duration(attempt)*r.backoff)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("status store put for task %s: %w", taskID, lastErr)
}

// Get implements Store. A missing record passes through as ErrNotFound
// immediately; any other failure is retried and finally reported as
// ErrNotFound.
func (r *Retrying) Get(ctx context.Context, taskID string) (Record, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		record, err := r.inner.Get(ctx, taskID)
		if err == nil {
			return record, nil
		}
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		lastErr = err

		if attempt < r.attempts {
			ctxlog.FromContext(ctx).Warn("Status store get failed, retrying.", "taskID", taskID, "attempt", attempt, "error", lastErr)
			r.sleep(ctx, time.Duration(attempt)*r.backoff)
			if ctx.Err() != nil {
				break
			}
		}
	}

	ctxlog.FromContext(ctx).Error("Status store unavailable, reporting task as unknown.", "taskID", taskID, "error", lastErr)
	return Record{}, ErrNotFound
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
