// Package ratelimit admits callers against tiered fixed-window quotas.
//
// Two counters are kept per caller: a 60-second window and a 24-hour window,
// each keyed by (identity, window bucket) and expiring with its window. This
// is a fixed-window counter, not a true sliding window; bursts at window
// boundaries are an accepted trade-off of the design.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/tier"
)

// ErrRateLimited is returned when either window counter exceeds the caller's
// tier quota. The counters are not decremented on rejection.
var ErrRateLimited = errors.New("rate limit exceeded")

// CounterStore is the backing store for window counters. Increment must be
// atomic under concurrent admission checks, and must apply ttl when the key
// is created so counters never outlive their window.
type CounterStore interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Limiter performs tier resolution and fixed-window admission.
type Limiter struct {
	counters CounterStore
	quotas   map[tier.Tier]tier.Quota
	now      func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock injects a clock, used by tests to cross window boundaries.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter over the given counter store. Quota entries missing
// from quotas fall back to the tier defaults.
func New(counters CounterStore, quotas map[tier.Tier]tier.Quota, opts ...Option) *Limiter {
	merged := tier.DefaultQuotas()
	for t, q := range quotas {
		merged[t] = q
	}

	l := &Limiter{
		counters: counters,
		quotas:   merged,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit resolves the caller's tier from its credential and checks both
// window counters. It returns the resolved tier on success, or ErrRateLimited
// when either quota is exhausted. Counter-store failures deny admission.
func (l *Limiter) Admit(ctx context.Context, callerIdentity string) (tier.Tier, error) {
	if callerIdentity == "" {
		callerIdentity = tier.AnonymousIdentity
	}
	t := tier.FromCredential(callerIdentity)
	quota := l.quotas[t]

	now := l.now().Unix()
	minuteKey := fmt.Sprintf("rate_limit:%s:%d", callerIdentity, now/60)
	dayKey := fmt.Sprintf("daily_quota:%s:%d", callerIdentity, now/86400)

	minuteCount, err := l.counters.Increment(ctx, minuteKey, time.Minute)
	if err != nil {
		return t, fmt.Errorf("incrementing minute counter: %w", err)
	}
	dayCount, err := l.counters.Increment(ctx, dayKey, 24*time.Hour)
	if err != nil {
		return t, fmt.Errorf("incrementing day counter: %w", err)
	}

	if minuteCount > int64(quota.PerMinute) || dayCount > int64(quota.PerDay) {
		ctxlog.FromContext(ctx).Info("Admission rejected by rate limit.",
			"caller", callerIdentity, "tier", t, "minuteCount", minuteCount, "dayCount", dayCount)
		return t, ErrRateLimited
	}

	return t, nil
}
