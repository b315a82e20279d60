package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounters is the in-process CounterStore. Each key holds a count and
// an absolute expiry; expired entries are swept whenever a new window bucket
// is created, so the key space stays bounded by active callers without a
// background janitor.
//
// A single mutex guards the map: the critical section is a map lookup and an
// integer add, so contention stays negligible next to the network work each
// admitted request performs. A Redis-backed implementation would replace
// this for multi-process deployments.
type MemoryCounters struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryOption customizes a MemoryCounters.
type MemoryOption func(*MemoryCounters)

// WithCounterClock injects a clock for tests.
func WithCounterClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCounters) { c.now = now }
}

// NewMemoryCounters creates an empty in-memory counter store.
func NewMemoryCounters(opts ...MemoryOption) *MemoryCounters {
	c := &MemoryCounters{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment implements CounterStore. The increment and the expiry assignment
// happen under one lock acquisition, matching the atomicity the admission
// check requires.
func (c *MemoryCounters) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		c.sweepLocked(now)
		entry = &counterEntry{expiresAt: now.Add(ttl)}
		c.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// sweepLocked drops expired entries. Caller must hold mu.
func (c *MemoryCounters) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of live (unexpired) keys. Test helper.
func (c *MemoryCounters) Len() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, entry := range c.entries {
		if !now.After(entry.expiresAt) {
			n++
		}
	}
	return n
}
