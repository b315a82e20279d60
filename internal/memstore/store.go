// Package memstore provides an ephemeral, thread-safe, in-memory
// implementation of the taskstore.Store interface with per-key expiry.
//
// # Characteristics
//
//   - **Ephemeral:** state lives for the process lifetime only
//   - **Thread-Safe:** sync.Map for fine-grained concurrent access
//   - **Expiring:** every Put re-arms the record's retention deadline;
//     expired records are invisible to Get and reaped by a janitor goroutine
//
// sync.Map fits the access pattern: each task's record is an independent
// key written by exactly one worker and read concurrently by status polls.
//
// For multi-process deployments a Redis-backed implementation of
// taskstore.Store would replace this package; the retention semantics here
// match a SET with EX.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/vk/draftpipe/internal/taskstore"
)

// janitorInterval is how often the reaper scans for expired records.
const janitorInterval = time.Minute

// Store is an in-memory taskstore.Store with per-key TTL.
type Store struct {
	records sync.Map // Key: task ID string, Value: *entry
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	record    taskstore.Record
	expiresAt time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTTL overrides the retention window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates an empty store and starts its janitor. Call Close to stop the
// janitor when the store is no longer needed.
func New(opts ...Option) *Store {
	s := &Store{
		ttl:  taskstore.RetentionWindow,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

// Put implements taskstore.Store. Every write re-arms the record's expiry.
func (s *Store) Put(_ context.Context, taskID string, record taskstore.Record) error {
	s.records.Store(taskID, &entry{
		record:    record,
		expiresAt: s.now().Add(s.ttl),
	})
	return nil
}

// Get implements taskstore.Store. Expired records report taskstore.ErrNotFound.
func (s *Store) Get(_ context.Context, taskID string) (taskstore.Record, error) {
	value, ok := s.records.Load(taskID)
	if !ok {
		return taskstore.Record{}, taskstore.ErrNotFound
	}
	e := value.(*entry)
	if s.now().After(e.expiresAt) {
		s.records.Delete(taskID)
		return taskstore.Record{}, taskstore.ErrNotFound
	}
	return e.record, nil
}

// Close stops the janitor goroutine. Safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// janitor periodically reaps expired records so memory is reclaimed even for
// tasks nobody polls again.
func (s *Store) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.records.Range(func(key, value any) bool {
				if now.After(value.(*entry).expiresAt) {
					s.records.Delete(key)
				}
				return true
			})
		}
	}
}
