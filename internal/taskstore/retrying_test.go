package taskstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flakyStore fails a configurable number of calls before recovering.
type flakyStore struct {
	putFailures int
	getFailures int
	puts        int
	gets        int
	records     map[string]Record
}

func newFlakyStore() *flakyStore {
	return &flakyStore{records: map[string]Record{}}
}

func (s *flakyStore) Put(_ context.Context, taskID string, record Record) error {
	s.puts++
	if s.putFailures > 0 {
		s.putFailures--
		return errors.New("store unavailable")
	}
	s.records[taskID] = record
	return nil
}

func (s *flakyStore) Get(_ context.Context, taskID string) (Record, error) {
	s.gets++
	if s.getFailures > 0 {
		s.getFailures--
		return Record{}, errors.New("store unavailable")
	}
	record, ok := s.records[taskID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

func noSleep(context.Context, time.Duration) {}

func TestRetrying_PutRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	inner.putFailures = 2
	store := NewRetrying(inner, WithSleep(noSleep))

	err := store.Put(context.Background(), "t1", Record{Status: StatusQueued})
	require.NoError(t, err)
	require.Equal(t, 3, inner.puts)
	require.Equal(t, StatusQueued, inner.records["t1"].Status)
}

func TestRetrying_PutReportsExhaustion(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	inner.putFailures = 10
	store := NewRetrying(inner, WithSleep(noSleep))

	err := store.Put(context.Background(), "t1", Record{Status: StatusQueued})
	require.Error(t, err)
	require.Equal(t, 3, inner.puts, "stock policy makes exactly three attempts")
}

func TestRetrying_PutBackoffIsLinear(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	inner.putFailures = 10

	var sleeps []time.Duration
	store := NewRetrying(inner, WithSleep(func(_ context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
	}))

	_ = store.Put(context.Background(), "t1", Record{})
	require.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, sleeps)
}

func TestRetrying_GetMissPassesThroughImmediately(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	store := NewRetrying(inner, WithSleep(noSleep))

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, inner.gets, "a genuine miss is not retried")
}

func TestRetrying_GetOutageDegradesToNotFound(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	inner.getFailures = 10
	store := NewRetrying(inner, WithSleep(noSleep))

	_, err := store.Get(context.Background(), "t1")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 3, inner.gets)
}

func TestRetrying_GetRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	inner := newFlakyStore()
	inner.records["t1"] = Record{Status: StatusCompleted, Output: "ok"}
	inner.getFailures = 1
	store := NewRetrying(inner, WithSleep(noSleep))

	record, err := store.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, record.Status)
	require.Equal(t, "ok", record.Output)
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusFailed.Terminal())
	require.False(t, StatusQueued.Terminal())
	require.False(t, StatusProcessing.Terminal())
}
