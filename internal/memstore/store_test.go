package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/draftpipe/internal/taskstore"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	store := New()
	defer store.Close()
	ctx := context.Background()

	want := taskstore.Record{Status: taskstore.StatusProcessing, Stage: "processing_workflow"}
	require.NoError(t, store.Put(ctx, "t1", want))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStore_MissingTask(t *testing.T) {
	t.Parallel()

	store := New()
	defer store.Close()

	_, err := store.Get(context.Background(), "never-submitted")
	require.ErrorIs(t, err, taskstore.ErrNotFound)
}

func TestStore_RecordExpiresAfterRetention(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := New(WithClock(func() time.Time { return now }))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "t1", taskstore.Record{Status: taskstore.StatusCompleted}))

	now = now.Add(taskstore.RetentionWindow - time.Second)
	_, err := store.Get(ctx, "t1")
	require.NoError(t, err, "record is visible inside the retention window")

	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "t1")
	require.ErrorIs(t, err, taskstore.ErrNotFound)
}

func TestStore_PutRearmsExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := New(WithClock(func() time.Time { return now }), WithTTL(time.Hour))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "t1", taskstore.Record{Status: taskstore.StatusQueued}))

	now = now.Add(45 * time.Minute)
	require.NoError(t, store.Put(ctx, "t1", taskstore.Record{Status: taskstore.StatusProcessing}))

	// The original deadline has passed, but the second write re-armed it.
	now = now.Add(30 * time.Minute)
	record, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, taskstore.StatusProcessing, record.Status)
}

func TestStore_TerminalRecordStaysReadable(t *testing.T) {
	t.Parallel()

	store := New()
	defer store.Close()
	ctx := context.Background()

	want := taskstore.Record{Status: taskstore.StatusCompleted, Output: "final"}
	require.NoError(t, store.Put(ctx, "t1", want))

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "t1")
		require.NoError(t, err)
		require.Equal(t, want, got, "repeated reads of a terminal record are idempotent")
	}
}
