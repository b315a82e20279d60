package taskstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no record exists for the task, either
// because it never existed or because its retention window elapsed.
var ErrNotFound = errors.New("task not found")

// Store is a durable key-value record of task lifecycle with per-key expiry.
// Implementations must apply RetentionWindow on every Put so records expire
// on their own; callers never delete explicitly.
type Store interface {
	Put(ctx context.Context, taskID string, record Record) error
	Get(ctx context.Context, taskID string) (Record, error)
}
