// Package events defines the optional task-lifecycle event sink. The
// executor publishes every status transition it persists; sinks are best
// effort and must never affect task outcome.
package events

import (
	"context"

	"github.com/vk/draftpipe/internal/taskstore"
)

// Notifier receives task lifecycle transitions after they have been written
// to the status store. Implementations must be safe for concurrent use.
type Notifier interface {
	Publish(ctx context.Context, taskID string, record taskstore.Record) error
}

// Nop is the default Notifier when no event sink is configured.
type Nop struct{}

// Publish implements Notifier.
func (Nop) Publish(context.Context, string, taskstore.Record) error { return nil }
