package testutil

import (
	"context"
	"sync"

	"github.com/vk/draftpipe/internal/taskstore"
)

// Transition is one recorded Publish call.
type Transition struct {
	TaskID string
	Record taskstore.Record
}

// RecordingNotifier captures every published status transition.
type RecordingNotifier struct {
	Err error

	mu          sync.Mutex
	transitions []Transition
}

// Publish implements events.Notifier.
func (n *RecordingNotifier) Publish(_ context.Context, taskID string, record taskstore.Record) error {
	n.mu.Lock()
	n.transitions = append(n.transitions, Transition{TaskID: taskID, Record: record})
	n.mu.Unlock()
	return n.Err
}

// Transitions returns the recorded transitions in publish order.
func (n *RecordingNotifier) Transitions() []Transition {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Transition, len(n.transitions))
	copy(out, n.transitions)
	return out
}

// StatusSequence returns just the status of each transition, in order.
func (n *RecordingNotifier) StatusSequence() []taskstore.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]taskstore.Status, 0, len(n.transitions))
	for _, tr := range n.transitions {
		out = append(out, tr.Record.Status)
	}
	return out
}
