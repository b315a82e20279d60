// Package taskstore defines the durable task lifecycle record, the Store
// interface it is persisted through, and the retrying decorator that shields
// callers from transient store outages.
package taskstore

import "time"

// Status is the task lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the persisted lifecycle of one task. It is written only by the
// worker that owns the task and is immutable once Status is terminal.
type Record struct {
	Status Status `json:"status"`

	// Stage is a free-form label of the current pipeline position, for
	// observability only.
	Stage string `json:"stage,omitempty"`

	// Output is the final pipeline output, set on completion.
	Output string `json:"output,omitempty"`

	// ResearchSummary is carried alongside the output on completion.
	ResearchSummary string `json:"research_result,omitempty"`

	// Error is the bounded diagnostic message for failed tasks.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RetentionWindow is how long records survive in the store after their last
// write, regardless of terminal state.
const RetentionWindow = 24 * time.Hour
