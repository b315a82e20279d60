// Package pipeline holds the shared state record and the four concrete
// stages of the drafting pipeline: retrieval, research, draft, and review.
// Each stage is a pure unit of work over the State record; sequencing and
// the revision loop live in internal/graph.
package pipeline

import "context"

// Stage is one unit of pipeline work. Run receives the current state by
// value and returns the updated state. A returned error is considered
// transient; the caller's retry policy decides how often to retry before
// degrading to a fallback state.
type Stage interface {
	Name() string
	Run(ctx context.Context, state State) (State, error)
}
