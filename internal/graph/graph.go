// Package graph drives the drafting pipeline's stage state machine:
//
//	Retrieval → Research → Draft → Review → {Draft | Terminal}
//
// The single conditional edge sits at Review: non-empty feedback loops back
// to Draft, empty feedback transitions to Terminal. Every stage invocation
// is wrapped by the retry policy; a stage whose retries are exhausted
// returns a fallback state, which the graph treats as the terminal signal to
// guarantee the run always converges.
package graph

import (
	"context"
	"errors"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/retry"
)

// DefaultMaxRevisions bounds the review→draft loop. The upstream design left
// the loop uncapped; the cap forces Terminal after this many revision passes.
const DefaultMaxRevisions = 3

// ErrEmptyInput rejects runs with nothing to process.
var ErrEmptyInput = errors.New("pipeline input is empty")

// Graph is the compiled stage graph for one pipeline configuration. It is
// immutable after construction and safe for concurrent runs.
type Graph struct {
	retrieval func(context.Context, pipeline.State) pipeline.State
	research  func(context.Context, pipeline.State) pipeline.State
	draft     func(context.Context, pipeline.State) pipeline.State
	review    func(context.Context, pipeline.State) pipeline.State

	maxRevisions int
}

// Options configures graph construction.
type Options struct {
	// MaxRevisions caps the review→draft loop; zero or negative means
	// DefaultMaxRevisions.
	MaxRevisions int

	// Retry is the per-stage retry policy. A zero MaxRetries means
	// retry.DefaultPolicy.
	Retry retry.Policy
}

// New compiles the four stages into a runnable graph, wrapping each stage
// with the retry policy.
func New(retrieval, research, draft, review pipeline.Stage, opts Options) *Graph {
	if opts.MaxRevisions <= 0 {
		opts.MaxRevisions = DefaultMaxRevisions
	}
	if opts.Retry.MaxRetries <= 0 {
		sleep := opts.Retry.Sleep
		opts.Retry = retry.DefaultPolicy()
		opts.Retry.Sleep = sleep
	}

	wrap := func(s pipeline.Stage) func(context.Context, pipeline.State) pipeline.State {
		return opts.Retry.Wrap(s.Name(), s.Run)
	}

	return &Graph{
		retrieval:    wrap(retrieval),
		research:     wrap(research),
		draft:        wrap(draft),
		review:       wrap(review),
		maxRevisions: opts.MaxRevisions,
	}
}

// Run executes the graph from its entry state to Terminal and returns the
// final state. The only error it can return is ErrEmptyInput or a context
// error; stage failures surface as a fallback terminal state instead.
func (g *Graph) Run(ctx context.Context, state pipeline.State) (pipeline.State, error) {
	logger := ctxlog.FromContext(ctx)

	if state.Input == "" {
		return state, ErrEmptyInput
	}

	for _, step := range []struct {
		name string
		fn   func(context.Context, pipeline.State) pipeline.State
	}{
		{"retrieval", g.retrieval},
		{"research", g.research},
		{"draft", g.draft},
	} {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		logger.Debug("Entering stage.", "stage", step.name)
		state = step.fn(ctx, state)
		if state.Fallback {
			// Exhausted retries degrade straight to Terminal.
			return g.finalize(ctx, state), nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		logger.Debug("Entering stage.", "stage", "review", "revisions", state.Revisions)
		state = g.review(ctx, state)
		if state.Fallback {
			return g.finalize(ctx, state), nil
		}

		if len(state.ReviewFeedback) == 0 {
			return g.finalize(ctx, state), nil
		}

		if state.Revisions >= g.maxRevisions {
			logger.Warn("Revision cap reached, forcing terminal state.", "maxRevisions", g.maxRevisions)
			state.ReviewFeedback = nil
			return g.finalize(ctx, state), nil
		}
		state.Revisions++

		logger.Debug("Entering stage.", "stage", "draft", "revisions", state.Revisions)
		state = g.draft(ctx, state)
		if state.Fallback {
			return g.finalize(ctx, state), nil
		}
	}
}

// finalize transitions the state to Terminal: the final output is whatever
// draft the pipeline last produced.
func (g *Graph) finalize(ctx context.Context, state pipeline.State) pipeline.State {
	state.FinalOutput = state.Draft
	if state.Fallback {
		ctxlog.FromContext(ctx).Warn("Run finished in fallback state.", "error", state.Err)
	} else {
		ctxlog.FromContext(ctx).Debug("Run reached terminal state.")
	}
	return state
}
