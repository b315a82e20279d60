package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/llm"
)

// revisionMarker is the token the classifier call must contain for the
// feedback to be treated as actionable.
const revisionMarker = "REVISION_NEEDED"

// ReviewStage critiques the current draft and decides whether another
// revision pass is required. It makes two model calls: one to produce the
// feedback, and one to classify whether that feedback demands a revision.
// Empty ReviewFeedback in the returned state is the terminal signal.
type ReviewStage struct {
	LLM llm.Client
}

// Name implements Stage.
func (s *ReviewStage) Name() string { return "review" }

// Run implements Stage.
func (s *ReviewStage) Run(ctx context.Context, state State) (State, error) {
	logger := ctxlog.FromContext(ctx)

	reviewPrompt := fmt.Sprintf(
		"Review the following draft for the query: %s\n\nDraft content:\n%s\n\nReview criteria: accuracy of information, clarity and coherence, completeness, adherence to the original query, suggestions for improvement.\n\nProvide specific, constructive feedback.",
		state.Input, state.Draft,
	)

	feedback, err := s.LLM.Generate(ctx, []llm.Message{llm.User(reviewPrompt)})
	if err != nil {
		return state, fmt.Errorf("review feedback: %w", err)
	}

	needed, err := s.revisionNeeded(ctx, feedback)
	if err != nil {
		return state, fmt.Errorf("revision assessment: %w", err)
	}

	if needed {
		logger.Debug("Review requests a revision pass.")
		state.ReviewFeedback = []string{feedback}
	} else {
		logger.Debug("Review accepted the draft.")
		state.ReviewFeedback = []string{}
	}
	return state, nil
}

// revisionNeeded asks the model to classify the severity of its own feedback.
func (s *ReviewStage) revisionNeeded(ctx context.Context, feedback string) (bool, error) {
	prompt := fmt.Sprintf(
		"Assess the following review feedback and determine if significant revisions are needed.\n\nFeedback:\n%s\n\nRespond with REVISION_NEEDED or NO_REVISION based on the severity of the feedback.",
		feedback,
	)

	verdict, err := s.LLM.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		return false, err
	}
	return strings.Contains(verdict, revisionMarker), nil
}
