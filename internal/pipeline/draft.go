package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/llm"
)

// DefaultWritingStyle is used when no style is configured.
const DefaultWritingStyle = "professional"

// DraftStage turns the research summary into a structured draft. On revision
// passes it rewrites the previous draft according to the pending review
// feedback, then clears the feedback so the next review judges a fresh draft.
type DraftStage struct {
	LLM llm.Client

	// WritingStyle steers the tone of the draft; empty means
	// DefaultWritingStyle.
	WritingStyle string
}

// Name implements Stage.
func (s *DraftStage) Name() string { return "draft" }

// Run implements Stage.
func (s *DraftStage) Run(ctx context.Context, state State) (State, error) {
	style := s.WritingStyle
	if style == "" {
		style = DefaultWritingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Writing style: %s\nInput query: %s\nResearch summary:\n%s\n\n", style, state.Input, state.ResearchSummary)

	if len(state.ReviewFeedback) > 0 {
		fmt.Fprintf(&b, "Previous draft:\n%s\n\nReviewer feedback to address:\n", state.Draft)
		for _, fb := range state.ReviewFeedback {
			fmt.Fprintf(&b, "- %s\n", fb)
		}
		b.WriteString("\nRevise the draft to fully address the feedback while keeping the specified writing style.\n")
	} else {
		b.WriteString("Create a well-structured draft. Ensure clarity and coherence, incorporate the key findings from the research, and maintain the specified writing style.\n")
	}

	draft, err := s.LLM.Generate(ctx, []llm.Message{llm.User(b.String())})
	if err != nil {
		return state, fmt.Errorf("draft generation: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Draft produced.", "length", len(draft), "revision", len(state.ReviewFeedback) > 0)
	state.Draft = draft
	state.ReviewFeedback = nil
	return state, nil
}
