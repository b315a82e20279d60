package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/llm"
)

const researchSystemPrompt = "You are a research assistant. Synthesize the key findings for the user's query into a comprehensive, concise summary."

// ResearchStage synthesizes a research summary for the (possibly augmented)
// query using the language model.
type ResearchStage struct {
	LLM llm.Client
}

// Name implements Stage.
func (s *ResearchStage) Name() string { return "research" }

// Run implements Stage.
func (s *ResearchStage) Run(ctx context.Context, state State) (State, error) {
	query := state.EnhancedQuery
	if query == "" {
		query = state.Input
	}

	prompt := fmt.Sprintf("Synthesize research findings for the following query.\n\nQuery:\n%s\n\nProvide a comprehensive and concise summary of the key findings.", query)

	summary, err := s.LLM.Generate(ctx, []llm.Message{
		llm.System(researchSystemPrompt),
		llm.User(prompt),
	})
	if err != nil {
		return state, fmt.Errorf("research synthesis: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Research summary produced.", "length", len(summary))
	state.ResearchSummary = summary
	return state, nil
}
