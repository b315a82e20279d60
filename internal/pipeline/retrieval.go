package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/draftpipe/internal/ctxlog"
)

// DocumentSearcher is the retrieval collaborator as seen by this package.
// It matches search.Searcher; redeclared here to keep the dependency arrow
// pointing outward.
type DocumentSearcher interface {
	HybridSearch(ctx context.Context, query string) ([]Document, error)
}

// RetrievalStage fetches documents relevant to the input query and builds
// the retrieval-augmented query used by the research stage. A nil searcher
// or a failed search never aborts the run; the stage degrades to the raw
// query with an empty document set.
type RetrievalStage struct {
	Searcher DocumentSearcher
}

// Name implements Stage.
func (s *RetrievalStage) Name() string { return "retrieval" }

// Run implements Stage.
func (s *RetrievalStage) Run(ctx context.Context, state State) (State, error) {
	logger := ctxlog.FromContext(ctx)

	if s.Searcher == nil {
		logger.Debug("No searcher configured, passing raw query through.")
		state.RetrievedDocuments = []Document{}
		state.EnhancedQuery = state.Input
		return state, nil
	}

	docs, err := s.Searcher.HybridSearch(ctx, state.Input)
	if err != nil {
		// Retrieval failure is non-fatal: substitute the raw query.
		logger.Warn("Hybrid search failed, continuing without documents.", "error", err)
		state.RetrievedDocuments = []Document{}
		state.EnhancedQuery = state.Input
		return state, nil
	}

	state.RetrievedDocuments = docs
	if len(docs) == 0 {
		state.EnhancedQuery = state.Input
		return state, nil
	}

	state.EnhancedQuery = augmentQuery(state.Input, docs)
	logger.Debug("Query augmented with retrieved documents.", "documents", len(docs))
	return state, nil
}

// augmentQuery builds the retrieval-augmented prompt from the raw query and
// the document contents.
func augmentQuery(query string, docs []Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer the following query using the provided context.\n\nQuery: %s\n\nContext documents:\n", query)
	for i, doc := range docs {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, doc.Content)
	}
	return b.String()
}
