package pipeline

// Document is a single retrieved document with free-form metadata.
type Document struct {
	Content  string
	Metadata map[string]any
}

// State is the shared record threaded through every pipeline stage. Stages
// receive it by value and return an updated copy, so no stage can observe
// another stage's half-finished mutation.
type State struct {
	// Input is the caller's original query. Immutable after creation.
	Input string

	// RetrievedDocuments is set once by the retrieval stage. Nil means
	// retrieval has not run; an empty slice means it ran and found nothing.
	RetrievedDocuments []Document

	// EnhancedQuery is the retrieval-augmented prompt built from Input and
	// RetrievedDocuments. Falls back to the raw Input when no documents are
	// available.
	EnhancedQuery string

	// ResearchSummary is the synthesized research produced for the query.
	ResearchSummary string

	// Draft is the current draft text. Overwritten on each revision pass.
	Draft string

	// ReviewFeedback holds reviewer comments for the next revision pass.
	// An empty slice is the terminal signal.
	ReviewFeedback []string

	// FinalOutput is set by the graph exactly once, when it reaches its
	// terminal state.
	FinalOutput string

	// Revisions counts completed review-to-draft loops.
	Revisions int

	// Err and Fallback describe the degraded path: a stage whose retries
	// were exhausted returns the state it was given with Err set to the last
	// failure message and Fallback true.
	Err      string
	Fallback bool
}

// Terminal reports whether the graph has produced its final output.
func (s State) Terminal() bool {
	return s.FinalOutput != ""
}
