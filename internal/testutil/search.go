package testutil

import (
	"context"
	"sync"

	"github.com/vk/draftpipe/internal/pipeline"
)

// FakeSearcher returns canned documents, or a fixed error when Err is set.
type FakeSearcher struct {
	Documents []pipeline.Document
	Err       error

	mu      sync.Mutex
	queries []string
}

// HybridSearch records the query and returns the canned result.
func (f *FakeSearcher) HybridSearch(_ context.Context, query string) ([]pipeline.Document, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return f.Documents, nil
}

// Queries returns every query seen so far.
func (f *FakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}
