// Package search defines the document retrieval collaborator consumed by the
// pipeline's retrieval stage.
package search

import (
	"context"

	"github.com/vk/draftpipe/internal/pipeline"
)

// Searcher performs a hybrid (keyword + semantic) search and returns an
// ordered sequence of documents. An empty result is not an error. Retrieval
// failures must not abort the pipeline; the retrieval stage substitutes the
// raw query when the searcher fails or is absent.
type Searcher interface {
	HybridSearch(ctx context.Context, query string) ([]pipeline.Document, error)
}
