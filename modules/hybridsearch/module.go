// Package hybridsearch provides the HTTP-backed document retrieval
// collaborator. It POSTs the query to a hybrid-search endpoint and maps the
// response into pipeline documents.
package hybridsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"resty.dev/v3"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/registry"
	"github.com/vk/draftpipe/internal/search"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Settings is the schema of the `search "http" { ... }` provider block.
type Settings struct {
	Endpoint string `hcl:"endpoint"`

	// APIKeyEnv names the environment variable holding the bearer token;
	// empty means unauthenticated.
	APIKeyEnv *string `hcl:"api_key_env,optional"`

	// MaxDocuments caps how many documents a search returns. Default 5.
	MaxDocuments *int `hcl:"max_documents,optional"`

	// Timeout bounds one search round-trip. Default 10s.
	Timeout *string `hcl:"timeout,optional"`
}

// searchRequest is the wire shape sent to the endpoint.
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// searchResponse is the wire shape returned by the endpoint.
type searchResponse struct {
	Results []struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	} `json:"results"`
}

// Searcher implements search.Searcher over HTTP.
type Searcher struct {
	client   *resty.Client
	endpoint string
	maxDocs  int
}

// NewSearcher builds a Searcher from decoded settings.
func NewSearcher(settings Settings) (*Searcher, error) {
	if settings.Endpoint == "" {
		return nil, errors.New("hybrid search: endpoint is required")
	}

	timeout := 10 * time.Second
	if settings.Timeout != nil {
		d, err := time.ParseDuration(*settings.Timeout)
		if err != nil {
			return nil, fmt.Errorf("hybrid search: invalid timeout: %w", err)
		}
		timeout = d
	}

	maxDocs := 5
	if settings.MaxDocuments != nil && *settings.MaxDocuments > 0 {
		maxDocs = *settings.MaxDocuments
	}

	client := resty.New().SetTimeout(timeout)
	if settings.APIKeyEnv != nil {
		if token := os.Getenv(*settings.APIKeyEnv); token != "" {
			client.SetAuthToken(token)
		}
	}

	return &Searcher{
		client:   client,
		endpoint: settings.Endpoint,
		maxDocs:  maxDocs,
	}, nil
}

// HybridSearch implements search.Searcher.
func (s *Searcher) HybridSearch(ctx context.Context, query string) ([]pipeline.Document, error) {
	var out searchResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query, TopK: s.maxDocs}).
		SetResult(&out).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("hybrid search request: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("hybrid search endpoint returned %s", res.Status())
	}

	docs := make([]pipeline.Document, 0, len(out.Results))
	for _, r := range out.Results {
		docs = append(docs, pipeline.Document{Content: r.Content, Metadata: r.Metadata})
	}
	ctxlog.FromContext(ctx).Debug("Hybrid search returned.", "documents", len(docs))
	return docs, nil
}

// Close releases the underlying HTTP client resources.
func (s *Searcher) Close() error {
	return s.client.Close()
}

// Register registers the provider factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSearcher("http", func(ctx context.Context, body hcl.Body) (search.Searcher, error) {
		var settings Settings
		if diags := gohcl.DecodeBody(body, nil, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("decoding hybrid search settings: %w", diags)
		}
		return NewSearcher(settings)
	})
}
