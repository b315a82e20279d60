// Package mockllm provides a deterministic llm.Client for local runs and
// demos. It never calls out and always accepts the first draft.
package mockllm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/draftpipe/internal/llm"
	"github.com/vk/draftpipe/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Client echoes canned content derived from the prompt.
type Client struct{}

// Generate implements llm.Client. Classifier prompts get NO_REVISION so
// pipelines terminate after one review pass; everything else gets a short
// canned body quoting the prompt.
func (Client) Generate(_ context.Context, messages []llm.Message) (string, error) {
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}

	if strings.Contains(last, "REVISION_NEEDED or NO_REVISION") {
		return "NO_REVISION", nil
	}

	var b strings.Builder
	b.WriteString("[mock] generated content\n\n")
	fmt.Fprintf(&b, "prompt was:\n%s\n", last)
	return b.String(), nil
}

// Register registers the provider factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLLM("mock", func(context.Context, hcl.Body) (llm.Client, error) {
		return Client{}, nil
	})
}
