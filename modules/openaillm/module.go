// Package openaillm provides the production llm.Client backed by the
// official openai-go SDK (chat completions).
package openaillm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vk/draftpipe/internal/llm"
	"github.com/vk/draftpipe/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Settings is the schema of the `llm "openai" { ... }` provider block.
type Settings struct {
	Model string `hcl:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults to OPENAI_API_KEY. The key itself never appears in config
	// files.
	APIKeyEnv *string `hcl:"api_key_env,optional"`

	// BaseURL overrides the API endpoint, for proxies and compatible
	// backends.
	BaseURL *string `hcl:"base_url,optional"`
}

// Client implements llm.Client over openai chat completions.
type Client struct {
	model  string
	client openai.Client
}

// NewClient builds a Client from decoded settings.
func NewClient(settings Settings) (*Client, error) {
	if settings.Model == "" {
		return nil, errors.New("openai llm: model is required")
	}

	keyEnv := "OPENAI_API_KEY"
	if settings.APIKeyEnv != nil {
		keyEnv = *settings.APIKeyEnv
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("openai llm: api key missing; set %s", keyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if settings.BaseURL != nil && *settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(*settings.BaseURL))
	}

	return &Client{
		model:  settings.Model,
		client: openai.NewClient(opts...),
	}, nil
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		case "assistant":
			params = append(params, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: params,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai llm: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Register registers the provider factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLLM("openai", func(ctx context.Context, body hcl.Body) (llm.Client, error) {
		var settings Settings
		if diags := gohcl.DecodeBody(body, nil, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("decoding openai llm settings: %w", diags)
		}
		return NewClient(settings)
	})
}
