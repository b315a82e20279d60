// Package config holds the format-agnostic service configuration model and
// the Loader interface that format-specific loaders (HCL today) implement.
package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/draftpipe/internal/tier"
)

// Model is the unified representation of the service configuration.
type Model struct {
	Service ServiceSettings
	Retry   RetrySettings
	Quotas  map[tier.Tier]tier.Quota

	// LLM, Search, and Events are optional provider selections. A nil block
	// means the concern is disabled (search, events) or defaulted (llm).
	LLM    *ProviderBlock
	Search *ProviderBlock
	Events *ProviderBlock
}

// ServiceSettings tunes the executor and pipeline.
type ServiceSettings struct {
	Workers      int
	MaxRevisions int
	WritingStyle string
	SoftTimeout  time.Duration
	HardTimeout  time.Duration
}

// RetrySettings tunes the per-stage retry policy.
type RetrySettings struct {
	MaxRetries  int
	BackoffBase float64
}

// ProviderBlock is an undecoded provider selection: the kind names a factory
// in the registry, and the body is decoded by the chosen module itself so
// each module owns its own settings schema.
type ProviderBlock struct {
	Kind string
	Body hcl.Body
}

// Default returns the stock configuration used when no config file is given.
func Default() *Model {
	return &Model{
		Service: ServiceSettings{
			Workers:      4,
			MaxRevisions: 3,
			WritingStyle: "professional",
			SoftTimeout:  4 * time.Minute,
			HardTimeout:  5 * time.Minute,
		},
		Retry: RetrySettings{
			MaxRetries:  3,
			BackoffBase: 2,
		},
		Quotas: tier.DefaultQuotas(),
	}
}
