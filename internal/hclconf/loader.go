// Package hclconf is the HCL implementation of the config.Loader interface.
//
// A service configuration file looks like:
//
//	service {
//	  workers       = 4
//	  max_revisions = 3
//	  writing_style = "professional"
//	  soft_timeout  = "4m"
//	  hard_timeout  = "5m"
//	}
//
//	retry {
//	  max_retries  = 3
//	  backoff_base = 2
//	}
//
//	tier "premium" {
//	  per_minute = 100
//	  per_day    = 10000
//	}
//
//	llm "openai" {
//	  model = "gpt-4-turbo"
//	}
//
// Provider blocks (llm, search, events) keep their bodies undecoded; the
// module registered under the block's label decodes its own settings.
package hclconf

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/draftpipe/internal/config"
	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/fsutil"
	"github.com/vk/draftpipe/internal/tier"
)

// Loader is the HCL-specific implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all possible top-level blocks from one file.
type fileRoot struct {
	Service *serviceBlock    `hcl:"service,block"`
	Retry   *retryBlock      `hcl:"retry,block"`
	Tiers   []*tierBlock     `hcl:"tier,block"`
	LLM     *providerBlock   `hcl:"llm,block"`
	Search  *providerBlock   `hcl:"search,block"`
	Events  *providerBlock   `hcl:"events,block"`
	Remain  hcl.Body         `hcl:",remain"`
}

type serviceBlock struct {
	Workers      *int    `hcl:"workers,optional"`
	MaxRevisions *int    `hcl:"max_revisions,optional"`
	WritingStyle *string `hcl:"writing_style,optional"`
	SoftTimeout  *string `hcl:"soft_timeout,optional"`
	HardTimeout  *string `hcl:"hard_timeout,optional"`
}

type retryBlock struct {
	MaxRetries  *int     `hcl:"max_retries,optional"`
	BackoffBase *float64 `hcl:"backoff_base,optional"`
}

type tierBlock struct {
	Name      string `hcl:"name,label"`
	PerMinute int    `hcl:"per_minute"`
	PerDay    int    `hcl:"per_day"`
}

type providerBlock struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load implements config.Loader. Paths may be files or directories; every
// .hcl file found is parsed and merged over the defaults.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default()

	var files []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("discovering config files under %s: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		if err := mergeRoot(model, &root); err != nil {
			return nil, fmt.Errorf("applying %s: %w", file, err)
		}
	}

	logger.Debug("Configuration loaded.",
		"workers", model.Service.Workers,
		"maxRevisions", model.Service.MaxRevisions,
		"llm", providerKind(model.LLM),
		"search", providerKind(model.Search),
		"events", providerKind(model.Events))
	return model, nil
}

// mergeRoot folds one file's blocks into the model.
func mergeRoot(model *config.Model, root *fileRoot) error {
	if svc := root.Service; svc != nil {
		if svc.Workers != nil {
			model.Service.Workers = *svc.Workers
		}
		if svc.MaxRevisions != nil {
			model.Service.MaxRevisions = *svc.MaxRevisions
		}
		if svc.WritingStyle != nil {
			model.Service.WritingStyle = *svc.WritingStyle
		}
		if svc.SoftTimeout != nil {
			d, err := time.ParseDuration(*svc.SoftTimeout)
			if err != nil {
				return fmt.Errorf("invalid soft_timeout: %w", err)
			}
			model.Service.SoftTimeout = d
		}
		if svc.HardTimeout != nil {
			d, err := time.ParseDuration(*svc.HardTimeout)
			if err != nil {
				return fmt.Errorf("invalid hard_timeout: %w", err)
			}
			model.Service.HardTimeout = d
		}
	}

	if rt := root.Retry; rt != nil {
		if rt.MaxRetries != nil {
			model.Retry.MaxRetries = *rt.MaxRetries
		}
		if rt.BackoffBase != nil {
			model.Retry.BackoffBase = *rt.BackoffBase
		}
	}

	for _, tb := range root.Tiers {
		t := tier.Parse(tb.Name)
		if t.String() != tb.Name {
			return fmt.Errorf("unknown tier %q", tb.Name)
		}
		model.Quotas[t] = tier.Quota{PerMinute: tb.PerMinute, PerDay: tb.PerDay}
	}

	if root.LLM != nil {
		model.LLM = &config.ProviderBlock{Kind: root.LLM.Kind, Body: root.LLM.Body}
	}
	if root.Search != nil {
		model.Search = &config.ProviderBlock{Kind: root.Search.Kind, Body: root.Search.Body}
	}
	if root.Events != nil {
		model.Events = &config.ProviderBlock{Kind: root.Events.Kind, Body: root.Events.Body}
	}
	return nil
}

func providerKind(p *config.ProviderBlock) string {
	if p == nil {
		return "none"
	}
	return p.Kind
}
