// Package registry holds the provider factories for the pluggable
// collaborators: language models, document searchers, and status event
// sinks. Modules register their factories at startup; configuration selects
// one of each by kind and the factory decodes its own settings block.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/draftpipe/internal/events"
	"github.com/vk/draftpipe/internal/llm"
	"github.com/vk/draftpipe/internal/search"
)

// Module is the interface all provider modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// LLMFactory builds a language model client from its provider block body.
type LLMFactory func(ctx context.Context, body hcl.Body) (llm.Client, error)

// SearchFactory builds a document searcher from its provider block body.
type SearchFactory func(ctx context.Context, body hcl.Body) (search.Searcher, error)

// NotifierFactory builds a status event sink from its provider block body.
type NotifierFactory func(ctx context.Context, body hcl.Body) (events.Notifier, error)

// Registry holds all registered provider factories for a single application
// instance.
type Registry struct {
	llms      map[string]LLMFactory
	searchers map[string]SearchFactory
	notifiers map[string]NotifierFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		llms:      make(map[string]LLMFactory),
		searchers: make(map[string]SearchFactory),
		notifiers: make(map[string]NotifierFactory),
	}
}

// RegisterLLM registers a language model factory under kind. Duplicate
// registration is a programmer error.
func (r *Registry) RegisterLLM(kind string, factory LLMFactory) {
	if _, exists := r.llms[kind]; exists {
		panic(fmt.Sprintf("llm provider %q already registered", kind))
	}
	slog.Debug("Registering LLM provider.", "kind", kind)
	r.llms[kind] = factory
}

// RegisterSearcher registers a document searcher factory under kind.
func (r *Registry) RegisterSearcher(kind string, factory SearchFactory) {
	if _, exists := r.searchers[kind]; exists {
		panic(fmt.Sprintf("search provider %q already registered", kind))
	}
	slog.Debug("Registering search provider.", "kind", kind)
	r.searchers[kind] = factory
}

// RegisterNotifier registers a status event sink factory under kind.
func (r *Registry) RegisterNotifier(kind string, factory NotifierFactory) {
	if _, exists := r.notifiers[kind]; exists {
		panic(fmt.Sprintf("events provider %q already registered", kind))
	}
	slog.Debug("Registering events provider.", "kind", kind)
	r.notifiers[kind] = factory
}

// BuildLLM constructs the language model client registered under kind.
func (r *Registry) BuildLLM(ctx context.Context, kind string, body hcl.Body) (llm.Client, error) {
	factory, ok := r.llms[kind]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (registered: %v)", kind, keys(r.llms))
	}
	return factory(ctx, body)
}

// BuildSearcher constructs the searcher registered under kind.
func (r *Registry) BuildSearcher(ctx context.Context, kind string, body hcl.Body) (search.Searcher, error) {
	factory, ok := r.searchers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown search provider %q (registered: %v)", kind, keys(r.searchers))
	}
	return factory(ctx, body)
}

// BuildNotifier constructs the event sink registered under kind.
func (r *Registry) BuildNotifier(ctx context.Context, kind string, body hcl.Body) (events.Notifier, error) {
	factory, ok := r.notifiers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown events provider %q (registered: %v)", kind, keys(r.notifiers))
	}
	return factory(ctx, body)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
