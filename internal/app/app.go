// Package app wires the service together: configuration, provider registry,
// stores, rate limiter, stage graph, executor, and the service façade. All
// components are constructed exactly once here and passed by reference —
// there is no process-global state.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/draftpipe/internal/config"
	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/events"
	"github.com/vk/draftpipe/internal/executor"
	"github.com/vk/draftpipe/internal/graph"
	"github.com/vk/draftpipe/internal/llm"
	"github.com/vk/draftpipe/internal/memstore"
	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/ratelimit"
	"github.com/vk/draftpipe/internal/registry"
	"github.com/vk/draftpipe/internal/retry"
	"github.com/vk/draftpipe/internal/search"
	"github.com/vk/draftpipe/internal/service"
	"github.com/vk/draftpipe/internal/taskstore"
	"github.com/vk/draftpipe/modules/mockllm"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	service *service.Service
	exec    *executor.Executor
	store   *memstore.Store

	closers []func()
}

// NewApp constructs a fully initialized App: it loads configuration,
// registers provider modules, builds the collaborators the configuration
// selects, and assembles the pipeline, executor, limiter, and service.
// Configuration failures are fatal startup errors and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if appConfig.Workers > 0 {
		model.Service.Workers = appConfig.Workers
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All provider modules registered.", "count", len(modules))

	llmClient, searcher, notifier, closers := buildProviders(ctx, reg, model)

	store := memstore.New()
	retryingStore := taskstore.NewRetrying(store)

	limiter := ratelimit.New(ratelimit.NewMemoryCounters(), model.Quotas)

	g := buildGraph(model, llmClient, searcher)

	exec := executor.New(g, retryingStore, notifier, executor.Config{
		Workers:     model.Service.Workers,
		SoftTimeout: model.Service.SoftTimeout,
		HardTimeout: model.Service.HardTimeout,
	})

	svc := service.New(limiter, exec, retryingStore)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		model:   model,
		service: svc,
		exec:    exec,
		store:   store,
		closers: closers,
	}
}

// Service returns the application's service façade. Primarily for testing.
func (a *App) Service() *service.Service {
	return a.service
}

// buildProviders constructs the configured collaborators. Absent blocks mean
// a mock LLM, no searcher, and no event sink.
func buildProviders(ctx context.Context, reg *registry.Registry, model *config.Model) (llm.Client, search.Searcher, events.Notifier, []func()) {
	logger := ctxlog.FromContext(ctx)
	var closers []func()

	var llmClient llm.Client = mockllm.Client{}
	if model.LLM != nil {
		built, err := reg.BuildLLM(ctx, model.LLM.Kind, model.LLM.Body)
		if err != nil {
			panic(fmt.Errorf("building llm provider: %w", err))
		}
		llmClient = built
	} else {
		logger.Warn("No llm provider configured, using the mock client.")
	}

	var searcher search.Searcher
	if model.Search != nil {
		built, err := reg.BuildSearcher(ctx, model.Search.Kind, model.Search.Body)
		if err != nil {
			panic(fmt.Errorf("building search provider: %w", err))
		}
		searcher = built
		if c, ok := built.(interface{ Close() error }); ok {
			closers = append(closers, func() { c.Close() })
		}
	}

	var notifier events.Notifier
	if model.Events != nil {
		built, err := reg.BuildNotifier(ctx, model.Events.Kind, model.Events.Body)
		if err != nil {
			panic(fmt.Errorf("building events provider: %w", err))
		}
		notifier = built
		if c, ok := built.(interface{ Close() }); ok {
			closers = append(closers, c.Close)
		}
	}

	return llmClient, searcher, notifier, closers
}

// buildGraph assembles the four stages and compiles them under the
// configured retry policy and revision cap.
func buildGraph(model *config.Model, llmClient llm.Client, searcher search.Searcher) *graph.Graph {
	retrieval := &pipeline.RetrievalStage{}
	if searcher != nil {
		retrieval.Searcher = searcherAdapter{searcher}
	}

	return graph.New(
		retrieval,
		&pipeline.ResearchStage{LLM: llmClient},
		&pipeline.DraftStage{LLM: llmClient, WritingStyle: model.Service.WritingStyle},
		&pipeline.ReviewStage{LLM: llmClient},
		graph.Options{
			MaxRevisions: model.Service.MaxRevisions,
			Retry: retry.Policy{
				MaxRetries:  model.Retry.MaxRetries,
				BackoffBase: model.Retry.BackoffBase,
			},
		},
	)
}

// searcherAdapter bridges search.Searcher to the pipeline's collaborator
// interface without pipeline importing the search package.
type searcherAdapter struct {
	inner search.Searcher
}

func (a searcherAdapter) HybridSearch(ctx context.Context, query string) ([]pipeline.Document, error) {
	return a.inner.HybridSearch(ctx, query)
}
