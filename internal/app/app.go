// Package app wires the pipeline together: backends, retrieval, drafting,
// research, compliance and streaming, constructed once at startup.
package app

import (
	"context"
	"fmt"

	"github.com/koopa0/autodraft/internal/answer"
	"github.com/koopa0/autodraft/internal/catalog"
	"github.com/koopa0/autodraft/internal/chunk"
	"github.com/koopa0/autodraft/internal/compliance"
	"github.com/koopa0/autodraft/internal/config"
	"github.com/koopa0/autodraft/internal/draft"
	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/research"
	"github.com/koopa0/autodraft/internal/retrieval"
	"github.com/koopa0/autodraft/internal/stream"
)

// Backends bundles the external AI services the pipeline consumes. Produced
// by NewBackends in production; tests inject fakes.
type Backends struct {
	Generator genai.GenerationClient
	Embedder  genai.EmbeddingClient
	Search    genai.SearchTool // nil when not configured
}

// NewBackends constructs the production backends from configuration. Missing
// search credentials downgrade the search tool to nil rather than failing
// startup.
func NewBackends(ctx context.Context, cfg *config.Config, logger log.Logger) (Backends, error) {
	client, err := genai.NewGoogleClient(ctx, genai.GoogleConfig{
		ModelName:      cfg.ModelName,
		EmbedderModel:  cfg.EmbedderModel,
		Temperature:    cfg.Temperature,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)
	if err != nil {
		return Backends{}, fmt.Errorf("initializing google ai client: %w", err)
	}

	b := Backends{Generator: client, Embedder: client}
	if cfg.SearchConfigured() {
		search, err := genai.NewGoogleSearch(ctx, cfg.GoogleAPIKey, cfg.GoogleCSEID, logger)
		if err != nil {
			return Backends{}, fmt.Errorf("initializing google search: %w", err)
		}
		b.Search = search
	} else {
		logger.Info("web search not configured, research runs degraded")
	}
	return b, nil
}

// App holds the wired pipeline.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Registry *retrieval.Registry
	Answerer *answer.Answerer
	Engine   *extract.Engine
	Agent    *research.Agent
	Writer   *draft.Writer
	Checker  *compliance.Checker
	Catalog  *catalog.Catalog
	Stream   *stream.Controller
}

// New builds an App from configuration and backends.
func New(cfg *config.Config, backends Backends, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	splitter, err := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	registry := retrieval.New(backends.Embedder, splitter, logger)
	if cfg.DataDir != "" {
		registry, err = retrieval.NewPersistent(cfg.DataDir, backends.Embedder, splitter, logger)
		if err != nil {
			return nil, err
		}
	}
	engine := extract.NewEngine(backends.Generator, logger)

	agent, err := research.New(engine, backends.Search, cfg.MaxToolCalls, logger)
	if err != nil {
		return nil, err
	}
	writer, err := draft.NewWriter(engine, backends.Generator, agent, logger)
	if err != nil {
		return nil, err
	}
	checker, err := compliance.NewChecker(engine, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Answerer: answer.New(registry, backends.Generator, cfg.RetrievalTopK, logger),
		Engine:   engine,
		Agent:    agent,
		Writer:   writer,
		Checker:  checker,
		Catalog:  catalog.New(),
		Stream:   stream.New(backends.Generator, registry, cfg.RetrievalTopK, logger),
	}, nil
}
