package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/assistant"
	"github.com/RimvydasPet/tech-doc-assistant/internal/config"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/ratelimit"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/index"
	"github.com/RimvydasPet/tech-doc-assistant/internal/metrics"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
	"github.com/RimvydasPet/tech-doc-assistant/internal/tools"
)

// app bundles the assembled pipeline for one command invocation.
type app struct {
	Config    *config.Config
	Store     *store.Store
	Cache     *cache.Cache
	Limiter   *ratelimit.Limiter
	GenAI     *genai.Service
	Index     *index.Index
	Assistant *assistant.Assistant
}

func (a *app) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildApp assembles the full question-answering pipeline from configuration.
// The vector index is loaded from the store; run "docassist index build"
// first if it is empty.
func buildApp(ctx context.Context, cfg *config.Config, componentLogger *zap.Logger) (*app, error) {
	svc, err := genai.NewService(cfg.GenAI)
	if err != nil {
		return nil, fmt.Errorf("initialize model provider: %w", err)
	}

	db, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	idx := index.New(svc)
	if err := idx.Load(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	disabled, err := cfg.Cache.DisabledRegions()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	answerCache, err := cache.New(cache.Config{
		Disabled: disabled,
		OnLookup: func(region cache.Region, hit bool) {
			metrics.RecordCacheLookup(string(region), hit)
		},
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	limiter, err := ratelimit.New(cfg.Limits.MaxRequests, cfg.Limits.Window)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var pypi *tools.PyPIClient
	if cfg.Tools.Enabled {
		pypi = &tools.PyPIClient{
			Client:  &http.Client{Timeout: cfg.Tools.FetchTimeout},
			BaseURL: cfg.Tools.PyPIBaseURL,
		}
	}

	a := &assistant.Assistant{
		LLM:          svc,
		Index:        idx,
		Cache:        answerCache,
		Limiter:      limiter,
		Store:        db,
		PyPI:         pypi,
		Logger:       componentLogger,
		TopK:         cfg.RAG.TopK,
		ToolsEnabled: cfg.Tools.Enabled,
		OnUsage: func(usage driver.Usage) {
			metrics.RecordTokens("pipeline", usage.TotalTokens)
		},
		OnTool: metrics.RecordToolInvocation,
	}

	return &app{
		Config:    cfg,
		Store:     db,
		Cache:     answerCache,
		Limiter:   limiter,
		GenAI:     svc,
		Index:     idx,
		Assistant: a,
	}, nil
}
