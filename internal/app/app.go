// Package app wires configuration into a ready standardizer for the
// binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/config"
	"github.com/agenthands/modelstd/internal/core"
	"github.com/agenthands/modelstd/internal/core/review"
	"github.com/agenthands/modelstd/internal/driver"
	"github.com/agenthands/modelstd/internal/llm"
	"github.com/agenthands/modelstd/internal/metrics"
)

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *biochem.Memory
	Registry     *prometheus.Registry
	Standardizer *core.Standardizer
	// Advisor is nil unless review is enabled.
	Advisor *review.Advisor

	closers []io.Closer
}

// New loads the reference database and builds the standardizer and, when
// enabled, the review advisor.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := LoadBiochem(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	compounds, reactions := db.Size()
	logger.Info("reference database loaded",
		zap.String("source", cfg.Biochem.Source),
		zap.Int("compounds", compounds),
		zap.Int("reactions", reactions))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := core.Options{
		Workers:         cfg.Standardizer.Workers,
		MaxCombinations: cfg.Standardizer.MaxCandidateCombinations,
		Logger:          logger,
		Metrics:         metrics.New(reg),
	}
	if cfg.Standardizer.MergeCompartments {
		opts.Compartments = cfg.Standardizer.Compartments
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Registry:     reg,
		Standardizer: core.NewStandardizer(db, opts),
	}

	if cfg.Review.Enabled {
		client, err := llm.NewClient(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		if closer, ok := client.(io.Closer); ok {
			a.closers = append(a.closers, closer)
		}
		advisor := review.NewAdvisor(client, db, logger)
		if cfg.Review.MaxBatch > 0 {
			advisor.MaxBatch = cfg.Review.MaxBatch
		}
		if cfg.Review.Prompts.Advise != "" {
			advisor.Prompt = cfg.Review.Prompts.Advise
		}
		if cfg.Review.Rerank && client != nil {
			advisor.Reranker = llm.NewSimpleLLMReranker(client)
		}
		a.Advisor = advisor
		logger.Info("review advisor enabled", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))
	}
	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// LoadBiochem reads the reference database from the configured source.
func LoadBiochem(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*biochem.Memory, error) {
	switch cfg.Biochem.Source {
	case "json":
		return biochem.LoadJSON(cfg.Biochem.Path)
	case "memgraph":
		d, err := Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer d.Close(ctx)
		return biochem.LoadGraph(ctx, d, cfg.Biochem.Database)
	}
	return nil, fmt.Errorf("unknown biochem source %q", cfg.Biochem.Source)
}

// Connect opens the configured Memgraph instance and ensures its indices.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*driver.MemgraphDriver, error) {
	d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to memgraph: %w", err)
	}
	if err := d.BuildIndices(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	return d, nil
}
