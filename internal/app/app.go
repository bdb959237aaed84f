// Package app wires configuration into a ready crawl service. The server and
// the CLI share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vnknews/vnknews/internal/config"
	"github.com/vnknews/vnknews/internal/database"
	"github.com/vnknews/vnknews/internal/enrichment"
	"github.com/vnknews/vnknews/internal/fetch"
	"github.com/vnknews/vnknews/internal/ingestion"
	"github.com/vnknews/vnknews/internal/logging"
	"github.com/vnknews/vnknews/internal/metrics"
	"github.com/vnknews/vnknews/internal/sources"
	"github.com/vnknews/vnknews/migrations"
)

// Options select optional behaviour of Build.
type Options struct {
	// WatchSelectors reapplies the selectors file whenever it changes.
	WatchSelectors bool
	// SkipMigrations leaves the schema alone even when the config asks for
	// migrations on start.
	SkipMigrations bool
}

// App holds the wired components.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *sql.DB // nil on the in-memory store
	Store    ingestion.Store
	Registry *sources.Registry
	Pipeline *ingestion.Pipeline
	Service  *ingestion.Service
	HTTP     *metrics.HTTPCollector
	Crawl    *metrics.CrawlCollector
}

// Build connects storage, builds adapters and the enrichment stage, and
// returns the assembled service. Close releases the database.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	httpCollector, err := metrics.NewHTTPCollector()
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	crawlCollector, err := metrics.NewCrawlCollector(httpCollector.Registry())
	if err != nil {
		return nil, fmt.Errorf("init crawl metrics: %w", err)
	}
	a.HTTP, a.Crawl = httpCollector, crawlCollector

	if err := a.openStore(ctx, opts); err != nil {
		return nil, err
	}

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:    cfg.Crawl.FetchTimeout,
		MaxRetries: cfg.Crawl.FetchRetries,
		RetryDelay: cfg.Crawl.RetryDelay,
	}, logging.Component(logger, "fetch"), fetch.WithObserver(crawlCollector))

	registry, err := sources.NewDefaultRegistry(fetcher, sources.Defaults{
		MaxItems:    cfg.Crawl.MaxItems,
		DetailDelay: cfg.Crawl.DetailDelay,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build source registry: %w", err)
	}
	a.Registry = registry

	if path := cfg.Crawl.SelectorsFile; path != "" {
		if err := a.applySelectors(ctx, path, opts.WatchSelectors); err != nil {
			a.Close()
			return nil, err
		}
	}

	enricher, err := newEnricher(cfg, crawlCollector, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pipeline = ingestion.NewPipeline(
		registry,
		a.Store,
		enricher,
		crawlCollector,
		logger,
		ingestion.PipelineConfig{BatchSize: cfg.Crawl.BatchSize},
	)
	a.Service = ingestion.NewService(a.Pipeline, a.Store, enricher, cfg.Crawl.BatchSize, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context, opts Options) error {
	if a.Config.Database.URL == "" {
		a.Logger.Warn("DATABASE_URL not set, using in-memory store; data is lost on exit")
		a.Store = ingestion.NewMemoryStore()
		return nil
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = a.Config.Database.URL
	dbCfg.MaxConnections = a.Config.Database.MaxConnections

	a.Logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbCfg, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.Info("database connected")

	if a.Config.Database.MigrateOnStart && !opts.SkipMigrations {
		if _, err := database.RunMigrations(ctx, db, migrations.FS, a.Logger); err != nil {
			db.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	a.DB = db
	a.Store = database.NewStore(db)
	return nil
}

func (a *App) applySelectors(ctx context.Context, path string, watch bool) error {
	if watch {
		if err := sources.WatchOverrides(ctx, path, a.Registry, a.Logger); err != nil {
			return fmt.Errorf("watch selectors file: %w", err)
		}
		return nil
	}

	file, err := sources.LoadOverrides(path)
	if err != nil {
		return fmt.Errorf("load selectors file: %w", err)
	}
	if err := sources.ApplyOverrides(a.Registry, file, a.Logger); err != nil {
		return fmt.Errorf("apply selectors file: %w", err)
	}
	return nil
}

func newEnricher(cfg config.Config, recorder enrichment.CallRecorder, logger *slog.Logger) (enrichment.Enricher, error) {
	completer, err := enrichment.NewCompleter(enrichment.LLMConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if errors.Is(err, enrichment.ErrNoAPIKey) {
		logger.Warn("no LLM API key configured, items are stored untranslated", "provider", cfg.LLM.Provider)
		return enrichment.NoopTranslator{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	logger.Info("translation enabled", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return enrichment.NewTranslator(completer, enrichment.Options{
		KoreanSources: cfg.Crawl.KoreanSources,
		Recorder:      recorder,
	}, logger), nil
}

// Health pings the database when there is one.
func (a *App) Health(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return database.HealthCheck(ctx, a.DB)
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
