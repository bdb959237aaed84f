package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vnknews/vnknews/internal/api"
	"github.com/vnknews/vnknews/internal/app"
	"github.com/vnknews/vnknews/internal/config"
	"github.com/vnknews/vnknews/internal/logging"
	"github.com/vnknews/vnknews/internal/scheduler"
	"github.com/vnknews/vnknews/internal/server"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Error("failed to load env files", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		bootLogger.Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting vnknews crawler")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, app.Options{WatchSelectors: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var sched *scheduler.CrawlScheduler
	if cfg.Crawl.Schedule != "" {
		sched, err = scheduler.NewCrawlScheduler(a.Service, cfg.Crawl.Schedule, 0, logging.Component(logger, "scheduler"))
		if err != nil {
			logger.Error("failed to create crawl scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
	} else {
		logger.Info("CRAWL_SCHEDULE not set, crawls run on demand only")
	}

	handler := api.NewRouter(a.Service, a.Registry, a.Health, a.HTTP, logger)
	srv := server.New(cfg.Server, logger, handler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("vnknews started", "port", cfg.Server.Port, "sources", len(a.Registry.IDs()))

	waitForSignal(logger)

	logger.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
