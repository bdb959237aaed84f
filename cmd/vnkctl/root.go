package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnknews/vnknews/internal/app"
	"github.com/vnknews/vnknews/internal/config"
	"github.com/vnknews/vnknews/internal/logging"
)

type rootOptions struct {
	debug   bool
	jsonOut bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "vnkctl",
		Short:         "Crawl Vietnamese and Korean news sources",
		Long:          `vnkctl runs full or single-source crawls, lists sources and shows crawl history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newCrawlCommand(opts),
		newCrawlSourceCommand(opts),
		newLogsCommand(opts),
		newSourcesCommand(opts),
		newMigrateCommand(opts),
	)
	return cmd
}

// loadConfig reads the environment and builds a text logger on stderr so
// stdout stays clean for tables and JSON.
func (o *rootOptions) loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Logging.Format = "text"
	if o.debug {
		cfg.Logging.Level = slog.LevelDebug
	}
	logger, err := logging.NewWithWriter(cfg.Logging, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func (o *rootOptions) buildApp(ctx context.Context) (*app.App, error) {
	cfg, logger, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger, app.Options{})
}
