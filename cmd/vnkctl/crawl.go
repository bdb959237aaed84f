package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnknews/vnknews/internal/models"
)

func newCrawlCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every source once and store new items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Service.RunFullCrawl(cmd.Context())
			if report == nil {
				return fmt.Errorf("crawl: %w", err)
			}
			if err != nil {
				a.Logger.Error("crawl finished with errors", "error", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, report)
			}
			renderRunReport(out, report)
			if report.Status == models.RunStatusFailed {
				return fmt.Errorf("every source failed")
			}
			return nil
		},
	}
}

func newCrawlSourceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl-source <source-id>",
		Short: "Crawl one source, refreshing items that are already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			count, err := a.Service.RunSingleSourceCrawl(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("crawl %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]interface{}{"source": args[0], "count": count})
			}
			fmt.Fprintf(out, "Crawled %d items from %s\n", count, args[0])
			return nil
		},
	}
}
