package main

import (
	"github.com/spf13/cobra"

	"github.com/vnknews/vnknews/internal/ingestion"
)

func newLogsCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent crawl runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			logs, err := a.Service.ListRunLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, logs)
			}
			renderRunLogs(out, logs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", ingestion.DefaultRunLogLimit, "number of runs to show")
	return cmd
}
