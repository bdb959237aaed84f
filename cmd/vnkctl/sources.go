package main

import (
	"github.com/spf13/cobra"
)

func newSourcesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered news sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			infos := a.Registry.Describe()
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, infos)
			}
			renderSources(out, infos)
			return nil
		},
	}
}
