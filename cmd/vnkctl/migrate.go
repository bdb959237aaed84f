package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnknews/vnknews/internal/database"
	"github.com/vnknews/vnknews/migrations"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			dbCfg := database.DefaultConfig()
			dbCfg.URL = cfg.Database.URL
			db, err := database.Connect(cmd.Context(), dbCfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.RunMigrations(cmd.Context(), db, migrations.FS, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations\n", applied)
			return nil
		},
	}
}
