package ingest

import (
	"fmt"

	"github.com/cloo-solutions/docseeder/internal/config"
	"github.com/cloo-solutions/docseeder/internal/repository"
	"github.com/spf13/cobra"
)

// MigrateCmd applies the SQL migrations to the Postgres store.
func MigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the document tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate needs the %s store; apply migrations/ through the Supabase SQL editor instead", config.StorePostgres)
			}
			return repository.RunMigrations(cfg.DatabaseURL, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", repository.DefaultMigrationsDir, "Directory holding the migration files")

	return cmd
}
