package commands

import (
	"database/sql"
	"fmt"

	"github.com/benvon/smart-goals/internal/config"
	"github.com/benvon/smart-goals/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(newMigrateStepCmd("up", "Apply all pending migrations", database.Migrate))
	cmd.AddCommand(newMigrateStepCmd("down", "Roll back the most recent migration", database.MigrateDown))
	cmd.AddCommand(newMigrateStepCmd("status", "Show the applied state of every migration", database.MigrationStatus))
	return cmd
}

func newMigrateStepCmd(use, short string, step func(*sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.StorageBackend != config.StorageBackendPostgres {
				return fmt.Errorf("migrations need STORAGE_BACKEND=%s", config.StorageBackendPostgres)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := step(db.DB); err != nil {
				return err
			}
			if use != "status" {
				fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", use)
			}
			return nil
		},
	}
}
