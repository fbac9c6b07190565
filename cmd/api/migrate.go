package main

import (
	"errors"

	"github.com/spf13/cobra"

	"resumemind-api/internal/shared/config"
	"resumemind-api/internal/shared/storage/db"
	"resumemind-api/internal/shared/telemetry"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres document-store migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if err := telemetry.Init(cfg.LogJSON || logJSON, cfg.LogDebug || logDebug); err != nil {
			return err
		}
		defer telemetry.Sync()
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}

		ctx := cmd.Context()
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
			return err
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
			return err
		}
		telemetry.Info("migrate.done", nil)
		return nil
	},
}
