package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iiot-site/internal/common/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	Long: `migrate creates the form tables (quoteform, resumeform) and the catalog
tables. Every statement is idempotent, so it is safe to rerun.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, zapLog, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLog.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()

	applied, err := database.Migrate(ctx, pg.DB)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	zapLog.Info("Migrations applied", zap.Strings("files", applied))
	return nil
}
