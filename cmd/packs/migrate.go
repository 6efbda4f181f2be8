package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-packs/pkg/simplepacks/config"
	repopg "github.com/tendant/simple-packs/pkg/simplepacks/repo/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  `Create or upgrade the packs and pack_sounds tables in the configured Postgres database.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	if cfg.Database.Type != "postgres" {
		return errors.New("migrate requires DATABASE_TYPE=postgres")
	}

	repo, err := config.ConnectPostgres(ctx, cfg.Database, slog.Default())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	if err := repopg.Migrate(ctx, repo.Pool(), slog.Default()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("Database migration complete")
	return nil
}
