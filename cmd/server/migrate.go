package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/coursehub-auth/internal/config"
	"github.com/iliyamo/coursehub-auth/internal/database"
	"github.com/iliyamo/coursehub-auth/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the embedded schema migrations",
		Long:      "up applies every pending migration; down rolls back the most recent one.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), args[0])
		},
	}
}

func runMigrate(ctx context.Context, direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogFile)

	db, err := database.Open(ctx, dbSettings(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		err = database.MigrateUp(db.DB)
	case "down":
		err = database.MigrateDown(db.DB)
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
	if err != nil {
		return err
	}
	logger.Info().Str("direction", direction).Msg("migrations applied")
	return nil
}
