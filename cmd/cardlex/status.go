package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardlex/cardlex/infrastructure/persistence"
	"github.com/cardlex/cardlex/internal/database"
	"github.com/cardlex/cardlex/internal/log"
)

func statusCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report how many card records the store holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runStatus(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.NewLogger(cfg)

	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := persistence.NewCardStore(db, cfg.EmbeddingDimension(), logger)
	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}

	fmt.Printf("%d card records\n", count)
	return nil
}
