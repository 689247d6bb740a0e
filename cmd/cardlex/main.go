// Package main is the entry point for the cardlex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardlex/cardlex/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardlex",
		Short: "Bilingual card translation-memory ingestion",
		Long:  `Cardlex pairs English card text with its Italian translation, computes embeddings, and loads them into PostgreSQL with pgvector for nearest-neighbour translation-memory lookup.`,
	}

	cmd.AddCommand(ingestCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from a .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
