package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cardlex/cardlex/application/ingest"
	"github.com/cardlex/cardlex/infrastructure/extract"
	"github.com/cardlex/cardlex/infrastructure/persistence"
	"github.com/cardlex/cardlex/infrastructure/provider"
	"github.com/cardlex/cardlex/internal/config"
	"github.com/cardlex/cardlex/internal/database"
	"github.com/cardlex/cardlex/internal/log"
)

func ingestCmd() *cobra.Command {
	var (
		envFile   string
		dataDir   string
		batchSize int
		appendTo  bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract, embed, and load bilingual card records",
		Long: `Extract English/Italian card pairs from the data directory, compute
embeddings for the English text, and load them into the store.

By default a run replaces all existing rows (full reload); pass --append
to keep them.

Environment variables:
  DATA_DIR                     Card data directory (default: .data/cards)
  DB_URL                       Database URL (overrides POSTGRES_* settings)
  POSTGRES_HOST                Postgres host (default: localhost)
  POSTGRES_PORT                Postgres port (default: 5432)
  POSTGRES_USER                Postgres user (default: cardlex)
  POSTGRES_PASSWORD            Postgres password (default: cardlex)
  POSTGRES_DB                  Postgres database (default: cardlex)
  OPENAI_API_KEY               Embedding service API key (required)
  EMBEDDING_MODEL              Embedding model (default: text-embedding-3-small)
  EMBEDDING_DIMENSION          Vector dimension (default: 1536)
  BATCH_SIZE                   Records per chunk (default: 50)
  LOG_LEVEL                    DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   pretty, json (default: pretty)

  EMBEDDING_ENDPOINT_*         Embedding transport configuration
    BASE_URL                   Service base URL override
    TIMEOUT                    Request timeout in seconds (default: 30)
    MAX_RETRIES                Retry attempts (default: 5)
    NUM_PARALLEL_TASKS         Concurrent embeddings per chunk (default: 1)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), envFile, dataDir, batchSize, appendTo, limit)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Card data directory (overrides DATA_DIR)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records per chunk (overrides BATCH_SIZE)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Keep existing rows instead of clearing them")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit number of records to load (0 = all)")

	return cmd
}

func runIngest(ctx context.Context, envFile, dataDir string, batchSize int, appendTo bool, limit int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = cfg.Apply(
		config.WithDataDir(dataDir),
		config.WithBatchSize(batchSize),
	)

	// Configuration failures abort before any I/O against the store.
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Check the input before paying for a database connection.
	if _, err := os.Stat(cfg.DataDir()); err != nil {
		return fmt.Errorf("data directory not found at %s (run the data download step first): %w", cfg.DataDir(), err)
	}

	logger := log.NewLogger(cfg)
	logger.Slog().LogAttrs(ctx, slog.LevelInfo, "starting ingestion", cfg.LogAttrs()...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := persistence.NewCardStore(db, cfg.EmbeddingDimension(), logger)
	embedder := provider.NewOpenAIEmbedder(cfg.Embedding())
	extractor := extract.NewExtractor(cfg.DataDir(), logger)
	loader := ingest.NewLoader(store, embedder, cfg.EmbeddingDimension(), cfg.Embedding().NumParallelTasks(), logger)

	pipeline := ingest.NewPipeline(cfg.DataDir(), store, extractor, loader, logger,
		ingest.WithChunkSize(cfg.BatchSize()),
		ingest.WithAppend(appendTo),
		ingest.WithLimit(limit),
	)

	return pipeline.Run(ctx)
}
