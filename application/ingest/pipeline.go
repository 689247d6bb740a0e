package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cardlex/cardlex/domain/card"
	"github.com/cardlex/cardlex/infrastructure/extract"
	"github.com/cardlex/cardlex/internal/log"
)

// errEmptyEmbedding indicates the embedder returned no vector for a text.
var errEmptyEmbedding = errors.New("embedder returned no vector")

// ErrNoRecords indicates extraction produced zero usable records; the run
// aborts before any store mutation.
var ErrNoRecords = errors.New("no card records extracted")

// Pipeline sequences a full ingestion run: verify input, ensure schema,
// extract pairs, reset (unless appending), load, and report the final
// count. The store handle is owned by the caller, which releases it on
// every exit path.
type Pipeline struct {
	dataDir   string
	store     card.Store
	extractor *extract.Extractor
	loader    *Loader
	logger    *log.Logger
	chunkSize int
	appendTo  bool
	limit     int
}

// PipelineOption is a functional option for Pipeline.
type PipelineOption func(*Pipeline)

// WithChunkSize sets the loader chunk size.
func WithChunkSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithAppend keeps existing rows instead of clearing them before loading.
func WithAppend(appendTo bool) PipelineOption {
	return func(p *Pipeline) { p.appendTo = appendTo }
}

// WithLimit caps the number of records loaded; 0 means all. Useful for
// trial runs against a paid embedding service.
func WithLimit(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(dataDir string, store card.Store, extractor *extract.Extractor, loader *Loader, logger *log.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		dataDir:   dataDir,
		store:     store,
		extractor: extractor,
		loader:    loader,
		logger:    logger,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the ingestion pipeline. It fails fast on missing
// preconditions before any destructive step: the reset only happens after
// a non-empty extraction succeeded.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := os.Stat(p.dataDir); err != nil {
		return fmt.Errorf("data directory not found at %s (run the data download step first): %w", p.dataDir, err)
	}

	if err := p.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	p.logger.Info("database schema ready")

	records, stats, err := p.extractor.Extract()
	if err != nil {
		return fmt.Errorf("extract card records: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w (scanned %d files, skipped %d)", ErrNoRecords, stats.Processed+stats.Skipped, stats.Skipped)
	}

	if p.limit > 0 && p.limit < len(records) {
		p.logger.Warn("limiting records for this run", "limit", p.limit, "extracted", len(records))
		records = records[:p.limit]
	}

	if !p.appendTo {
		if err := p.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
		p.logger.Info("cleared existing rows")
	}

	result, err := p.loader.Load(ctx, records, p.chunkSize)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	count, err := p.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	p.logger.Info("ingestion complete",
		"inserted", result.Inserted,
		"embed_failures", result.EmbedFailures,
		"chunk_failures", result.ChunkFailures,
		"total_rows", count,
	)
	return nil
}
