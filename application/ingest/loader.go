// Package ingest drives the embed-and-load pipeline over extracted card
// records.
package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cardlex/cardlex/domain/card"
	"github.com/cardlex/cardlex/internal/log"
)

// DefaultChunkSize is the default number of records per embed+insert chunk.
const DefaultChunkSize = 50

// Result reports what the loader committed and what it dropped.
type Result struct {
	// Inserted is the number of rows committed across all chunks.
	Inserted int
	// EmbedFailures is the number of records dropped because their
	// embedding call failed or returned a wrong-dimension vector.
	EmbedFailures int
	// ChunkFailures is the number of chunks whose insert transaction
	// failed and was rolled back.
	ChunkFailures int
}

// Loader partitions records into chunks, embeds each record, and writes
// each chunk to the store in one transaction. Failures are isolated at the
// record level (embedding) and the chunk level (insert); neither aborts
// the run.
type Loader struct {
	store       card.Store
	embedder    card.Embedder
	dimension   int
	parallelism int
	logger      *log.Logger
}

// NewLoader creates a Loader. parallelism bounds concurrent embedding
// calls within a chunk; 1 means strictly sequential.
func NewLoader(store card.Store, embedder card.Embedder, dimension, parallelism int, logger *log.Logger) *Loader {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Loader{
		store:       store,
		embedder:    embedder,
		dimension:   dimension,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Load processes records in consecutive chunks of at most chunkSize and
// returns the loading result. It errs only on context cancellation; all
// embedding and insert failures are recovered locally and reflected in
// the Result counters.
func (l *Loader) Load(ctx context.Context, records []card.Record, chunkSize int) (Result, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var result Result
	total := len(records)
	totalChunks := (total + chunkSize - 1) / chunkSize

	for start := 0; start < total; start += chunkSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := records[start:end]
		chunkNum := start/chunkSize + 1

		l.logger.Info("processing chunk", "chunk", chunkNum, "of", totalChunks, "records", len(chunk))

		rows, dropped := l.embedChunk(ctx, chunk)
		result.EmbedFailures += dropped

		if len(rows) == 0 {
			continue
		}

		if err := l.store.InsertBatch(ctx, rows); err != nil {
			// The chunk's transaction rolled back as a unit; prior and
			// subsequent chunks are unaffected.
			l.logger.Error("chunk insert failed, rolled back", "chunk", chunkNum, "error", err)
			result.ChunkFailures++
			continue
		}

		result.Inserted += len(rows)
	}

	l.logger.Info("loading complete",
		"inserted", result.Inserted,
		"embed_failures", result.EmbedFailures,
		"chunk_failures", result.ChunkFailures,
	)
	return result, nil
}

// embedChunk embeds every record in the chunk under the configured
// concurrency limit and returns the successfully embedded rows in chunk
// order. A failed or wrong-dimension embedding drops only its own record.
func (l *Loader) embedChunk(ctx context.Context, chunk []card.Record) ([]card.EmbeddedRecord, int) {
	vectors := make([][]float64, len(chunk))
	failures := make([]error, len(chunk))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)

	for i, record := range chunk {
		i, record := i, record
		g.Go(func() error {
			embedded, err := l.embedder.Embed(gctx, []string{record.EnglishText()})
			if err != nil {
				failures[i] = err
				return nil
			}
			if len(embedded) != 1 {
				failures[i] = errEmptyEmbedding
				return nil
			}
			vectors[i] = embedded[0]
			return nil
		})
	}
	// Goroutines report failures through the failures slice, never as
	// errors, so one bad record cannot cancel its siblings.
	_ = g.Wait()

	rows := make([]card.EmbeddedRecord, 0, len(chunk))
	dropped := 0
	for i, record := range chunk {
		if failures[i] != nil {
			l.logger.Warn("dropping record, embedding failed", "card", record.Name(), "error", failures[i])
			dropped++
			continue
		}
		if len(vectors[i]) != l.dimension {
			l.logger.Warn("dropping record, wrong embedding dimension",
				"card", record.Name(), "got", len(vectors[i]), "want", l.dimension)
			dropped++
			continue
		}
		rows = append(rows, card.NewEmbeddedRecord(record, vectors[i]))
	}

	return rows, dropped
}
