package card

import "context"

// EmbeddedRecord pairs a Record with its computed embedding vector.
type EmbeddedRecord struct {
	record Record
	vector []float64
}

// NewEmbeddedRecord creates an EmbeddedRecord. The vector is defensively
// copied so later mutations of the source slice have no effect.
func NewEmbeddedRecord(record Record, vector []float64) EmbeddedRecord {
	cp := make([]float64, len(vector))
	copy(cp, vector)
	return EmbeddedRecord{record: record, vector: cp}
}

// Record returns the underlying card record.
func (e EmbeddedRecord) Record() Record { return e.record }

// Vector returns a defensive copy of the embedding vector.
func (e EmbeddedRecord) Vector() []float64 {
	cp := make([]float64, len(e.vector))
	copy(cp, e.vector)
	return cp
}

// Dimension returns the number of elements in the embedding vector.
func (e EmbeddedRecord) Dimension() int { return len(e.vector) }

// Store persists embedded card records.
type Store interface {
	// EnsureSchema idempotently creates the table and its indexes.
	EnsureSchema(ctx context.Context) error

	// Reset removes all rows without dropping the schema.
	Reset(ctx context.Context) error

	// InsertBatch inserts rows in one atomic transaction.
	InsertBatch(ctx context.Context, rows []EmbeddedRecord) error

	// Count returns the current row count.
	Count(ctx context.Context) (int64, error)
}
