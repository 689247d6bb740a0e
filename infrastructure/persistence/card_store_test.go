package persistence

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlex/cardlex/domain/card"
	"github.com/cardlex/cardlex/internal/config"
	"github.com/cardlex/cardlex/internal/log"
	"github.com/cardlex/cardlex/internal/testdb"
)

const testDimension = 3

func newTestStore(t *testing.T) *CardStore {
	t.Helper()
	logger := log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "ERROR")
	store := NewCardStore(testdb.New(t), testDimension, logger)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func embedded(name string, vector []float64) card.EmbeddedRecord {
	return card.NewEmbeddedRecord(card.NewRecord(name, "english "+name, "italiano "+name), vector)
}

func TestCardStore_EnsureSchemaIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestCardStore_InsertBatchAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []card.EmbeddedRecord{
		embedded("a", []float64{1, 2, 3}),
		embedded("b", []float64{4, 5, 6}),
	}
	require.NoError(t, store.InsertBatch(ctx, rows))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCardStore_InsertBatchEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.InsertBatch(context.Background(), nil))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCardStore_InsertBatchRejectsWrongDimension(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []card.EmbeddedRecord{
		embedded("a", []float64{1, 2, 3}),
		embedded("b", []float64{1, 2}),
	}
	err := store.InsertBatch(ctx, rows)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "a rejected batch must leave no rows behind")
}

func TestCardStore_ResetKeepsSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, []card.EmbeddedRecord{embedded("a", []float64{1, 2, 3})}))
	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The table survives a reset; inserting again must work.
	require.NoError(t, store.InsertBatch(ctx, []card.EmbeddedRecord{embedded("b", []float64{4, 5, 6})}))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCardStore_PersistsTextsAndVector(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := card.NewRecord("Roland Banks", "You get +1 skill.", "Ottieni +1 abilità.")
	row := card.NewEmbeddedRecord(record, []float64{0.5, -1.25, 2})
	require.NoError(t, store.InsertBatch(ctx, []card.EmbeddedRecord{row}))

	var got cardEmbeddingEntity
	require.NoError(t, store.db.Session(ctx).Table(TableName).First(&got).Error)

	assert.Equal(t, "Roland Banks", got.CardName)
	assert.Equal(t, "You get +1 skill.", got.EnglishText)
	assert.Equal(t, "Ottieni +1 abilità.", got.ItalianText)
	assert.Equal(t, []float64{0.5, -1.25, 2}, got.Embedding.Floats())
}
