// Package persistence provides the PostgreSQL/pgvector card embedding store.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cardlex/cardlex/domain/card"
	"github.com/cardlex/cardlex/internal/database"
	"github.com/cardlex/cardlex/internal/log"
)

// TableName is the card embeddings table.
const TableName = "card_embeddings"

// SQL for the PostgreSQL schema. Dimension is interpolated because vector
// column types cannot be parameterized.
const (
	pgCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgCreateTableTemplate = `
CREATE TABLE IF NOT EXISTS %s (
    id SERIAL PRIMARY KEY,
    card_name TEXT NOT NULL,
    english_text TEXT NOT NULL,
    italian_text TEXT NOT NULL,
    embedding VECTOR(%d) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

	pgCreateVectorIndexTemplate = `
CREATE INDEX IF NOT EXISTS %s_embedding_idx
ON %s
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100)`

	pgCheckDimensionTemplate = `
SELECT a.atttypmod as dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = '%s'
AND a.attname = 'embedding'`
)

// sqliteCreateTable is the test-backend schema: the embedding column holds
// the vector text literal produced by database.PgVector.
const sqliteCreateTable = `
CREATE TABLE IF NOT EXISTS ` + TableName + ` (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_name TEXT NOT NULL,
    english_text TEXT NOT NULL,
    italian_text TEXT NOT NULL,
    embedding TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const nameIndexSQL = `CREATE INDEX IF NOT EXISTS ` + TableName + `_card_name_idx ON ` + TableName + `(card_name)`

// ErrDimensionMismatch indicates a vector whose dimension differs from the
// one the table was created for.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// cardEmbeddingEntity is the GORM row shape for the card embeddings table.
type cardEmbeddingEntity struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CardName    string            `gorm:"column:card_name;not null"`
	EnglishText string            `gorm:"column:english_text;not null"`
	ItalianText string            `gorm:"column:italian_text;not null"`
	Embedding   database.PgVector `gorm:"column:embedding;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements the GORM table naming convention.
func (cardEmbeddingEntity) TableName() string { return TableName }

// CardStore implements card.Store on PostgreSQL with pgvector (with a
// SQLite branch for tests).
type CardStore struct {
	db        database.Database
	dimension int
	logger    *log.Logger
}

// NewCardStore creates a CardStore for vectors of the given fixed dimension.
func NewCardStore(db database.Database, dimension int, logger *log.Logger) *CardStore {
	return &CardStore{db: db, dimension: dimension, logger: logger}
}

// EnsureSchema idempotently creates the table, the ivfflat cosine index on
// the vector column, and the card name index. Safe to call on every run.
func (s *CardStore) EnsureSchema(ctx context.Context) error {
	if !s.db.IsPostgres() {
		return s.ensureSQLiteSchema(ctx)
	}

	session := s.db.Session(ctx)

	if err := session.Exec(pgCreateExtension).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(pgCreateTableTemplate, TableName, s.dimension)
	if err := session.Exec(createTable).Error; err != nil {
		return fmt.Errorf("create table %s: %w", TableName, err)
	}

	// An existing table may have been created for a different dimension;
	// inserting into it would silently corrupt the index, so fail instead.
	if err := s.checkTableDimension(ctx); err != nil {
		return err
	}

	indexSQL := fmt.Sprintf(pgCreateVectorIndexTemplate, TableName, TableName)
	if err := session.Exec(indexSQL).Error; err != nil {
		s.logger.Warn("failed to create vector index (may already exist with different parameters)", "error", err)
	}

	if err := session.Exec(nameIndexSQL).Error; err != nil {
		return fmt.Errorf("create card name index: %w", err)
	}

	return nil
}

func (s *CardStore) ensureSQLiteSchema(ctx context.Context) error {
	session := s.db.Session(ctx)
	if err := session.Exec(sqliteCreateTable).Error; err != nil {
		return fmt.Errorf("create table %s: %w", TableName, err)
	}
	if err := session.Exec(nameIndexSQL).Error; err != nil {
		return fmt.Errorf("create card name index: %w", err)
	}
	return nil
}

func (s *CardStore) checkTableDimension(ctx context.Context) error {
	var dbDimension int
	checkSQL := fmt.Sprintf(pgCheckDimensionTemplate, TableName)
	result := s.db.Session(ctx).Raw(checkSQL).Scan(&dbDimension)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	if result.RowsAffected > 0 && dbDimension != s.dimension {
		return fmt.Errorf("%w: table has %d, configured %d", ErrDimensionMismatch, dbDimension, s.dimension)
	}
	return nil
}

// Reset removes all rows without dropping the schema.
func (s *CardStore) Reset(ctx context.Context) error {
	session := s.db.Session(ctx)

	var err error
	if s.db.IsPostgres() {
		err = session.Exec(`TRUNCATE TABLE ` + TableName).Error
	} else {
		err = session.Exec(`DELETE FROM ` + TableName).Error
	}
	if err != nil {
		return fmt.Errorf("reset %s: %w", TableName, err)
	}
	return nil
}

// InsertBatch inserts rows in one atomic transaction. Every vector is
// validated against the configured dimension before the transaction opens,
// so a wrong-dimension vector can never reach the index.
func (s *CardStore) InsertBatch(ctx context.Context, rows []card.EmbeddedRecord) error {
	if len(rows) == 0 {
		return nil
	}

	for i, row := range rows {
		if row.Dimension() != s.dimension {
			return fmt.Errorf("%w: row %d (%q) has %d, configured %d",
				ErrDimensionMismatch, i, row.Record().Name(), row.Dimension(), s.dimension)
		}
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, row := range rows {
			entity := cardEmbeddingEntity{
				CardName:    row.Record().Name(),
				EnglishText: row.Record().EnglishText(),
				ItalianText: row.Record().ItalianText(),
				Embedding:   database.NewPgVector(row.Vector()),
			}
			if err := tx.Create(&entity).Error; err != nil {
				return fmt.Errorf("insert card %q: %w", row.Record().Name(), err)
			}
		}
		return nil
	})
}

// Count returns the current row count.
func (s *CardStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Table(TableName).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", TableName, err)
	}
	return count, nil
}

var _ card.Store = (*CardStore)(nil)
