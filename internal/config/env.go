// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map
// directly to environment variables; nested structs use an underscore
// delimiter (e.g. EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// DataDir is the root of the card data trees (pack/ and translations/).
	// Env: DATA_DIR (default: .data/cards)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is an explicit database connection URL. When set it overrides
	// the discrete POSTGRES_* settings.
	// Env: DB_URL
	DBURL string `envconfig:"DB_URL"`

	// PostgresHost is the Postgres host.
	// Env: POSTGRES_HOST (default: localhost)
	PostgresHost string `envconfig:"POSTGRES_HOST"`

	// PostgresPort is the Postgres port.
	// Env: POSTGRES_PORT (default: 5432)
	PostgresPort int `envconfig:"POSTGRES_PORT"`

	// PostgresUser is the Postgres user.
	// Env: POSTGRES_USER (default: cardlex)
	PostgresUser string `envconfig:"POSTGRES_USER"`

	// PostgresPassword is the Postgres password.
	// Env: POSTGRES_PASSWORD (default: cardlex)
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`

	// PostgresDB is the Postgres database name.
	// Env: POSTGRES_DB (default: cardlex)
	PostgresDB string `envconfig:"POSTGRES_DB"`

	// OpenAIAPIKey is the embedding service credential. Required; there is
	// deliberately no default.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// EmbeddingModel is the embedding model identifier.
	// Env: EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`

	// EmbeddingDimension is the fixed vector dimension the store is built for.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION"`

	// BatchSize is the loader chunk size.
	// Env: BATCH_SIZE (default: 50)
	BatchSize int `envconfig:"BATCH_SIZE"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT"`

	// EmbeddingEndpoint configures the embedding service transport.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`
}

// EndpointEnv holds environment configuration for the embedding endpoint.
type EndpointEnv struct {
	// BaseURL overrides the service base URL (e.g. a proxy).
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`

	// MaxRetries is the maximum number of retries.
	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EMBEDDING_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// NumParallelTasks is the embedding concurrency limit within a chunk.
	// Env: EMBEDDING_ENDPOINT_NUM_PARALLEL_TASKS (default: 1)
	NumParallelTasks int `envconfig:"NUM_PARALLEL_TASKS" default:"1"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig, applying env overrides on
// top of the defaults.
func (e EnvConfig) ToAppConfig() AppConfig {
	endpoint := NewEndpointWithOptions(
		WithBaseURL(e.EmbeddingEndpoint.BaseURL),
		WithAPIKey(e.OpenAIAPIKey),
		WithModel(e.EmbeddingModel),
		WithTimeout(time.Duration(e.EmbeddingEndpoint.Timeout*float64(time.Second))),
		WithMaxRetries(e.EmbeddingEndpoint.MaxRetries),
		WithInitialDelay(time.Duration(e.EmbeddingEndpoint.InitialDelay*float64(time.Second))),
		WithBackoffFactor(e.EmbeddingEndpoint.BackoffFactor),
		WithNumParallelTasks(e.EmbeddingEndpoint.NumParallelTasks),
	)

	return NewAppConfigWithOptions(
		WithDataDir(e.DataDir),
		WithDBURL(e.DBURL),
		WithPostgres(e.PostgresHost, e.PostgresPort, e.PostgresUser, e.PostgresPassword, e.PostgresDB),
		WithLogLevel(e.LogLevel),
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithEmbeddingDimension(e.EmbeddingDimension),
		WithBatchSize(e.BatchSize),
		WithEmbeddingEndpoint(endpoint),
	)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
