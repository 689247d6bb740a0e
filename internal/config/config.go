// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultDataDir            = ".data/cards"
	DefaultLogLevel           = "INFO"
	DefaultPostgresHost       = "localhost"
	DefaultPostgresPort       = 5432
	DefaultPostgresUser       = "cardlex"
	DefaultPostgresPassword   = "cardlex"
	DefaultPostgresDB         = "cardlex"
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536
	DefaultBatchSize          = 50
	DefaultEndpointTimeout    = 30 * time.Second
	DefaultEndpointRetries    = 5
	DefaultEndpointDelay      = 2 * time.Second
	DefaultEndpointBackoff    = 2.0
	DefaultParallelTasks      = 1
)

// ErrMissingAPIKey indicates the required embedding service credential is absent.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required and has no default")

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the embedding service endpoint.
type Endpoint struct {
	baseURL          string
	apiKey           string
	model            string
	timeout          time.Duration
	maxRetries       int
	initialDelay     time.Duration
	backoffFactor    float64
	numParallelTasks int
}

// NewEndpoint creates an Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		model:            DefaultEmbeddingModel,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointRetries,
		initialDelay:     DefaultEndpointDelay,
		backoffFactor:    DefaultEndpointBackoff,
		numParallelTasks: DefaultParallelTasks,
	}
}

// BaseURL returns the base URL override for the endpoint, empty for the default.
func (e Endpoint) BaseURL() string { return e.baseURL }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Model returns the embedding model identifier.
func (e Endpoint) Model() string { return e.model }

// Timeout returns the per-request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// NumParallelTasks returns the embedding concurrency limit within a chunk.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithModel sets the embedding model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) {
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithNumParallelTasks sets the embedding concurrency limit.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.numParallelTasks = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	dataDir            string
	dbURL              string
	postgresHost       string
	postgresPort       int
	postgresUser       string
	postgresPassword   string
	postgresDB         string
	logLevel           string
	logFormat          LogFormat
	embeddingDimension int
	batchSize          int
	embedding          Endpoint
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		dataDir:            DefaultDataDir,
		postgresHost:       DefaultPostgresHost,
		postgresPort:       DefaultPostgresPort,
		postgresUser:       DefaultPostgresUser,
		postgresPassword:   DefaultPostgresPassword,
		postgresDB:         DefaultPostgresDB,
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		embeddingDimension: DefaultEmbeddingDimension,
		batchSize:          DefaultBatchSize,
		embedding:          NewEndpoint(),
	}
}

// DataDir returns the card data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL. When no explicit URL is
// configured, it is assembled from the discrete Postgres settings.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.postgresUser, c.postgresPassword, c.postgresHost, c.postgresPort, c.postgresDB)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingDimension returns the fixed embedding vector dimension.
func (c AppConfig) EmbeddingDimension() int { return c.embeddingDimension }

// BatchSize returns the loader chunk size.
func (c AppConfig) BatchSize() int { return c.batchSize }

// Embedding returns the embedding endpoint config.
func (c AppConfig) Embedding() Endpoint { return c.embedding }

// Validate checks that required configuration is present. It is called
// before any I/O so a missing credential never touches the store.
func (c AppConfig) Validate() error {
	if c.embedding.APIKey() == "" {
		return ErrMissingAPIKey
	}
	if c.embeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.embeddingDimension)
	}
	if c.batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.batchSize)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if dir != "" {
			c.dataDir = dir
		}
	}
}

// WithDBURL sets an explicit database URL, overriding the discrete settings.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithPostgres sets the discrete Postgres connection settings. Zero values
// leave the corresponding defaults untouched.
func WithPostgres(host string, port int, user, password, dbName string) AppConfigOption {
	return func(c *AppConfig) {
		if host != "" {
			c.postgresHost = host
		}
		if port != 0 {
			c.postgresPort = port
		}
		if user != "" {
			c.postgresUser = user
		}
		if password != "" {
			c.postgresPassword = password
		}
		if dbName != "" {
			c.postgresDB = dbName
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		if level != "" {
			c.logLevel = level
		}
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingDimension sets the fixed vector dimension.
func WithEmbeddingDimension(d int) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.embeddingDimension = d
		}
	}
}

// WithBatchSize sets the loader chunk size.
func WithBatchSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint config.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied on top of
// the receiver.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Credentials are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db", fmt.Sprintf("postgres://%s@%s:%d/%s", c.postgresUser, c.postgresHost, c.postgresPort, c.postgresDB)),
		slog.String("embedding_model", c.embedding.Model()),
		slog.Int("embedding_dimension", c.embeddingDimension),
		slog.Int("batch_size", c.batchSize),
		slog.Bool("api_key_set", c.embedding.APIKey() != ""),
	}
}
