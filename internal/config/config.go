// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.carenav/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Retrieval: similarity threshold, top-k result limit
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: HTTP listen address, rate limiting
//   - Observability: OTLP trace export (optional)
//
// Security: sensitive values (passwords, API keys) are never logged.
// Validation happens at load time with sentinel errors (see validation.go).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to lower dimensions via
	// OutputDimensionality; the chunk schema stores 384-dim vectors.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultSimilarityThreshold is the minimum cosine similarity a chunk
	// must exceed (strictly) to be retrieved.
	DefaultSimilarityThreshold = 0.1

	// DefaultTopK is the default maximum number of chunks per query.
	DefaultTopK = 5

	// DefaultGenerationTimeout bounds a single answer-generation request.
	DefaultGenerationTimeout = 60 * time.Second
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`

	// Retrieval configuration
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	TopKRetrieval       int     `mapstructure:"top_k_retrieval" json:"top_k_retrieval"`

	// Generation configuration
	GenerationTimeoutSec int `mapstructure:"generation_timeout_sec" json:"generation_timeout_sec"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE: never serialized
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration (serve mode only)
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`
	RateBurst  int    `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy bool   `mapstructure:"trust_proxy" json:"trust_proxy"`

	// Observability configuration
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	AgentHost   string `mapstructure:"agent_host" json:"agent_host"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// GenerationTimeout returns the configured generation timeout as a Duration.
func (c *Config) GenerationTimeout() time.Duration {
	if c.GenerationTimeoutSec <= 0 {
		return DefaultGenerationTimeout
	}
	return time.Duration(c.GenerationTimeoutSec) * time.Second
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".carenav")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	viper.SetDefault("top_k_retrieval", DefaultTopK)
	viper.SetDefault("generation_timeout_sec", 60)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "carenav")
	viper.SetDefault("postgres_password", "carenav_dev_password")
	viper.SetDefault("postgres_db_name", "carenav")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("server_addr", "127.0.0.1:8080")
	viper.SetDefault("rate_burst", 60)
	viper.SetDefault("trust_proxy", false)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.agent_host", "localhost:4318")
	viper.SetDefault("tracing.service_name", "carenav")
	viper.SetDefault("tracing.environment", "dev")
}

// bindEnvVariables binds environment overrides explicitly.
//
// GEMINI_API_KEY is read directly by Genkit, not via Viper; validation checks
// its presence based on the selected provider.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "CARENAV_PROVIDER")
	mustBind("model_name", "CARENAV_MODEL_NAME")
	mustBind("embedder_model", "CARENAV_EMBEDDER_MODEL")
	mustBind("ollama_host", "CARENAV_OLLAMA_HOST")
	mustBind("similarity_threshold", "CARENAV_SIMILARITY_THRESHOLD")
	mustBind("top_k_retrieval", "CARENAV_TOP_K_RETRIEVAL")
	mustBind("server_addr", "CARENAV_SERVER_ADDR")
	mustBind("rate_burst", "CARENAV_RATE_BURST")
	mustBind("trust_proxy", "CARENAV_TRUST_PROXY")
	mustBind("tracing.enabled", "CARENAV_TRACING_ENABLED")
	mustBind("tracing.agent_host", "CARENAV_TRACING_AGENT_HOST")
}
