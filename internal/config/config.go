// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (AUTODRAFT_ prefix, runtime override)
//  2. Config file (~/.autodraft/config.yaml)
//  3. Default values
//
// Error Handling:
//   - Sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrapped with context using fmt.Errorf("%w: details", ErrXxx)
//
// Security: the Google API key is masked in MarshalJSON. When adding new
// sensitive fields, update MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidToolBudget indicates the research tool-call budget is out of range.
	ErrInvalidToolBudget = errors.New("invalid tool-call budget")
)

const (
	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default embedding model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultChunkSize is the chunk size in runes used for document ingestion.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the rune overlap between consecutive chunks.
	DefaultChunkOverlap = 200

	// DefaultRetrievalTopK is the number of chunks retrieved per query.
	DefaultRetrievalTopK = 4

	// DefaultMaxToolCalls bounds the research agent's search iterations.
	DefaultMaxToolCalls = 3

	// MaxAllowedToolCalls is the absolute ceiling for the tool-call budget.
	MaxAllowedToolCalls = 10

	// DefaultServerAddr is the default HTTP server listen address.
	DefaultServerAddr = "127.0.0.1:4600"
)

// Config stores application configuration.
type Config struct {
	// Generation configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`

	// Retrieval configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	ChunkSize     int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap  int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	RetrievalTopK int    `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`

	// Research agent configuration
	MaxToolCalls int `mapstructure:"max_tool_calls" json:"max_tool_calls"`

	// Web search (Google Custom Search). Both values are optional: when
	// either is empty the research agent runs without a search tool and
	// produces degraded observations instead of failing.
	GoogleAPIKey string `mapstructure:"google_api_key" json:"google_api_key"` // SENSITIVE: masked in MarshalJSON
	GoogleCSEID  string `mapstructure:"google_cse_id" json:"google_cse_id"`

	// Server configuration
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// DataDir is where retrieval collections are persisted. Empty keeps
	// them in memory only.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// Generation call rate limiting
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	return LoadFrom(filepath.Join(home, ".autodraft"))
}

// LoadFrom loads configuration with the given config directory.
// Exposed separately so tests can point at a temporary directory.
func LoadFrom(configDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	setDefaults(v)
	v.SetDefault("data_dir", filepath.Join(configDir, "data"))

	// AUTODRAFT_MODEL_NAME overrides model_name, etc.
	v.SetEnvPrefix("AUTODRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Search credentials follow the conventional Google env names as well.
	_ = v.BindEnv("google_api_key", "AUTODRAFT_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("google_cse_id", "AUTODRAFT_GOOGLE_CSE_ID", "GOOGLE_CSE_ID")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults + env are sufficient.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("retrieval_top_k", DefaultRetrievalTopK)
	v.SetDefault("max_tool_calls", DefaultMaxToolCalls)
	v.SetDefault("server_addr", DefaultServerAddr)
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 30)
}

// Validate checks configuration values and returns the first violation found.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}
	if c.RetrievalTopK <= 0 || c.RetrievalTopK > 50 {
		return fmt.Errorf("%w: %d not in [1, 50]", ErrInvalidTopK, c.RetrievalTopK)
	}
	if c.MaxToolCalls <= 0 || c.MaxToolCalls > MaxAllowedToolCalls {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidToolBudget, c.MaxToolCalls, MaxAllowedToolCalls)
	}
	return nil
}

// SearchConfigured reports whether Google Custom Search credentials are set.
func (c *Config) SearchConfigured() bool {
	return c.GoogleAPIKey != "" && c.GoogleCSEID != ""
}

// MarshalJSON masks sensitive fields so the config can be logged safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.GoogleAPIKey != "" {
		masked.GoogleAPIKey = "***"
	}
	return json.Marshal(masked)
}
