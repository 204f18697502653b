package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultModelName, cfg.ModelName)
	assert.Equal(t, DefaultEmbedderModel, cfg.EmbedderModel)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, DefaultRetrievalTopK, cfg.RetrievalTopK)
	assert.Equal(t, DefaultMaxToolCalls, cfg.MaxToolCalls)
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "model_name: gemini-2.5-pro\nretrieval_top_k: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.ModelName)
	assert.Equal(t, 8, cfg.RetrievalTopK)
	// Unspecified values keep defaults.
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
}

func TestLoadFromEnvOverride(t *testing.T) {
	t.Setenv("AUTODRAFT_MODEL_NAME", "gemini-2.0-flash")
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("GOOGLE_CSE_ID", "test-cse")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.ModelName)
	assert.True(t, cfg.SearchConfigured())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ModelName:     DefaultModelName,
			EmbedderModel: DefaultEmbedderModel,
			Temperature:   0.2,
			ChunkSize:     1000,
			ChunkOverlap:  200,
			RetrievalTopK: 4,
			MaxToolCalls:  3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"empty model", func(c *Config) { c.ModelName = " " }, ErrInvalidModelName},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunking},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, ErrInvalidChunking},
		{"zero top-k", func(c *Config) { c.RetrievalTopK = 0 }, ErrInvalidTopK},
		{"tool budget too large", func(c *Config) { c.MaxToolCalls = 100 }, ErrInvalidToolBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
	})
}

func TestMarshalJSONMasksSecrets(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "super-secret", GoogleCSEID: "cse-id"}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), `"google_api_key":"***"`)
	// CSE ID is an identifier, not a credential.
	assert.Contains(t, string(data), "cse-id")
}
