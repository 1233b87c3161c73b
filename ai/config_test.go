package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "embeddinggemma", cfg.Model)
	assert.Equal(t, 768, cfg.Dimension)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, 768, cfg.Dimension)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with custom model and dimension", func(t *testing.T) {
		cfg := NewConfig(
			WithModel("text-embedding-3-small"),
			WithDimension(1536),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.Model)
		assert.Equal(t, 1536, cfg.Dimension)
	})

	t.Run("with token", func(t *testing.T) {
		cfg := NewConfig(WithToken("sk-test"))

		assert.Equal(t, "sk-test", cfg.Token)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("strips trailing slash before adding v1", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("leaves v1 suffix alone", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/v1"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("defaults empty token", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := &Config{Model: "embeddinggemma", Dimension: 768}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/v1", Dimension: 768}
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive dimension", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/v1", Model: "embeddinggemma"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("normalizes during validation", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434", Model: "embeddinggemma", Dimension: 768}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})
}
