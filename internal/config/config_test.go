package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 10, cfg.MaxFileDisplay)
	assert.Equal(t, 50, cfg.MaxTotalComponents)
	assert.Equal(t, 150, cfg.ComplexityLowThreshold)
	assert.Equal(t, 300, cfg.ComplexityMediumThreshold)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 120*time.Second, cfg.StreamOverallTimeout)
	assert.Equal(t, 30*time.Second, cfg.StreamInterChunkTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("COMPLETION_TEMPERATURE", "0.7")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 0.7, cfg.Temperature)
}

func TestLoad_DurationFormats(t *testing.T) {
	t.Run("plain seconds", func(t *testing.T) {
		t.Setenv("STREAM_OVERALL_TIMEOUT", "90")
		cfg := Load()
		assert.Equal(t, 90*time.Second, cfg.StreamOverallTimeout)
	})

	t.Run("go duration string", func(t *testing.T) {
		t.Setenv("STREAM_INTER_CHUNK_TIMEOUT", "45s")
		cfg := Load()
		assert.Equal(t, 45*time.Second, cfg.StreamInterChunkTimeout)
	})

	t.Run("garbage falls back to default", func(t *testing.T) {
		t.Setenv("STREAM_OVERALL_TIMEOUT", "soon")
		cfg := Load()
		assert.Equal(t, 120*time.Second, cfg.StreamOverallTimeout)
	})
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "many")
	t.Setenv("COMPLETION_TEMPERATURE", "hot")

	cfg := Load()
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 0.3, cfg.Temperature)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			RetryMaxAttempts:          3,
			StreamOverallTimeout:      120 * time.Second,
			StreamInterChunkTimeout:   30 * time.Second,
			ComplexityLowThreshold:    150,
			ComplexityMediumThreshold: 300,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("zero attempts rejected", func(t *testing.T) {
		cfg := base()
		cfg.RetryMaxAttempts = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive timeouts rejected", func(t *testing.T) {
		cfg := base()
		cfg.StreamOverallTimeout = 0
		assert.Error(t, cfg.Validate())

		cfg = base()
		cfg.StreamInterChunkTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted thresholds rejected", func(t *testing.T) {
		cfg := base()
		cfg.ComplexityLowThreshold = 300
		cfg.ComplexityMediumThreshold = 150
		assert.Error(t, cfg.Validate())
	})
}
