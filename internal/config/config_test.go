package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "llama3-8b-8192", cfg.OracleModel)
	assert.Equal(t, 5, cfg.OracleMaxTokens)
	assert.Equal(t, 4, cfg.ValidationConcurrency)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("NAZE_PORT", "9999")
	t.Setenv("NAZE_ORACLE_MODEL", "llama-3.1-70b-versatile")
	t.Setenv("NAZE_ORACLE_TIMEOUT", "5s")
	t.Setenv("NAZE_VALIDATION_CONCURRENCY", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.OracleModel)
	assert.Equal(t, 5*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 1, cfg.ValidationConcurrency)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("NAZE_PORT", "not-a-number")
	t.Setenv("NAZE_ORACLE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
}

func TestValidate(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "GROQ_API_KEY")
	})

	t.Run("bad max tokens", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "gsk_test")
		t.Setenv("NAZE_ORACLE_MAX_TOKENS", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "NAZE_ORACLE_MAX_TOKENS")
	})
}
