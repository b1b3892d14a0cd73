package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "http://localhost:8000", cfg.BackendBaseURL)
	assert.Equal(t, 3000*time.Millisecond, cfg.NormalInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.FastInterval)
	assert.Equal(t, 30000*time.Millisecond, cfg.FastWindow)
	assert.Equal(t, "tripsync", cfg.NATSSubjectPrefix)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "5000")
	t.Setenv("POLL_FAST_INTERVAL_MS", "250")
	t.Setenv("POLL_FAST_WINDOW_MS", "10000")
	t.Setenv("BACKEND_BASE_URL", "http://backend:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.NormalInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.FastInterval)
	assert.Equal(t, 10*time.Second, cfg.FastWindow)
	assert.Equal(t, "http://backend:9000", cfg.BackendBaseURL)
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsFastSlowerThanNormal(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "300")
	t.Setenv("POLL_FAST_INTERVAL_MS", "300")

	_, err := Load()
	assert.Error(t, err)
}
