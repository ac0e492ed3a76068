package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/roster-console/src/pipeline"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, pipeline.DefaultLoadLimit, cfg.HistoryLoadLimit)
	// An empty secret is replaced by a generated one
	assert.Len(t, cfg.JWTSecret, 32)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("JWT_SECRET", "configured-secret")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SECURE_COOKIE", "yes")
	t.Setenv("HISTORY_LOAD_LIMIT", "5")
	t.Setenv("HISTORY_EXHAUSTION", "pagination")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "configured-secret", cfg.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.SecureCookie)
	assert.Equal(t, pipeline.AccumulatorConfig{LoadLimit: 5, Policy: pipeline.ExhaustFromPagination}, cfg.FeedConfig())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("HISTORY_EXHAUSTION", "whenever")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, pipeline.ExhaustAfterLoads, cfg.FeedConfig().Policy)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_URL=redis://cache:6379/0\nPORT=7070\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("REDIS_URL")
	})
	// Already-set variables win over the file
	t.Setenv("PORT", "6060")

	cfg := Load()

	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 6060, cfg.Port)
}
