package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "API_BASE_URL", "DEFAULT_MODEL", "LOG_LEVEL", "MINDCHAT_STATE_PATH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.APIBaseURL)
	assert.Equal(t, "gpt-4-turbo", cfg.DefaultModel)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Empty(t, cfg.StatePath)
}

func TestLoadBot(t *testing.T) {
	unsetEnv(t, "RATE_LIMIT_PER_MINUTE", "BOT_DROP_PENDING_UPDATES")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/mindchat")
	t.Setenv("ADMIN_IDS", "1,42")
	t.Setenv("API_BASE_URL", "https://mind.example/api/v1")

	cfg, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "https://mind.example/api/v1", cfg.APIBaseURL)
	assert.Equal(t, []int64{1, 42}, cfg.AdminIDs)
	assert.Equal(t, 6, cfg.RateLimitPerMinute)
	assert.False(t, cfg.DropPendingUpdates)

	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(7))
}

func TestLoadBot_MissingToken(t *testing.T) {
	unsetEnv(t, "BOT_TOKEN")
	t.Setenv("DATABASE_URL", "postgres://localhost/mindchat")

	_, err := LoadBot()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}
