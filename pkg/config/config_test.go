package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Make sure a stray environment doesn't leak into the test
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FEED_RATE_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8087", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5.0, cfg.Feed.RateLimit)
	assert.Equal(t, "config/strategy/reversal.yaml", cfg.StrategyFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9001")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("FEED_RATE_LIMIT", "2.5")
	t.Setenv("FEED_BAR_STREAM_URL", "wss://platform.example.com/bars")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2.5, cfg.Feed.RateLimit)
	assert.Equal(t, "wss://platform.example.com/bars", cfg.Feed.BarStreamURL)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ENV", "prod")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV must be one of")
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("DB_MAX_CONN_LIFETIME", "garbage")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
}
