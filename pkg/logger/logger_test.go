package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/pkg/config"
)

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{name: "debug level", level: "debug", wantLevel: zerolog.DebugLevel},
		{name: "info level", level: "info", wantLevel: zerolog.InfoLevel},
		{name: "warn level", level: "warn", wantLevel: zerolog.WarnLevel},
		{name: "warning alias", level: "warning", wantLevel: zerolog.WarnLevel},
		{name: "error level", level: "error", wantLevel: zerolog.ErrorLevel},
		{name: "unknown falls back to info", level: "whatever", wantLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Env:       "development",
				LogLevel:  tt.level,
				LogFormat: "json",
			}

			log := New(cfg)
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestWithFields_ReturnsNewLogger(t *testing.T) {
	log := NewNop()

	child := log.WithFields(map[string]interface{}{
		"security": "AAPL",
		"week":     34,
	})

	require.NotNil(t, child)
	assert.NotSame(t, log, child)

	// Chaining must not panic on a nop logger
	child.WithField("phase", "warmup").Info("ok")
	child.WithError(assert.AnError).Warn("ok")
}
