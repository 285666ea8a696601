package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoisimRo/Flashcards-sub000/internal/config"
)

func TestSetupLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{name: "debug level", level: "debug", expected: slog.LevelDebug},
		{name: "info level", level: "info", expected: slog.LevelInfo},
		{name: "warn level", level: "warn", expected: slog.LevelWarn},
		{name: "error level", level: "error", expected: slog.LevelError},
		{name: "mixed case", level: "WARN", expected: slog.LevelWarn},
		{name: "invalid falls back to info", level: "bogus", expected: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: tc.level})
			require.NoError(t, err)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expected))
			if tc.expected > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tc.expected-4))
			}
		})
	}
}

func TestFromContextDefault(t *testing.T) {
	t.Parallel()

	// No logger in context: falls back to the global default
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), custom)

	assert.Equal(t, custom, FromContext(ctx))
	assert.Equal(t, custom, FromContextOrDefault(ctx, nil))
}

func TestFromContextOrDefaultFallback(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))
	got := FromContextOrDefault(context.Background(), fallback)
	assert.Equal(t, fallback, got)

	// Nil fallback degrades to the global default
	assert.Equal(t, slog.Default(), FromContextOrDefault(context.Background(), nil))
}
