package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug", zap.String("service", "test")))
	require.NotNil(t, Log)
	first := Log

	require.NoError(t, Init("error"))
	assert.Same(t, first, Log, "logger is built once")
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init("chatty")
	assert.Error(t, err)
}

func TestConfigure(t *testing.T) {
	cfg := configure(zapcore.WarnLevel)
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
	assert.Equal(t, "timestamp", cfg.EncoderConfig.TimeKey)
}
