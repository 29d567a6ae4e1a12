package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/logging"
)

func TestNew(t *testing.T) {
	t.Run("json at warn", func(t *testing.T) {
		logger, err := logging.New(config.LogConfig{Level: "warn", Format: "json"})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("console at debug", func(t *testing.T) {
		logger, err := logging.New(config.LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("rejects invalid level", func(t *testing.T) {
		_, err := logging.New(config.LogConfig{Level: "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "level")
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := logging.New(config.LogConfig{Level: "info", Format: "xml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "format")
	})
}
