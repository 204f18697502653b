package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/autodraft/internal/log"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithWriter(&buf, log.Config{})

		logger.Info("hello", "key", "value")

		out := buf.String()
		assert.Contains(t, out, "hello")
		assert.Contains(t, out, "key=value")
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithWriter(&buf, log.Config{JSON: true})

		logger.Info("hello")

		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithWriter(&buf, log.Config{Level: slog.LevelWarn})

		logger.Debug("hidden")
		logger.Info("hidden too")
		logger.Warn("visible")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible")
	})
}

func TestNewNop(t *testing.T) {
	logger := log.NewNop()
	require.NotNil(t, logger)
	logger.Error("discarded") // must not panic
}
