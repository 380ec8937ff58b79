package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	logger, err := New("", "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewConsoleDebug(t *testing.T) {
	t.Parallel()

	logger, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := New("loud", "json")
	require.ErrorContains(t, err, "parse log level")

	_, err = New("info", "xml")
	require.ErrorContains(t, err, "unsupported log format")
}

func TestPrintfNilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Printf(nil)("ignored %d", 1)
	})
}
