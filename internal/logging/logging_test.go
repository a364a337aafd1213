package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, lvl, err := New("warn")
	require.NoError(t, err)
	defer logger.Sync()

	assert.Equal(t, zapcore.WarnLevel, lvl.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	lvl.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New("chatty")
	assert.Error(t, err)
}
