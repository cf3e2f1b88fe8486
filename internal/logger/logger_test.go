package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/ai-todo/internal/config"
	"go.uber.org/zap"
)

func TestNew_ParsesLevel(t *testing.T) {
	log, err := New(config.Logger{Level: "warn", Format: "json"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.Logger{Level: "chatty"})
	assert.Error(t, err)
}
