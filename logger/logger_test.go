package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_RejectsUnknownLevel(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	err := Init("loud", false)
	require.Error(t, err)
	assert.Same(t, prev, Log, "failed Init must not replace the logger")
}

func TestInit_Development(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	require.NoError(t, Init("debug", true))
	assert.True(t, Log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestSet_ObservedCore(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	Log.Infow("panel enabled", "player", 1)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panel enabled", logs.All()[0].Message)

	Set(nil)
	Log.Info("dropped")
	assert.Equal(t, 1, logs.Len())
}
