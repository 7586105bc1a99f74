package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := base
	Set(New(core))
	t.Cleanup(func() { Set(prev) })
	return logs
}

func TestInit(t *testing.T) {
	prev := base
	t.Cleanup(func() { Set(prev) })

	Init("development")
	assert.NotNil(t, log)
	Init("production")
	assert.NotNil(t, L())
}

func TestInfo(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	Info("slot claimed", "resource_id", "r-1", "time", "10:00")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "slot claimed", entry.Message)
	assert.Equal(t, "r-1", entry.ContextMap()["resource_id"])
	assert.Equal(t, "10:00", entry.ContextMap()["time"])
}

func TestErrorf(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	Errorf("test %s", "error")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test error", logs.All()[0].Message)
	assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
}

func TestDebugFilteredByLevel(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	Debug("hidden")
	Debugf("hidden %d", 1)

	assert.Equal(t, 0, logs.Len())
}

func TestDebug(t *testing.T) {
	logs := observe(t, zap.DebugLevel)

	Debug("test debug")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test debug", logs.All()[0].Message)
}

func TestWarn(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	Warn("queue slow", "length", 12)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	assert.EqualValues(t, 12, logs.All()[0].ContextMap()["length"])
}

func TestWithError(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	WithError(assert.AnError).Info("test with error")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, assert.AnError.Error(), logs.All()[0].ContextMap()["error"])
}

func TestWithFields(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	WithFields(map[string]interface{}{
		"key1": "value1",
		"key2": 123,
	}).Info("test with fields")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "value1", fields["key1"])
	assert.EqualValues(t, 123, fields["key2"])
}
