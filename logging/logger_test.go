package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptureLogger(level LogLevel) (*RunLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf}), buf
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestRunLogger_KeyValueArgs(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelInfo)

	logger.Info("run.round.start", "agent", "Support", "round", 2)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "run.round.start", entries[0]["msg"])
	assert.Equal(t, "Support", entries[0]["agent"])
	assert.Equal(t, float64(2), entries[0]["round"])
}

func TestRunLogger_LevelFiltering(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelWarn)

	logger.Info("suppressed")
	logger.Warn("kept")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestRunLogger_WithConversation(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelInfo)

	logger.WithConversation("conv1", "turn1").Info("scoped")
	logger.Info("unscoped")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "conv1", entries[0]["conversation_id"])
	assert.Equal(t, "turn1", entries[0]["turn_id"])
	assert.NotContains(t, entries[1], "conversation_id")
}

func TestRunLogger_WithComponent(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelInfo)

	logger.WithComponent("coordinator").Info("scoped")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "coordinator", entries[0]["component"])
}

func TestScope(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelInfo)

	Scope(logger, "conv1", "turn1").Info("scoped")
	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "conv1", entries[0]["conversation_id"])

	// Loggers without scoping support pass through unchanged.
	plain := NoOpLogger{}
	assert.Equal(t, Logger(plain), Scope(plain, "conv1", "turn1"))
}

func TestLogToolCall(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelDebug)

	LogToolCall(logger, "Support", "lookup", 5*time.Millisecond, nil)
	LogToolCall(logger, "Support", "lookup", 5*time.Millisecond, errors.New("boom"))

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "tool.call.completed", entries[0]["msg"])
	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "lookup", entries[0]["tool"])
	assert.Equal(t, "tool.call.failed", entries[1]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLogTurn(t *testing.T) {
	logger, buf := newCaptureLogger(LogLevelInfo)

	LogTurn(logger, "Support", 3, 20*time.Millisecond, nil)
	LogTurn(logger, "Support", 1, 20*time.Millisecond, errors.New("model call failed"))

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "turn.completed", entries[0]["msg"])
	assert.Equal(t, float64(3), entries[0]["rounds"])
	assert.Equal(t, "turn.failed", entries[1]["msg"])
	assert.Equal(t, "model call failed", entries[1]["error"])
}
