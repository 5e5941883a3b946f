package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesEntryShape(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithWriter("barista", "debug", &buf)
	require.NoError(t, err)

	log.Error("brew_interrupted", "brew stopped", "req-1", map[string]interface{}{"kind": "tea"}, errors.New("boom"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "barista", entry.Service)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "brew_interrupted", entry.Action)
	assert.Equal(t, "brew stopped", entry.Message)
	assert.Equal(t, "tea", entry.Details["kind"])
	require.NotNil(t, entry.Error)
	assert.Equal(t, "boom", entry.Error.Msg)
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithWriter("barista", "warn", &buf)
	require.NoError(t, err)

	log.Debug("a", "hidden", "", nil)
	log.Info("b", "hidden", "", nil)
	log.Warn("c", "shown", "", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"action":"c"`)
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.Error(t, err)

	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, "info", lvl.String())
}
