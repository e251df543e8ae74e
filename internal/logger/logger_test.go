package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf})

	log.Debug("hidden")
	log.Trace("hidden too")
	log.Info("shown")
	log.Warn("warned")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "warn", lines[1]["level"])
}

func TestLoggerTraceNeedsVerbosityTwo(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf, Verbosity: 1}).Trace("no")
	assert.Empty(t, buf.String())

	New(Config{Output: &buf, Verbosity: 2}).Trace("yes")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "yes", lines[0]["message"])
	assert.Equal(t, true, lines[0]["trace"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).WithFields(Fields{"component": "scan"})
	log.Info("started")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "scan", lines[0]["component"])
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.WithFields(Fields{"a": 1}).Error("ignored")
}
