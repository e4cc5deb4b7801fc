package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureFile(t *testing.T, level, format string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, Configure(level, format, path))
	t.Cleanup(func() {
		_ = Configure("INFO", "text", "stdout")
	})
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()

	require.NoError(t, Sync())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warn", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestConfigure_LevelFilters(t *testing.T) {
	path := configureFile(t, "WARN", "text")

	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("also shown")

	out := readLog(t, path)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "also shown")
	assert.Contains(t, out, "WARN")

	assert.False(t, Enabled(LevelInfo))
	assert.True(t, Enabled(LevelError))
}

func TestConfigure_JSON(t *testing.T) {
	path := configureFile(t, "DEBUG", "json")

	Debug("opened %s", "/data/f")

	line := strings.TrimSpace(readLog(t, path))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "opened /data/f", entry["msg"])
	assert.Contains(t, entry, "time")
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	configureFile(t, "ERROR", "text")

	SetLevel("chatty")
	assert.False(t, Enabled(LevelWarn))

	SetLevel("debug")
	assert.True(t, Enabled(LevelDebug))
}

func TestConfigure_BadOutput(t *testing.T) {
	err := Configure("INFO", "text", filepath.Join(t.TempDir(), "missing", "dir", "log"))
	assert.Error(t, err)
}

func TestConfigure_ClosesPreviousFile(t *testing.T) {
	first := configureFile(t, "INFO", "text")
	mu.RLock()
	firstFile := logFile
	mu.RUnlock()
	require.NotNil(t, firstFile)

	second := configureFile(t, "INFO", "text")
	Info("after switch")

	_, err := firstFile.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NotContains(t, readLog(t, first), "after switch")
	assert.Contains(t, readLog(t, second), "after switch")

	require.NoError(t, Configure("INFO", "text", "stdout"))
	mu.RLock()
	assert.Nil(t, logFile)
	mu.RUnlock()
}
