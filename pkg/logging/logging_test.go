package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.SlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel(999).SlogLevel())
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LevelDebug, lvl)

	lvl, ok = ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, lvl)

	lvl, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LevelInfo, lvl)
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("Transport", "hidden")
	Info("Transport", "dialing %s", "ws://localhost/webWs")
	Error("Store", errors.New("boom"), "load failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "dialing ws://localhost/webWs")
	assert.Contains(t, out, "subsystem=Transport")
	assert.Contains(t, out, "error=boom")
}

func TestInitForREPL(t *testing.T) {
	ch := InitForREPL(LevelInfo)
	defer InitForCLI(LevelInfo, &bytes.Buffer{})

	Debug("Transport", "filtered")
	Warn("Transport", "reconnecting in %s", 3*time.Second)

	select {
	case entry := <-ch:
		assert.Equal(t, LevelWarn, entry.Level)
		assert.Equal(t, "Transport", entry.Subsystem)
		assert.Equal(t, "reconnecting in 3s", entry.Message)
	case <-time.After(time.Second):
		t.Fatal("expected a log entry on the REPL channel")
	}

	select {
	case entry := <-ch:
		t.Fatalf("unexpected entry %q", entry.Message)
	default:
	}
}

func TestCloseREPLChannel(t *testing.T) {
	ch := InitForREPL(LevelDebug)
	CloseREPLChannel()

	_, open := <-ch
	require.False(t, open)

	// Logging after close must not panic.
	Info("Console", "after close")
	InitForCLI(LevelInfo, &bytes.Buffer{})
}

func TestLogEntry_Line(t *testing.T) {
	entry := LogEntry{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     LevelError,
		Subsystem: "API",
		Message:   "request failed",
		Err:       errors.New("timeout"),
	}
	assert.Equal(t, "03:04:05 ERROR [API] request failed: timeout", entry.Line())
}
