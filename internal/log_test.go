package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		"Warning": LogLevelWarn,
		"INFO":    LogLevelInfo,
		"debug":   LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, LogLevelWarn)

	l.Info("hidden %d", 1)
	l.Debug("hidden")
	l.Warn("shown %d", 2)
	l.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
	assert.Contains(t, out, "[ERROR] also shown")
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, LogLevelInfo).With("trend").Info("months=%d", 6)
	assert.Equal(t, "[INFO] trend: months=6\n", buf.String())
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("nothing") })
}
