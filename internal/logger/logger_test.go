package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewJSONFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("DEBUG", "")

	var buf bytes.Buffer
	newWithWriter(&buf, "api").Info("hello", slog.Int("n", 1))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "{"), out)
	require.Contains(t, out, `"service":"api"`)
	require.Contains(t, out, `"n":1`)
}

func TestDebugOverride(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DEBUG", "true")

	var buf bytes.Buffer
	newWithWriter(&buf, "api").Debug("visible")
	require.Contains(t, buf.String(), "visible")
}
