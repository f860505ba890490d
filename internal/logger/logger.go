package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger tagged with the service name. LOG_LEVEL picks the level,
// DEBUG=true forces debug, LOG_FORMAT=json switches to the JSON handler.
func New(service string) *slog.Logger {
	return newWithWriter(os.Stdout, service)
}

func newWithWriter(w io.Writer, service string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var h slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// Init installs a service logger as the slog default and returns it.
func Init(service string) *slog.Logger {
	l := New(service)
	slog.SetDefault(l)
	return l
}

// Discard is a logger for tests and optional components.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
