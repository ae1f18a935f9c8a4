package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON records to stdout, tagged with the service name.
func NewLogger(service, level string) *Logger {
	return NewLoggerTo(os.Stdout, service, level)
}

func NewLoggerTo(w io.Writer, service, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	return &Logger{Logger: l}
}

// NopLogger discards everything. Used by tests and library callers that do
// not care about logs.
func NopLogger() *Logger {
	return NewLoggerTo(io.Discard, "", "error")
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
