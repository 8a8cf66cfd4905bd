package logging

import (
	"context"
	"log/slog"
	"os"
)

// Logger is a thin wrapper around slog.Logger so the rest of the
// application does not depend on the handler choice directly.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger. Development mode uses a human-readable
// text handler at debug level; production uses JSON at info level.
func NewLogger(development bool) *Logger {
	var handler slog.Handler
	if development {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a logger with the given fields attached to every record.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Log forwards to slog.Logger.Log, keeping the context-aware signature.
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, level, msg, args...)
}
