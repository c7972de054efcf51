package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so the rest of the codebase doesn't depend on
// the handler configuration
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger: human-readable text in development,
// JSON in production
func NewLogger(isDevelopment bool) *Logger {
	var handler slog.Handler

	if isDevelopment {
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

// WithFields returns a logger with the given fields attached to every record
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
