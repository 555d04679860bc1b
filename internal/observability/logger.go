package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// NewLogger creates a new slog.Logger with JSON output and UTC timestamps
func NewLogger(level string) *slog.Logger {
	return NewLoggerWithWriter(level, os.Stdout)
}

// NewLoggerWithWriter is NewLogger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano)),
				}
			}
			return a
		},
	})

	return slog.New(handler).With("service", "eoltrack")
}
