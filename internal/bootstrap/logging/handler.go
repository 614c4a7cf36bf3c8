package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// NewHandler picks the slog handler for the given environment: colorized
// console output for local development, JSON everywhere else.
func NewHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if env == "local" || env == "dev" {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
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
