// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New creates a structured logger writing to w. Level is one of
// debug, info, warn, error; format is json or text. Unknown values
// fall back to info and json. Source locations are attached at warn
// and below so error logs point at their call site.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelWarn,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
