// Package logging builds the process-wide slog.Logger.
//
// Development gets tint's colourised, human-friendly output; production
// gets one JSON object per line so log shippers can index the fields.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a logger writing to w. env is "development" or "production";
// level is one of debug, info, warn, error (unknown values mean info).
func New(w io.Writer, env, level string) *slog.Logger {
	lvl := ParseLevel(level)
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// ParseLevel maps a config string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Err is shorthand for the conventional error attribute.
func Err(err error) slog.Attr {
	return tint.Err(err)
}
