package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/agri-advisory-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. It
// writes to stdout and becomes the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// NewLoggerTo is NewLogger with an explicit destination, for commands whose
// stdout carries data. Unknown levels fall back to info and unknown formats
// to JSON. The slog default is left untouched.
func NewLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(strings.TrimSpace(cfg.LogFormat), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
