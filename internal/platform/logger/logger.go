package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bitcode/asynctask/internal/config"
)

// ParseLevel converts a configured level name (case-insensitive) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
}

// New creates a structured JSON logger writing to out at the configured level.
// An invalid level falls back to info and is reported with a warning through
// the new logger, so a misconfiguration never silences logging.
func New(out io.Writer, cfg config.LogConfig) *slog.Logger {
	level, err := ParseLevel(cfg.Level)

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)

	if err != nil {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	return logger
}

// Setup initializes the application's logging system based on the provided
// configuration. It creates a JSON logger on stderr, sets it as the default
// logger and returns it.
//
// Stderr keeps stdout free for command output.
func Setup(cfg config.LogConfig) (*slog.Logger, error) {
	if _, err := ParseLevel(cfg.Level); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	logger := New(os.Stderr, cfg)
	slog.SetDefault(logger)

	return logger, nil
}
