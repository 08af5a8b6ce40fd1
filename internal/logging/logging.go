// Package logging builds the application's slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"webpulse/internal/config"
)

// NewLogger returns a logger configured from cfg. In production it writes
// JSON to a size-rotated file under the logs directory; elsewhere it writes
// human-readable text to stderr.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	if cfg.IsProduction() {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
			MaxSize:    cfg.LogsMaxSizeInMb,
			MaxBackups: cfg.LogsMaxBackups,
			MaxAge:     cfg.LogsMaxAgeInDays,
			Compress:   true,
		}
		return slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level}))
	}

	var out io.Writer = os.Stderr
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func parseLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
