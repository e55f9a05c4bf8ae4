package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options configures the global logger.
type Options struct {
	Dir            string
	RetentionWeeks int
	MaxFileSize    int64
	Level          string // debug, info, warn or error
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = "logs"
	}
	if o.RetentionWeeks <= 0 {
		o.RetentionWeeks = 4
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 100 * 1024 * 1024
	}
	return o
}

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var (
	DefaultLoggingService *LoggingService
	mu                    sync.Mutex
)

// InitLogger initializes the global logger instance
func InitLogger(opts Options) {
	logger, file := SetupLogger(opts)

	mu.Lock()
	defer mu.Unlock()
	DefaultLoggingService = &LoggingService{Logger: logger, file: file}
	slog.SetDefault(logger)
}

// Close flushes and closes the log file, falling back to console logging.
func Close() error {
	mu.Lock()
	svc := DefaultLoggingService
	DefaultLoggingService = nil
	mu.Unlock()

	if svc == nil || svc.file == nil {
		return nil
	}
	return svc.file.Close()
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
func ParseLogLevel(level string) slog.Level {
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

// Logger returns the global logger, or a console logger if InitLogger was not called.
func Logger() *slog.Logger {
	mu.Lock()
	svc := DefaultLoggingService
	mu.Unlock()

	if svc == nil || svc.Logger == nil {
		// Fallback to console logger if not initialized
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: RedactAttr,
		}))
	}
	return svc.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
