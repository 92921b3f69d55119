package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	logger   *slog.Logger
	level    slog.Level
	initOnce sync.Once
)

// initLogger configures the process logger from environment variables.
// DEBUG=1 (or true/yes/on) forces debug level; otherwise LOG_LEVEL is
// consulted, defaulting to info.
func initLogger() {
	initOnce.Do(func() {
		level = slog.LevelInfo

		if debug := os.Getenv("DEBUG"); debug != "" {
			switch strings.ToLower(debug) {
			case "1", "true", "yes", "on":
				level = slog.LevelDebug
			}
		}

		if level != slog.LevelDebug {
			switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
			case "debug":
				level = slog.LevelDebug
			case "info":
				level = slog.LevelInfo
			case "warn", "warning":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			}
		}

		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}))
		slog.SetDefault(logger)
	})
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	initLogger()
	return level
}

// IsDebugEnabled returns true if debug logging is enabled.
func IsDebugEnabled() bool {
	return GetLevel() <= slog.LevelDebug
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug).
func Debug(format string, args ...interface{}) {
	initLogger()
	if level <= slog.LevelDebug {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	initLogger()
	logger.Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	initLogger()
	logger.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	initLogger()
	logger.Error(fmt.Sprintf(format, args...))
}

// Fatal logs an error message and exits.
func Fatal(format string, args ...interface{}) {
	initLogger()
	logger.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
