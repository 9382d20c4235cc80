package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	logger  *slog.Logger
	level   = new(slog.LevelVar)
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

func init() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetDebug toggles debug level output
func SetDebug(enabled bool) {
	if enabled {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// SetOutput sends log records to w
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupLogger sends log records to the specified log file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Check if logger is already set up
	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	logger.Info("bucketcrop log started", "at", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file and falls back to stderr
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Info("bucketcrop log closed", "at", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		isSetup = false
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Logger returns the active structured logger
func Logger() *slog.Logger {
	return current()
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	current().Info(fmt.Sprintf(format, args...))
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	current().Debug(fmt.Sprintf(format, args...))
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	current().Error(fmt.Sprintf(format, args...))
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	current().Warn(fmt.Sprintf(format, args...))
}

// LogImageProcessed logs the outcome of exporting one image
func LogImageProcessed(path string, status string, err error) {
	l := current()
	switch {
	case err != nil:
		l.Warn("image failed", "path", path, "status", status, "err", err)
	default:
		l.Debug("image processed", "path", path, "status", status)
	}
}
