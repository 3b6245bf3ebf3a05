package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Environment variables configuring the logger.
const (
	envLogPath   = "FERRISDB_LOG"
	envLogFormat = "FERRISDB_LOG_FORMAT"
	envLogLevel  = "FERRISDB_LOG_LEVEL"
)

var (
	mu            sync.Mutex
	std           *slog.Logger
	logFile       *os.File
	isInitialized bool
)

// InitFromEnv initializes the logger from FERRISDB_LOG, FERRISDB_LOG_FORMAT
// and FERRISDB_LOG_LEVEL. Without FERRISDB_LOG it writes to stderr.
func InitFromEnv() error {
	return Init(os.Getenv(envLogPath), os.Getenv(envLogFormat), os.Getenv(envLogLevel))
}

// Init initializes the logger. An empty path logs to stderr; otherwise
// parent directories are created and the file is opened in append mode.
// format is "json" or text; level is debug, info, warn or error.
func Init(path, format, level string) error {
	mu.Lock()
	defer mu.Unlock()
	if isInitialized {
		return nil
	}
	var w io.Writer = os.Stderr
	if path != "" {
		if err := ensureParentDir(path); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = f
		w = f
	}
	std = slog.New(newHandler(w, format, parseLevel(level)))
	isInitialized = true
	return nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Close closes the underlying log file, if open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		std = nil
		isInitialized = false
		return err
	}
	return nil
}

// Debugf logs verbose diagnostics.
func Debugf(format string, args ...any) { write(slog.LevelDebug, format, args...) }

// Infof logs informational messages.
func Infof(format string, args ...any) { write(slog.LevelInfo, format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write(slog.LevelWarn, format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write(slog.LevelError, format, args...) }

func write(level slog.Level, format string, args ...any) {
	mu.Lock()
	l := std
	mu.Unlock()
	if l == nil {
		// Fallback: initialize with default if not already.
		_ = InitFromEnv()
		mu.Lock()
		l = std
		mu.Unlock()
	}
	if l != nil {
		l.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Printer adapts the package logger to Print-style interfaces such as chi's
// middleware.LoggerInterface. Entries are logged at info level.
type Printer struct{}

func (Printer) Print(v ...any) {
	write(slog.LevelInfo, "%s", strings.TrimRight(fmt.Sprint(v...), "\n"))
}
