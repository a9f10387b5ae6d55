package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger defines the logging interface used by the flockretry CLI.
// Info and Warning are diagnostic messages, written to the log file when
// debug logging is enabled; Error and WarningToUser are always shown to
// the user as well.
type Logger interface {
	// Info logs an informational message for debugging purposes.
	// The format string follows fmt.Printf style formatting.
	Info(format string, args ...interface{})

	// Warning logs a warning message. Shown to the user unless quiet
	// mode is on.
	Warning(format string, args ...interface{})

	// Error logs an error message. Errors are always shown to the user
	// in addition to being logged.
	Error(format string, args ...interface{})

	// WarningToUser logs a warning and always shows it to the user,
	// regardless of quiet/debug settings.
	WarningToUser(format string, args ...interface{})

	// Close flushes and closes any open log file handle. Call before the
	// application exits.
	Close() error
}

// DefaultLogger implements Logger on top of log/slog.
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	quiet   bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a Logger. When enabled is true and logFile is non-empty,
// diagnostic messages are written there as slog text records. quiet
// suppresses non-error user-facing output.
func New(enabled bool, logFile string, quiet bool) Logger {
	return NewWithOutput(enabled, logFile, quiet, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers.
func NewWithOutput(enabled bool, logFile string, quiet bool, stdout, stderr io.Writer) *DefaultLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var logger *slog.Logger
	var file *os.File

	if enabled && logFile != "" {
		logDir := filepath.Dir(logFile)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				_, _ = fmt.Fprintf(stderr, "⚠️ Failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			file = f
			logger = slog.New(slog.NewTextHandler(f, opts))
		} else {
			logger = slog.New(slog.NewTextHandler(stderr, opts))
			_, _ = fmt.Fprintf(stderr, "⚠️ Failed to open log file: %v, using stderr instead\n", err)
		}
	} else {
		logger = slog.New(slog.NewTextHandler(stderr, opts))
	}

	return &DefaultLogger{
		logger:  logger,
		enabled: enabled,
		quiet:   quiet,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
	}
}

// Info logs an informational message (log file only).
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	l.logger.Info(fmt.Sprintf(format, args...))
}

// Warning logs a warning message; shown to the user unless quiet is set.
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	if !l.quiet {
		_, _ = fmt.Fprintf(l.stderr, "⚠️  %s\n", msg)
	}
}

// WarningToUser logs a warning and always shows it, quiet or not.
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	_, _ = fmt.Fprintf(l.stderr, "⚠️  %s\n", msg)
}

// Error logs an error message. Always shown to the user.
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Error(msg)
	}

	_, _ = fmt.Fprintf(l.stderr, "❌ %s\n", msg)
}

// Close ensures any buffered data is written and closes the log file.
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return err
		}
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetStderr sets a custom writer for user-facing messages only.
// Primarily intended for testing; does not redirect slog records.
func (l *DefaultLogger) SetStderr(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}
