// Package logger holds the process-wide slog logger shared by the heapkit
// commands. Output is discarded until Init or SetWriter is called.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance. It's initialized to discard all output by default.
var L *slog.Logger = discard()

const (
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	App     string     // Log file prefix and directory name. Default: heapkit
	LogDir  string     // Directory for log files. Default: ~/.<App>/logs
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
}

// Init configures file logging. Call from main() before any log calls.
// One JSON file is written per day and files older than 30 days are removed.
func Init(opts Options) error {
	if !opts.Enabled {
		L = discard()
		return nil
	}

	app := opts.App
	if app == "" {
		app = "heapkit"
	}

	logDir := opts.LogDir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		logDir = filepath.Join(home, "."+app, "logs")
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	prefix := app + "-"
	cleanOldLogs(logDir, prefix, time.Now())

	filename := filepath.Join(logDir, prefix+time.Now().Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	L = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level}))
	return nil
}

// SetWriter sends text-formatted logs at level and above to w.
// Used by the CLI to mirror --verbose output to stderr.
func SetWriter(w io.Writer, level slog.Level) {
	L = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cleanOldLogs removes prefix-dated log files older than retentionDays.
func cleanOldLogs(logDir, prefix string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// heapexplorer-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), prefix)
		logDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
