// Package logger holds the process-wide structured logger for buddyctl.
//
// Logging is off unless a command asks for it. When on, every record goes
// to one JSON file per day and carries the running subcommand; loggers
// handed to an allocator additionally carry the arena they manage.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger. It discards everything until Init enables it.
var L = discard()

const (
	filePrefix = "buddyctl-"
	fileSuffix = ".log"
	dateLayout = "2006-01-02"

	// DefaultRetention is how long daily files are kept.
	DefaultRetention = 30 * 24 * time.Hour
)

// Options configures Init.
type Options struct {
	Enabled   bool          // If false, all logging is discarded
	Dir       string        // Default: ~/.buddyctl/logs
	Level     slog.Level    // Minimum level. The zero value is LevelInfo
	Command   string        // Subcommand name attached to every record
	Retention time.Duration // Default: DefaultRetention
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Init configures L and returns a func that closes the log file.
func Init(opts Options) (func() error, error) {
	if !opts.Enabled {
		L = discard()
		return func() error { return nil }, nil
	}

	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".buddyctl", "logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	now := time.Now()
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	pruneLogs(dir, now.Add(-retention))

	f, err := os.OpenFile(filePath(dir, now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	l := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level}))
	if opts.Command != "" {
		l = l.With(slog.String("cmd", opts.Command))
	}
	L = l.With(slog.Int("pid", os.Getpid()))
	return f.Close, nil
}

// ForArena returns L tagged with the allocator configuration and arena
// size, for use as the allocator's own logger.
func ForArena(config string, size int, mapped bool) *slog.Logger {
	return L.With(slog.Group("arena",
		slog.String("config", config),
		slog.Int("size", size),
		slog.Bool("mapped", mapped)))
}

// filePath names the log file for the day of t.
func filePath(dir string, t time.Time) string {
	return filepath.Join(dir, filePrefix+t.Format(dateLayout)+fileSuffix)
}

// logDate extracts the date from a log file name.
func logDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// pruneLogs removes daily files dated before cutoff. Errors are ignored.
func pruneLogs(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if d, ok := logDate(e.Name()); ok && d.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

// Debug logs at debug level on L.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at info level on L.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at warn level on L.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at error level on L.
func Error(msg string, args ...any) { L.Error(msg, args...) }
