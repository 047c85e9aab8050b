// Package logger provides structured logging for the ETL run.
// It wraps the standard log/slog package so every stage logs with the same
// field names (snake_case) and the same handler.
//
// Two output formats are supported:
//   - JSON (default): machine-readable structured logs
//   - text: slog's key=value console format
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the process-wide logger. Stages should prefer the *slog.Logger
// returned by WithRun so run/job attributes are attached.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Configure replaces Logger with a handler of the given format ("json" or
// "text") and level ("debug", "info", "warn", "error") writing to w.
func Configure(format, level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		Logger = slog.New(slog.NewJSONHandler(w, opts))
	case "text", "human":
		Logger = slog.New(slog.NewTextHandler(w, opts))
	default:
		return fmt.Errorf("logger: unknown format %q", format)
	}
	return nil
}

// SetLevel keeps the JSON handler on stderr but changes the minimum level.
func SetLevel(level slog.Level) {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
	}
}

// WithRun returns a logger carrying the run id and job name.
func WithRun(runID, job string) *slog.Logger {
	return Logger.With("run_id", runID, "job", job)
}

// StageStart logs the beginning of a pipeline stage.
func StageStart(l *slog.Logger, stage string) {
	l.Info("stage started", "stage", stage)
}

// StageEnd logs the outcome of a pipeline stage with its row count and
// duration. A non-nil err is logged at error level.
func StageEnd(l *slog.Logger, stage string, rows int, d time.Duration, err error) {
	if err != nil {
		l.Error("stage failed",
			"stage", stage,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	l.Info("stage completed",
		"stage", stage,
		"rows", rows,
		"duration_ms", d.Milliseconds(),
	)
}
