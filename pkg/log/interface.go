// Package log provides the structured logging interface of the AutoML workflow.
//
// The session coordinator, the model search and the HTTP binding all log
// through Logger. The backend (zerolog by default, or log/slog) is chosen from
// configuration by SetupLogger; both backends share the attribute keys in
// attributes.go.
//
//	logger := log.GetLoggerWithName("session").With(
//	    log.DatasetNameKey, "dataset.csv",
//	)
//	logger.Info("Columns ignored",
//	    log.FeaturesIgnoredKey, []string{"id"},
//	    log.DatasetColumnsKey, 4,
//	)
package log

import (
	"context"
)

// Logger is a slog-compatible structured logger.
//
// Fields are alternating key-value pairs. An error value passed in key
// position is logged under "error"; the zerolog backend also attaches its
// stack trace and, when the error implements zerolog.LogObjectMarshaler, its
// structured detail.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)

	// Warn is used for rejected user actions and failed candidates:
	//
	//	logger.Warn("Candidate failed", err, log.ModelNameKey, "Ridge(alpha=10)")
	Warn(msg string, fields ...any)

	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level are emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level. Values match slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
