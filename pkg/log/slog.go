package log

import (
	"context"
	"log/slog"
)

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps handler with ErrFmtHandler so that errors passed to the
// logger carry their cockroachdb stacktrace.
func NewSlogLogger(handler slog.Handler) Logger {
	return &slogLogger{l: slog.New(WrapByErrFmtHandler(handler))}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, slogArgs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, slogArgs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, slogArgs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, slogArgs(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(slogArgs(fields)...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// slogArgs turns errors in key position into ErrAttr so slog does not report !BADKEY.
func slogArgs(fields []any) []any {
	errs, kv := splitFields(fields)
	args := make([]any, 0, len(errs)+len(kv))
	for _, err := range errs {
		args = append(args, ErrAttr(err))
	}
	return append(args, kv...)
}
