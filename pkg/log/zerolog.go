package log

import (
	"context"
	"io"
	"time"

	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/rs/zerolog"
)

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a zerolog backed Logger writing to w.
// format is FormatJSON for one JSON object per line or FormatConsole for
// human readable output.
func NewZerologLogger(w io.Writer, level Level, format string) (Logger, error) {
	switch format {
	case FormatJSON, "":
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	default:
		return nil, errors.NewValidationError("logging.format", "must be one of json, console", format)
	}
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}, nil
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.emit(z.zl.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.emit(z.zl.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.emit(z.zl.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...any) { z.emit(z.zl.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...any) Logger {
	errs, kv := splitFields(fields)
	ctx := z.zl.With()
	for _, err := range errs {
		ctx = ctx.AnErr(ErrAttrKey, err)
	}
	if len(kv) > 0 {
		ctx = ctx.Fields(kv)
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	errs, kv := splitFields(fields)
	for _, err := range errs {
		e = e.AnErr(ErrAttrKey, err)
		if st := extractStacktrace(err); st != "" {
			e = e.Str(StacktraceAttrKey, st)
		}
		var m zerolog.LogObjectMarshaler
		if errors.As(err, &m) {
			e = e.Object("error_detail", m)
		}
	}
	if len(kv) > 0 {
		e = e.Fields(kv)
	}
	e.Msg(msg)
}

// splitFields separates errors passed in key position from key-value pairs.
func splitFields(fields []any) ([]error, []any) {
	var errs []error
	kv := make([]any, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if err, ok := fields[i].(error); ok {
			errs = append(errs, err)
			continue
		}
		if i+1 >= len(fields) {
			break
		}
		kv = append(kv, fields[i], fields[i+1])
		i++
	}
	return errs, kv
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
