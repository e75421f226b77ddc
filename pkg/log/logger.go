package log

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Backend and format names accepted by SetupLogger.
const (
	BackendZerolog = "zerolog"
	BackendSlog    = "slog"

	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = mustDefaultLogger()
)

func mustDefaultLogger() Logger {
	l, err := NewZerologLogger(os.Stderr, LevelInfo, FormatJSON)
	if err != nil {
		panic(err)
	}
	return l
}

// SetupLogger function setup logger.
// It builds the requested backend writing to stdout, installs it as the global
// logger and routes warnings raised through errors.Warn into it.
func SetupLogger(level, format, backend string) (Logger, error) {
	lvl, err := ToLogLevel(level)
	if err != nil {
		return nil, err
	}

	var logger Logger
	switch backend {
	case BackendZerolog, "":
		logger, err = NewZerologLogger(os.Stdout, lvl, format)
		if err != nil {
			return nil, err
		}
	case BackendSlog:
		handler, err := newSlogHandler(lvl, format)
		if err != nil {
			return nil, err
		}
		logger = NewSlogLogger(handler)
		slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
	default:
		return nil, errors.NewValidationError("logging.backend", "must be one of zerolog, slog", backend)
	}

	SetLogger(logger)
	return logger, nil
}

// newSlogHandler keeps the CloudLogging key layout for JSON output.
func newSlogHandler(level Level, format string) (slog.Handler, error) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	switch format {
	case FormatJSON, "":
		return slog.NewJSONHandler(os.Stdout, &ops), nil
	case FormatConsole:
		ops.ReplaceAttr = nil
		return slog.NewTextHandler(os.Stdout, &ops), nil
	default:
		return nil, errors.NewValidationError("logging.format", "must be one of json, console", format)
	}
}

// SetLogger replaces the global logger. Warnings raised through errors.Warn
// are logged at warn level on the new logger.
func SetLogger(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	warnLogger := logger.With(ComponentKey, "warnings")
	errors.SetZerologWarnFunc(func(w error) {
		warnLogger.Warn(w.Error(), ErrorTypeKey, fmt.Sprintf("%T", w))
	})
}

// GetLogger returns the global logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// GetLoggerWithName returns the global logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch level {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("logging.level", "must be one of debug, info, warn, error", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
