package observe

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ParseLogLevel parses a string log level. Unknown values map to info.
func ParseLogLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// zerologLogger is a JSON structured logger backed by zerolog.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a new structured logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a new structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return newZerologLogger(LoggingConfig{Enabled: true, Level: level, Writer: w})
}

func newZerologLogger(cfg LoggingConfig) *zerologLogger {
	var out io.Writer = os.Stderr
	if cfg.Writer != nil {
		out = cfg.Writer
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	zl := zerolog.New(out).
		Level(ParseLogLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{zl: zl}
}

// WithCheck returns a logger with check context attached.
func (l *zerologLogger) WithCheck(meta CheckMeta) Logger {
	c := l.zl.With().
		Str("check.id", meta.CheckID()).
		Str("check.name", meta.Name)
	if meta.Runner != "" {
		c = c.Str("runner.name", meta.Runner)
	}
	return &zerologLogger{zl: c.Logger()}
}

func (l *zerologLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zerolog.InfoLevel, msg, fields)
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zerolog.WarnLevel, msg, fields)
}

func (l *zerologLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zerolog.ErrorLevel, msg, fields)
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zerolog.DebugLevel, msg, fields)
}

func (l *zerologLogger) log(ctx context.Context, level zerolog.Level, msg string, fields []Field) {
	// WithLevel returns nil when the level is disabled; Event methods are nil-safe.
	ev := l.zl.WithLevel(level)
	if ev == nil {
		return
	}
	ev = ev.Ctx(ctx)
	for _, f := range fields {
		if isRedactedField(f.Key) {
			ev = ev.Str(f.Key, "[REDACTED]")
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

func isRedactedField(key string) bool {
	return redactedKeys[key]
}

// nopLogger discards everything.
type nopLogger struct{}

// NopLogger returns a Logger that does nothing.
func NopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (nopLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (nopLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l nopLogger) WithCheck(meta CheckMeta) Logger                      { return l }

var _ Logger = (*zerologLogger)(nil)
