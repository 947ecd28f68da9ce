// Package logger provides a small levelled, structured logger for expansion.
//
// Messages are written as a single line with key=value fields. A Logger can
// be carried through a context.Context so that nested components log with
// the fields (run id, document) of the expansion they belong to.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the string representation of the level.
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
		return ""
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error", "none").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "none", "off":
		return LevelNone, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// sink is shared between a Logger and the children derived with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	now    func() time.Time
}

// Logger writes structured log lines.
type Logger struct {
	sink   *sink
	prefix string
	fields []any
}

var defaultLogger = New(os.Stderr, LevelWarn)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// New creates a new logger.
func New(output io.Writer, level Level) *Logger {
	return &Logger{
		sink:   &sink{level: level, output: output, now: time.Now},
		prefix: "jsonld",
	}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard, LevelNone)
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && l.sink.level != LevelNone
}

// With returns a child logger that adds the given key/value pairs to every
// message. The child shares level and output with its parent.
func (l *Logger) With(kv ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(kv))
	fields = append(fields, l.fields...)
	fields = append(fields, kv...)
	return &Logger{sink: l.sink, prefix: l.prefix, fields: fields}
}

func (l *Logger) log(level Level, msg string, kv []any) {
	if !l.Enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(l.sink.now().Format("15:04:05.000"))
	b.WriteString("] ")
	b.WriteString(l.prefix)
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)
	writeFields(&b, l.fields)
	writeFields(&b, kv)
	b.WriteByte('\n')

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.output, b.String())
}

func writeFields(b *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 >= len(kv) {
			b.WriteString("MISSING")
			break
		}
		b.WriteString(formatValue(kv[i+1]))
	}
}

func formatValue(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case error:
		s = t.Error()
	case time.Duration:
		return t.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(LevelDebug, msg, kv)
}

// Info logs an info message.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(LevelInfo, msg, kv)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(LevelWarn, msg, kv)
}

// Error logs an error message.
func (l *Logger) Error(msg string, kv ...any) {
	l.log(LevelError, msg, kv)
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or the default logger.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return defaultLogger
}

// Package-level convenience functions.

// Debug logs a debug message using the default logger.
func Debug(msg string, kv ...any) {
	defaultLogger.Debug(msg, kv...)
}

// Info logs an info message using the default logger.
func Info(msg string, kv ...any) {
	defaultLogger.Info(msg, kv...)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, kv ...any) {
	defaultLogger.Warn(msg, kv...)
}

// Error logs an error message using the default logger.
func Error(msg string, kv ...any) {
	defaultLogger.Error(msg, kv...)
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// Disable disables all logging.
func Disable() {
	defaultLogger.SetLevel(LevelNone)
}
