// Package logging provides leveled, structured JSON logging for the audit
// engine. One JSON object is written per line; run-level events log at info,
// per-fitting decisions at debug.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log priorities from debug up.
type Level int

const (
	// DebugLevel carries per-fitting decision detail; disabled in production runs
	DebugLevel Level = iota
	// InfoLevel is the default logging priority
	InfoLevel
	// WarnLevel marks conditions worth noticing but not acting on
	WarnLevel
	// ErrorLevel is high-priority; a clean run emits none
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level's wire name.
func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name case-insensitively; anything unknown
// becomes InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// Logger is the interface the engine logs through.
type Logger interface {
	// Debug logs a debug-level message
	Debug(msg string, fields ...Field)
	// Info logs an info-level message
	Info(msg string, fields ...Field)
	// Warn logs a warning-level message
	Warn(msg string, fields ...Field)
	// Error logs an error-level message
	Error(msg string, fields ...Field)
	// With creates a child logger with the given fields pre-set
	With(fields ...Field) Logger
	// SetLevel sets the minimum log level
	SetLevel(level Level)
	// GetLevel returns the current log level
	GetLevel() Level
}

// entry is the wire shape of one log line
type entry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// JSONLogger writes one JSON object per line to a writer. Child loggers
// from With share the writer but carry their own preset fields.
type JSONLogger struct {
	writer io.Writer
	enc    *json.Encoder
	level  Level
	preset []Field
	mu     sync.Mutex
}

// NewJSONLogger creates a logger emitting to the given writer at the
// given minimum level.
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		writer: writer,
		enc:    json.NewEncoder(writer),
		level:  level,
	}
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	line := entry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.preset) + len(fields); n > 0 {
		line.Fields = make(map[string]any, n)
		for _, f := range l.preset {
			line.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			line.Fields[f.Key] = f.Value
		}
	}

	if err := l.enc.Encode(line); err != nil {
		// Keep the stream line-oriented even when a field value refuses
		// to marshal.
		fmt.Fprintf(l.writer, "{\"level\":\"ERROR\",\"msg\":\"log line dropped: %v\"}\n", err)
	}
}

// Debug logs a debug-level message.
func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }

// Info logs an info-level message.
func (l *JSONLogger) Info(msg string, fields ...Field) { l.log(InfoLevel, msg, fields...) }

// Warn logs a warning-level message.
func (l *JSONLogger) Warn(msg string, fields ...Field) { l.log(WarnLevel, msg, fields...) }

// Error logs an error-level message.
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With returns a child logger whose lines always carry the given fields.
func (l *JSONLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := NewJSONLogger(l.writer, l.level)
	child.preset = append(append([]Field(nil), l.preset...), fields...)
	return child
}

// SetLevel sets the minimum level emitted.
func (l *JSONLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the minimum level emitted.
func (l *JSONLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// NopLogger discards everything. Tests that assert on behavior rather
// than log output use it.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return InfoLevel }

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() Logger {
	return NopLogger{}
}

var (
	defaultLogger Logger
	once          sync.Once
)

// DefaultLogger returns the process-wide default logger. It writes to
// stderr so stdout stays free for the run summary; FITFIX_LOG_LEVEL
// overrides the level.
func DefaultLogger() Logger {
	once.Do(func() {
		level := InfoLevel
		if levelStr := os.Getenv("FITFIX_LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultLogger = NewJSONLogger(os.Stderr, level)
	})
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide default logger.
func SetDefaultLogger(logger Logger) {
	once.Do(func() {})
	defaultLogger = logger
}
