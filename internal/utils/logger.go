package utils

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the structured logger for the application
type Logger struct {
	logger log.Logger
}

// NewLogger creates a JSON logger writing to stderr, tagged with the component name
func NewLogger(component string) *Logger {
	return NewLoggerWithWriter(os.Stderr, component)
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(w io.Writer, component string) *Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(w))
	l = log.With(l, "ts", log.DefaultTimestampUTC, "component", component)
	return &Logger{logger: l}
}

// NopLogger discards everything
func NopLogger() *Logger {
	return &Logger{logger: log.NewNopLogger()}
}

// With returns a child logger carrying the extra key/value pairs
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{logger: log.With(l.logger, keyvals...)}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	_ = level.Debug(l.logger).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

// Info logs an informational message
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	_ = level.Info(l.logger).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

// Warn logs a warning
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	_ = level.Warn(l.logger).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	_ = level.Error(l.logger).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}
