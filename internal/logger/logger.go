// Package logger provides the logging interface used across the handler
// framework. It supports leveled output with optional structured fields and
// ships a no-op implementation for silent operation.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the interface every component of the framework logs through.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})

	// Structured logging support
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the logging level
type LogLevel int

const (
	// LogLevelDebug enables all log messages
	LogLevelDebug LogLevel = iota
	// LogLevelInfo enables info and error messages
	LogLevelInfo
	// LogLevelError enables only error messages
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

// ParseLogLevel converts a string log level to LogLevel
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "error", "ERROR":
		return LogLevelError
	case "none", "NONE":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// StandardLogger implements Logger on top of the standard log package with
// separate output streams per level. It is safe for concurrent use.
type StandardLogger struct {
	mu       sync.RWMutex
	logError *log.Logger
	logInfo  *log.Logger
	logDebug *log.Logger
	fields   map[string]interface{}
	level    LogLevel
}

// NewStandardLogger creates a StandardLogger with the given level and
// outputs. Nil outputs are discarded.
func NewStandardLogger(level string, errorOutput, infoOutput, debugOutput io.Writer) *StandardLogger {
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	if infoOutput == nil {
		infoOutput = io.Discard
	}
	if debugOutput == nil {
		debugOutput = io.Discard
	}

	return &StandardLogger{
		logError: log.New(errorOutput, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		logInfo:  log.New(infoOutput, "INFO: ", log.Ldate|log.Ltime),
		logDebug: log.New(debugOutput, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
		fields:   make(map[string]interface{}),
		level:    ParseLogLevel(level),
	}
}

// NewDefault creates a StandardLogger writing all levels to stderr.
func NewDefault(level string) *StandardLogger {
	return NewStandardLogger(level, os.Stderr, os.Stderr, os.Stderr)
}

// Debug logs a debug message
func (l *StandardLogger) Debug(msg string) {
	if l.level <= LogLevelDebug {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logDebug.Print(l.formatWithFields(msg))
	}
}

// Debugf logs a formatted debug message
func (l *StandardLogger) Debugf(format string, args ...interface{}) {
	if l.level <= LogLevelDebug {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logDebug.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

// Info logs an info message
func (l *StandardLogger) Info(msg string) {
	if l.level <= LogLevelInfo {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logInfo.Print(l.formatWithFields(msg))
	}
}

// Infof logs a formatted info message
func (l *StandardLogger) Infof(format string, args ...interface{}) {
	if l.level <= LogLevelInfo {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logInfo.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

// Error logs an error message
func (l *StandardLogger) Error(msg string) {
	if l.level <= LogLevelError {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logError.Print(l.formatWithFields(msg))
	}
}

// Errorf logs a formatted error message
func (l *StandardLogger) Errorf(format string, args ...interface{}) {
	if l.level <= LogLevelError {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logError.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

// WithField returns a new logger with an additional field
func (l *StandardLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with additional fields
func (l *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := &StandardLogger{
		logError: l.logError,
		logInfo:  l.logInfo,
		logDebug: l.logDebug,
		fields:   make(map[string]interface{}, len(l.fields)+len(fields)),
		level:    l.level,
	}
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	for k, v := range fields {
		clone.fields[k] = v
	}
	return clone
}

// formatWithFields appends structured fields to a message. Callers hold at
// least a read lock.
func (l *StandardLogger) formatWithFields(msg string) string {
	if len(l.fields) == 0 {
		return msg
	}

	fieldsStr := ""
	for k, v := range l.fields {
		if fieldsStr != "" {
			fieldsStr += " "
		}
		fieldsStr += fmt.Sprintf("%s=%v", k, v)
	}
	return fmt.Sprintf("%s [%s]", msg, fieldsStr)
}

// NoOpLogger discards all output. Useful for tests and for embedding the
// framework in hosts that manage their own logging.
type NoOpLogger struct{}

// NewNoOpLogger returns a logger that discards everything.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (n *NoOpLogger) Debug(msg string)                          {}
func (n *NoOpLogger) Debugf(format string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string)                           {}
func (n *NoOpLogger) Infof(format string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string)                          {}
func (n *NoOpLogger) Errorf(format string, args ...interface{}) {}

func (n *NoOpLogger) WithField(key string, value interface{}) Logger  { return n }
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger { return n }
