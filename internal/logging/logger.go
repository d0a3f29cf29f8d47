// Package logging provides the leveled logging sink consumed by the filefd
// library and the fdsh tool.
package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Level controls which messages a [Logger] emits.
type Level int

const (
	// LevelError only logs errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs general information, warnings and errors.
	LevelInfo
	// LevelDebug logs everything, including per-syscall diagnostics.
	LevelDebug
)

var levelNames = map[Level]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
}

// Logger writes leveled, timestamped records to stderr.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	logger *log.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the process-wide logger. The initial level is Error,
// overridable via the FILEFD_LOG_LEVEL environment variable
// (ERROR/WARN/INFO/DEBUG).
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New("filefd")

		switch os.Getenv("FILEFD_LOG_LEVEL") {
		case "WARN":
			defaultLogger.SetLevel(LevelWarn)
		case "INFO":
			defaultLogger.SetLevel(LevelInfo)
		case "DEBUG":
			defaultLogger.SetLevel(LevelDebug)
		}
	})

	return defaultLogger
}

// New creates a logger with the given prefix, at level Error.
func New(prefix string) *Logger {
	return &Logger{
		level:  LevelError,
		logger: log.New(os.Stderr, prefix+": ", log.Ldate|log.Ltime|log.Lmicroseconds|log.LUTC),
	}
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return level <= l.level
}

func (l *Logger) log(level Level, format string, args ...any) {
	if !l.shouldLog(level) {
		return
	}

	l.logger.Printf("[%s] %s", levelNames[level], fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}
