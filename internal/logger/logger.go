// Package logger provides leveled diagnostic logging for hostcheck.
//
// Log lines go to stderr so they never mix with case results, which are
// written to stdout (text, JSON or JUnit). Messages below the current
// level are dropped.
//
// # Levels
//
//	logger.Init(verbose) // verbose=true enables Debug and Info
//
// Without --verbose only Warn and Error are shown.
//
// # Case-scoped logging
//
// The runner attaches the case name and run ID to every line it emits:
//
//	log := logger.With(map[string]interface{}{"case": tc.Name, "run_id": id})
//	log.Debug("spawning %q in %s", tc.Command, tc.Dir)
//
// # Output Format
//
//	[LEVEL] YYYY-MM-DD HH:MM:SS message key=value ...
//	[DEBUG] 2026-10-17 10:30:45 spawning "echo hi" in /tmp case=echo run_id=3f2a...
//
// Keys are sorted so output is stable.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
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

// sink is the shared, lock-protected destination of all loggers.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger writes leveled lines with a fixed set of fields.
// Loggers derived with With share the sink of their parent.
type Logger struct {
	sink   *sink
	fields map[string]interface{}
}

var std = &Logger{sink: &sink{level: LevelWarn, output: os.Stderr}}

// Init sets the global level from the --verbose flag.
func Init(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

// SetLevel sets the minimum level for all loggers.
func SetLevel(level Level) {
	std.sink.mu.Lock()
	defer std.sink.mu.Unlock()
	std.sink.level = level
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	std.sink.mu.Lock()
	defer std.sink.mu.Unlock()
	return std.sink.level
}

// SetOutput redirects all loggers. A nil writer restores os.Stderr.
func SetOutput(w io.Writer) {
	std.sink.mu.Lock()
	defer std.sink.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	std.sink.output = w
}

// With returns a logger that appends fields to every line.
func With(fields map[string]interface{}) *Logger {
	return std.With(fields)
}

// With returns a child logger carrying l's fields plus the given ones.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged}
}

func (l *Logger) write(level Level, msg string, extra map[string]interface{}) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(l.sink.output, "[%s] %s %s%s\n", level, timestamp, msg, formatFields(l.fields, extra))
}

func formatFields(sets ...map[string]interface{}) string {
	all := make(map[string]interface{})
	for _, set := range sets {
		for k, v := range set {
			all[k] = v
		}
	}
	if len(all) == 0 {
		return ""
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, all[k]))
	}
	return " " + strings.Join(parts, " ")
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...), nil)
}

// Debug logs a debug message on the global logger.
func Debug(format string, args ...interface{}) { std.Debug(format, args...) }

// Info logs an informational message on the global logger.
func Info(format string, args ...interface{}) { std.Info(format, args...) }

// Warn logs a warning on the global logger.
func Warn(format string, args ...interface{}) { std.Warn(format, args...) }

// Error logs an error on the global logger.
func Error(format string, args ...interface{}) { std.Error(format, args...) }

// DebugFields logs msg with one-off fields at debug level.
func DebugFields(msg string, fields map[string]interface{}) {
	std.write(LevelDebug, msg, fields)
}

// InfoFields logs msg with one-off fields at info level.
func InfoFields(msg string, fields map[string]interface{}) {
	std.write(LevelInfo, msg, fields)
}

// LogError logs err with context. Nil errors are ignored.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	std.Error("%s: %v", msg, err)
}
