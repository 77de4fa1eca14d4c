// Package platformlog is a thin wrapper around the standard log package that
// tags every line with a subsystem name and, where available, a request or
// fingerprint id. The platform sticks to the standard library instead of adopting a
// structured-logging framework; every complete example repo that logs does
// so through the standard library.
package platformlog

import (
	"log"
	"os"
)

// Logger writes tagged lines to an underlying *log.Logger.
type Logger struct {
	subsystem string
	std       *log.Logger
}

// New returns a Logger for the given subsystem, writing to stderr with
// standard date/time flags.
func New(subsystem string) *Logger {
	return &Logger{
		subsystem: subsystem,
		std:       log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) prefix(id string) string {
	if id == "" {
		return "[" + l.subsystem + "] "
	}
	return "[" + l.subsystem + " " + id + "] "
}

// Info logs an informational line.
func (l *Logger) Info(id, format string, args ...interface{}) {
	l.std.Printf(l.prefix(id)+format, args...)
}

// Error logs an error-level line.
func (l *Logger) Error(id string, err error, format string, args ...interface{}) {
	l.std.Printf(l.prefix(id)+format+": %v", append(args, err)...)
}

// With returns a Logger scoped to a sub-component, e.g. New("gateway").With("auth").
func (l *Logger) With(component string) *Logger {
	return &Logger{subsystem: l.subsystem + "." + component, std: l.std}
}
