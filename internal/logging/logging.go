// Package logging defines the structured Logger used across the service and a
// zap-backed implementation of it.
package logging

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the minimal structured logger every component depends on.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that always includes fields.
	With(fields ...Field) Logger
}
