package slogx

import (
	"fmt"
	"log/slog"
)

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
	// KeyDialect is the key for the vendor dialect of a connection.
	KeyDialect = "dialect"
	// KeyModel is the key for the vendor model id.
	KeyModel = "model"
	// KeyEvent is the key for a wire event name or type.
	KeyEvent = "event"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message. A nil error
// yields an empty attribute, which slog drops.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName creates a slog.Attr with the provided logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Dialect returns an attribute naming the vendor dialect of a connection.
func Dialect[T ~string](dialect T) slog.Attr {
	return slog.String(KeyDialect, string(dialect))
}

// Model returns an attribute with the vendor model id.
func Model(id string) slog.Attr {
	return slog.String(KeyModel, id)
}

// Event returns an attribute naming a wire event. Unnamed events, as found in JSON-NL
// streams and unnamed SSE frames, are logged as "message".
func Event(name string) slog.Attr {
	if name == "" {
		name = "message"
	}
	return slog.String(KeyEvent, name)
}
