package provider

import (
	"github.com/casualjim/aix/particle"
)

// Parser turns one vendor's responses into particles. Implementations hold per-connection
// state and must not be reused across connections.
type Parser interface {
	// ParseEvent consumes exactly one wire event. It returns the error it surfaced as an
	// issue particle, if any, so the caller can log it.
	ParseEvent(tx particle.Transmitter, eventName string, data []byte) error
	// ParseFullResponse consumes a complete non-streaming response body and emits the same
	// particle vocabulary as the streaming path.
	ParseFullResponse(tx particle.Transmitter, body []byte) error
	// Complete is called once the stream closed without a transport error. A response that
	// reported its stop reason is ended; anything else is an incomplete response and is
	// reported as a terminal issue.
	Complete(tx particle.Transmitter) error
	// Done reports whether the response has ended, normally or through a vendor error.
	// Events received afterwards are ignored.
	Done() bool
	// Abort discards any open block. Nothing is emitted.
	Abort()
}

// Factory creates a fresh parser for one connection.
type Factory func() Parser
