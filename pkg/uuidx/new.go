// Package uuidx generates the time-ordered identifiers used for conversations and
// connections.
package uuidx

import "github.com/google/uuid"

// New returns a version 7 UUID, so identifiers sort by creation time. It panics if the
// random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString is New formatted as a string.
func NewString() string {
	return New().String()
}
