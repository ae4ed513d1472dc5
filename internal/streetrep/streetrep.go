// Package streetrep holds the error taxonomy shared by the game engines.
// It has zero external dependencies.
package streetrep

import "errors"

var (
	// ErrInvalidArgument marks a caller bug: negative REP deltas, coordinates
	// out of range, enum values with no defined fallback.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a reference to a mission or objective absent from
	// the static catalog.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a write against a record that has already reached
	// a terminal state.
	ErrConflict = errors.New("conflict")
)
