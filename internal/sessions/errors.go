package sessions

import (
	"errors"
)

var (
	// ErrNoSessionFound is the error for when no session is found.
	ErrNoSessionFound = errors.New("sessions: session is not found")
	// ErrExpired is the error for an expired session.
	ErrExpired = errors.New("sessions: session is expired")
	// ErrMalformed is the error for when a session is found but is malformed.
	ErrMalformed = errors.New("sessions: session is malformed")
)

// StorageError reports a failure of the underlying storage. It is never
// returned for a missing, expired or malformed session.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "sessions: storage " + e.Op + " failed: " + e.Err.Error()
}

// Unwrap implements the `error` Unwrap interface.
func (e *StorageError) Unwrap() error { return e.Err }

// IsNoSession reports whether err means that there is no usable session.
// Storage failures are not included.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSessionFound) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMalformed)
}
