package storage

import "errors"

// Storage errors shared by every backend.
var (
	// ErrNotFound is returned when a signature or destination is not stored.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an alert for the same signature was
	// already logged.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records missing a key field, such as an
	// empty signature or a zero chat ID.
	ErrInvalidInput = errors.New("invalid input")
)
