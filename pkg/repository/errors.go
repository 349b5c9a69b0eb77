package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned when an identifier cannot be decoded for the
	// backend it is handed to (non-numeric for the relational store,
	// malformed object ID for the document store).
	ErrInvalidID = errors.New("invalid record id")

	// ErrMissingReference is returned when a save requires a related entity
	// that is unset or does not exist in the same backend.
	ErrMissingReference = errors.New("missing required reference")

	// ErrCorruptRecord is returned when a stored record cannot be
	// reconstructed, e.g. an embedded sub-document is absent.
	ErrCorruptRecord = errors.New("corrupt stored record")
)

// StorageError wraps a backend-driver failure with the backend name and the
// operation that failed.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *StorageError) Unwrap() error {
	return e.Err
}
