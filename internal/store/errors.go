package store

import "errors"

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a document or index entry is absent.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyIndexValue is returned when a lookup value reduces to the
	// empty string (e.g. a blank name), which can never match a document.
	ErrEmptyIndexValue = errors.New("empty index value")
)
