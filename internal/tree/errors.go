package tree

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree addressing and validation.
var (
	// ErrInvalidPath is returned when a dotted path string is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotRecord is returned when an array mixes records with other values.
	ErrNotRecord = errors.New("array element is not a record")

	// ErrMissingKey is returned when a keyed-array element has no usable key.
	ErrMissingKey = errors.New("array element has no key")

	// ErrDuplicateKey is returned when two siblings share a key.
	ErrDuplicateKey = errors.New("duplicate key in array")
)

// ValidationError reports where in a document validation failed.
type ValidationError struct {
	// Path addresses the offending array.
	Path Path

	// Key is the offending key, if any.
	Key string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	where := e.Path.String()
	if where == "" {
		where = "<root>"
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %v (%q)", where, e.Err, e.Key)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
