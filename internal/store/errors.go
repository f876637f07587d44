package store

import (
	"errors"
	"fmt"

	"github.com/dshills/scriptree/internal/tree"
)

// Sentinel errors for store operations.
//
// Absence is not an error: reads, writes and removals through a path that no
// longer resolves are silent no-ops. The errors below report caller mistakes
// or writes that would break the keyed-array invariant.
var (
	// ErrInvalidPlacement is returned for a placement that is not recognized.
	ErrInvalidPlacement = errors.New("invalid placement")

	// ErrAnchorNotFound is returned in strict placement mode when the
	// before/after anchor is not in the array.
	ErrAnchorNotFound = errors.New("placement anchor not found")

	// ErrNotArray is returned when an array operation targets a non-array value.
	ErrNotArray = errors.New("value is not an array")

	// ErrNotRecord is returned when a keyed-array element would be replaced by
	// something other than a record.
	ErrNotRecord = tree.ErrNotRecord

	// ErrDuplicateKey is returned when a write would give two siblings the same key.
	ErrDuplicateKey = tree.ErrDuplicateKey

	// ErrMissingKey is returned when a written array mixes keyed records with
	// records that carry no key.
	ErrMissingKey = tree.ErrMissingKey

	// ErrInvalidKey is returned when a record carries a key that is not a
	// non-empty string.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDispatchLimit is reported when coalesced dispatch gives up on a
	// notification cycle.
	ErrDispatchLimit = errors.New("dispatch pass limit exceeded")
)

// PlacementError reports a placement descriptor that could not be used.
type PlacementError struct {
	// Input is the placement as given by the caller.
	Input string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement %q: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlacementError) Unwrap() error {
	return e.Err
}

// WriteError reports a write rejected at a path.
type WriteError struct {
	// Path is the path of the rejected write.
	Path tree.Path

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Path.String(), e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
