package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNothingToWatch indicates watch mode was requested without a document file.
	ErrNothingToWatch = errors.New("watch mode needs a document file")

	// ErrShutdown indicates the application has been shut down.
	ErrShutdown = errors.New("application shut down")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "reload", "script", "print")
	Target string // Target of the operation, usually a file path
	Err    error  // Underlying error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
