package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed indicates a setting holds an unusable value.
var ErrValidationFailed = errors.New("validation failed")

// ParseError represents an error while parsing a configuration source.
type ParseError struct {
	// Path is the file path or source name that failed to parse.
	Path string
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a setting that failed validation.
type ValidationError struct {
	// Setting is the dotted setting name, e.g. "store.max_passes".
	Setting string
	// Value is the rejected value.
	Value any
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Setting, e.Value, e.Message)
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
