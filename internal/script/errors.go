package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrEngineClosed is returned when running a script on a closed engine.
	ErrEngineClosed = errors.New("script engine is closed")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script execution timeout")

	// ErrCallLimit is returned when a script makes too many doc calls.
	ErrCallLimit = errors.New("script doc call limit exceeded")
)

// Error reports a script that failed to load or run.
type Error struct {
	// Name identifies the script, usually its file path.
	Name string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
