package model

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNotFound       = errors.New("element not found")
	ErrNotLive        = errors.New("element is not live")
	ErrParamNotFound  = errors.New("parameter not found")
	ErrParamMismatch  = errors.New("parameter storage kind mismatch")
	ErrCannotFlip     = errors.New("fitting cannot flip")
	ErrConnectorRange = errors.New("connector index out of range")
	ErrUnitClosed     = errors.New("unit already committed or rolled back")
	ErrGroupOpen      = errors.New("a group is already open")
	ErrGroupClosed    = errors.New("group already assimilated or discarded")
)

// ModelError provides structured error information for accessor operations.
type ModelError struct {
	Op    string    // Operation that failed (e.g., "SetParam", "Flip")
	Kind  string    // Element kind ("segment", "fitting")
	ID    ElementID // Element ID (if applicable)
	Param string    // Parameter name (for parameter operations)
	Cause error     // Underlying error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.ID != 0 {
		if e.Param != "" {
			return fmt.Sprintf("%s %s %d (param %q): %v", e.Op, e.Kind, e.ID, e.Param, e.Cause)
		}
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Kind, e.ID, e.Cause)
	}
	if e.Param != "" {
		return fmt.Sprintf("%s (param %q): %v", e.Op, e.Param, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// IsParamMismatch reports whether err means a parameter was absent or of
// the wrong storage kind. These are the per-assignment conditions the
// applier drops silently.
func IsParamMismatch(err error) bool {
	return errors.Is(err, ErrParamNotFound) || errors.Is(err, ErrParamMismatch)
}

// IsNotLive reports whether err means an element was invalidated
// out-of-band.
func IsNotLive(err error) bool {
	return errors.Is(err, ErrNotLive)
}
