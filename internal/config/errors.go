package config

import "fmt"

// ValidationError reports a rejected assignment, a failed check or a
// retarget to an implementation without a config contract.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Field == "" {
		return "config: " + msg
	}
	return fmt.Sprintf("config: field %q: %s", e.Field, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// prefixed returns a copy of err with its field path qualified by parent.
func prefixed(parent string, err error) error {
	if ve, ok := err.(*ValidationError); ok {
		field := parent
		if ve.Field != "" {
			field = parent + "." + ve.Field
		}
		return &ValidationError{Field: field, Reason: ve.Reason, Err: ve.Err}
	}
	return err
}
