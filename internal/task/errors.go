package task

import "fmt"

// ConstructionError reports a failure to build a task tree. Any failure,
// including one in a deeply nested sub-task, aborts the whole build.
type ConstructionError struct {
	Task   string
	Reason string
	Err    error
}

// Error implements the error interface for ConstructionError.
func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("task %q: %s", e.Task, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}
