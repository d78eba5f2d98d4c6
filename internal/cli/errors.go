package cli

// ExitCodeUsage is the exit code for malformed arguments.
const ExitCodeUsage = 2

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(msg string) *ExitError {
	return &ExitError{Code: ExitCodeUsage, Message: msg}
}
