package app

import "fmt"

// Driver stages reported by DriverError.
const (
	StageArguments    = "arguments"
	StageConfig       = "config"
	StageRepository   = "repository"
	StageDataID       = "data id"
	StageConstruction = "construction"
	StageRun          = "run"
	StageOutput       = "output"
)

// DriverError reports the driver stage that failed and why.
type DriverError struct {
	Stage string
	Err   error
}

// Error implements the error interface for DriverError.
func (e *DriverError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DriverError) Unwrap() error {
	return e.Err
}
