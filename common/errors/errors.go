// Package errors carries process exit codes alongside fatal errors so the
// binary can map a startup failure to a specific exit status.
package errors

import "fmt"

type ExitCodeError struct {
	code ExitCode
	error
}

// NewError attaches exitCode to err. A nil err yields a nil *ExitCodeError.
func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

// Cause returns the wrapped error, for github.com/pkg/errors.Cause.
func (e *ExitCodeError) Cause() error {
	return e.error
}

func (e *ExitCodeError) String() string {
	return fmt.Sprintf("exit code %d: %v", e.code, e.error)
}
