package task

import (
	"errors"
	"fmt"
)

// Errors returned by tasks and the runner
var (
	// ErrAlreadyExecuted is returned when Execute is called more than once.
	ErrAlreadyExecuted = errors.New("task already executed")

	// ErrRegistrationClosed is returned when hooks or observers are
	// registered after the task has been executed.
	ErrRegistrationClosed = errors.New("task registration closed")

	// ErrStartFailed wraps a failure raised by a start hook. The computation
	// is skipped and the failure is delivered to the error hooks.
	ErrStartFailed = errors.New("task start hook failed")

	// ErrPanic marks errors recovered from a panicking computation or job.
	ErrPanic = errors.New("task panicked")
)

// UnobservedError is raised on the affinity goroutine when a computation
// fails and no hook layer handles errors. It becomes the task's escalated
// error so the failure cannot go unnoticed.
type UnobservedError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e *UnobservedError) Error() string {
	if e.TaskName == "" {
		return fmt.Sprintf("unobserved task failure: %v", e.Err)
	}
	return fmt.Sprintf("unobserved failure in task %q: %v", e.TaskName, e.Err)
}

// Unwrap returns the computation error
func (e *UnobservedError) Unwrap() error {
	return e.Err
}
