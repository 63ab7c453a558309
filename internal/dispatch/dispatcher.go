package dispatch

import (
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

// Common errors returned by dispatchers
var (
	ErrClosed   = errors.New("dispatcher is closed")
	ErrRejected = errors.New("dispatcher rejected work")
	ErrPanic    = errors.New("panic on affinity goroutine")
)

// Dispatcher schedules work on a single affinity goroutine.
// Work posted by one caller runs in the order it was posted, asynchronously
// from the caller's point of view.
type Dispatcher interface {
	// Post enqueues work for execution on the affinity goroutine.
	// Returns an error if the work could not be scheduled.
	Post(work func()) error
}

// Func adapts a host dispatch function to the Dispatcher interface.
// The function reports whether the callback was scheduled.
type Func func(callback func()) bool

// Post implements Dispatcher.
func (f Func) Post(work func()) error {
	if f == nil || work == nil {
		return ErrRejected
	}
	if !f(work) {
		return ErrRejected
	}
	return nil
}

// PostAndWait posts work to d and blocks until it has run to completion on
// the affinity goroutine. The error returned by work, or a panic raised by
// it, is handed back to the caller. It must not be called from the affinity
// goroutine itself: the caller would wait on work queued behind it.
func PostAndWait(d Dispatcher, work func() error) error {
	done := make(chan error, 1)

	err := d.Post(func() {
		var (
			pc     panics.Catcher
			result error
		)
		pc.Try(func() { result = work() })
		if r := pc.Recovered(); r != nil {
			result = fmt.Errorf("%w: %w", ErrPanic, r.AsError())
		}
		done <- result
	})
	if err != nil {
		return err
	}

	return <-done
}
