package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"
)

// Info identifies the task a hook is running for
type Info struct {
	ID   uuid.UUID
	Name string

	cancel func()
}

// Cancel requests cooperative cancellation of the task
func (i Info) Cancel() {
	if i.cancel != nil {
		i.cancel()
	}
}

// Hook is one layer of lifecycle behavior attached to a task. Every field is
// optional. All four functions run on the affinity goroutine, and the worker
// that triggered them waits until they return.
//
// A task keeps an ordered list of hooks and calls each lifecycle point on
// every layer in registration order. Returning an error (or panicking) from
// Start routes the task to its error path; from any other point it escalates
// the error to the runner.
type Hook[R any] struct {
	Start  func(ctx context.Context, info Info) error
	Finish func(ctx context.Context, info Info, result R) error

	// Error receives the computation failure. It reports whether it took
	// responsibility for err; when no layer does, the task raises an
	// UnobservedError.
	Error func(ctx context.Context, info Info, err error) (handled bool, hookErr error)

	Finalize func(ctx context.Context, info Info) error
}

// hooks is the ordered hook list of one task
type hooks[R any] []Hook[R]

func (hs hooks[R]) start(ctx context.Context, info Info) error {
	for _, h := range hs {
		if h.Start == nil {
			continue
		}
		if err := h.Start(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

func (hs hooks[R]) finish(ctx context.Context, info Info, result R) error {
	for _, h := range hs {
		if h.Finish == nil {
			continue
		}
		if err := h.Finish(ctx, info, result); err != nil {
			return err
		}
	}
	return nil
}

// fail delivers err to every layer and reports whether any handled it
func (hs hooks[R]) fail(ctx context.Context, info Info, err error) (bool, error) {
	handled := false
	for _, h := range hs {
		if h.Error == nil {
			continue
		}
		ok, hookErr := h.Error(ctx, info, err)
		if hookErr != nil {
			return handled || ok, hookErr
		}
		handled = handled || ok
	}
	return handled, nil
}

// finalize runs every layer even if an earlier one fails or panics,
// combining the failures
func (hs hooks[R]) finalize(ctx context.Context, info Info) error {
	var errs error
	for _, h := range hs {
		if h.Finalize == nil {
			continue
		}

		var (
			pc  panics.Catcher
			err error
		)
		pc.Try(func() { err = h.Finalize(ctx, info) })
		if r := pc.Recovered(); r != nil {
			err = fmt.Errorf("%w: %w", ErrPanic, r.AsError())
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}
