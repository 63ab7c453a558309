package task

import (
	"context"
)

// Indicator is a busy indicator shown while a task runs, typically a
// progress dialog owned by the host UI. Both methods are called on the
// affinity goroutine.
type Indicator interface {
	// Show displays the indicator. When cancelable is true, dismissing it
	// should call onCancel; otherwise onCancel does nothing.
	Show(cancelable bool, onCancel func())

	// Hide removes the indicator.
	Hide()
}

// ProgressTask is an Observable task that shows an Indicator from start
// until finalize. Dismissing a cancelable indicator cancels the task.
type ProgressTask[P, R any] struct {
	*Observable[P, R]
	indicator  Indicator
	cancelable bool
}

// NewProgress creates a task that displays indicator while compute runs.
// The indicator is not cancelable unless SetCancelable(true) is called.
func NewProgress[P, R any](
	runner *Runner,
	indicator Indicator,
	compute ComputeFunc[P, R],
	opts ...Option,
) *ProgressTask[P, R] {
	p := &ProgressTask[P, R]{
		Observable: NewObservable(runner, compute, opts...),
		indicator:  indicator,
	}
	p.decorate(p.hook())
	return p
}

// SetCancelable sets whether the user may dismiss the indicator to cancel
// the task. It must be called before Execute.
func (p *ProgressTask[P, R]) SetCancelable(flag bool) error {
	return p.register(func() { p.cancelable = flag })
}

func (p *ProgressTask[P, R]) hook() Hook[R] {
	// only touched on the affinity goroutine
	shown := false

	return Hook[R]{
		Start: func(_ context.Context, info Info) error {
			onCancel := func() {}
			if p.cancelable {
				onCancel = info.Cancel
			}
			p.indicator.Show(p.cancelable, onCancel)
			shown = true
			return nil
		},
		Finalize: func(context.Context, Info) error {
			if shown {
				shown = false
				p.indicator.Hide()
			}
			return nil
		},
	}
}
