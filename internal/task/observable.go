package task

import (
	"context"
)

// StartObserver is notified on the affinity goroutine before the
// computation starts
type StartObserver interface {
	TaskStarted(info Info)
}

// FinishObserver is notified on the affinity goroutine when the
// computation succeeded
type FinishObserver[R any] interface {
	TaskFinished(info Info, result R)
}

// ErrorObserver is notified on the affinity goroutine when the computation
// failed. Registering one replaces the default escalation of failures.
type ErrorObserver interface {
	TaskFailed(info Info, err error)
}

// StartObserverFunc adapts a function to StartObserver
type StartObserverFunc func(info Info)

// TaskStarted implements StartObserver
func (f StartObserverFunc) TaskStarted(info Info) { f(info) }

// FinishObserverFunc adapts a function to FinishObserver
type FinishObserverFunc[R any] func(info Info, result R)

// TaskFinished implements FinishObserver
func (f FinishObserverFunc[R]) TaskFinished(info Info, result R) { f(info, result) }

// ErrorObserverFunc adapts a function to ErrorObserver
type ErrorObserverFunc func(info Info, err error)

// TaskFailed implements ErrorObserver
func (f ErrorObserverFunc) TaskFailed(info Info, err error) { f(info, err) }

// Observable is a Task whose start, finish and error points can be watched
// by external observers without adding hook layers. Observers run after
// every layer added with Use. All observers must be registered before
// Execute; afterwards the setters return ErrRegistrationClosed.
type Observable[P, R any] struct {
	*Task[P, R]
	slots *observerSlots[R]
}

// NewObservable creates an observable task that will run compute on runner
func NewObservable[P, R any](runner *Runner, compute ComputeFunc[P, R], opts ...Option) *Observable[P, R] {
	t := New(runner, compute, opts...)
	slots := &observerSlots[R]{}
	t.decorate(slots.hook())

	return &Observable[P, R]{Task: t, slots: slots}
}

// SetStartObserver registers the start observer, replacing any previous one
func (o *Observable[P, R]) SetStartObserver(obs StartObserver) error {
	return o.register(func() { o.slots.start = obs })
}

// SetFinishObserver registers the finish observer, replacing any previous one
func (o *Observable[P, R]) SetFinishObserver(obs FinishObserver[R]) error {
	return o.register(func() { o.slots.finish = obs })
}

// SetErrorObserver registers the error observer, replacing any previous one
func (o *Observable[P, R]) SetErrorObserver(obs ErrorObserver) error {
	return o.register(func() { o.slots.failure = obs })
}

// observerSlots holds at most one observer per point. The slots are only
// written before Execute and only read on the affinity goroutine after it.
type observerSlots[R any] struct {
	start   StartObserver
	finish  FinishObserver[R]
	failure ErrorObserver
}

func (s *observerSlots[R]) hook() Hook[R] {
	return Hook[R]{
		Start: func(_ context.Context, info Info) error {
			if s.start != nil {
				s.start.TaskStarted(info)
			}
			return nil
		},
		Finish: func(_ context.Context, info Info, result R) error {
			if s.finish != nil {
				s.finish.TaskFinished(info, result)
			}
			return nil
		},
		Error: func(_ context.Context, info Info, err error) (bool, error) {
			if s.failure == nil {
				return false, nil
			}
			s.failure.TaskFailed(info, err)
			return true, nil
		},
		Finalize: func(context.Context, Info) error {
			// The task is done with the observers; stop retaining them
			s.start, s.finish, s.failure = nil, nil, nil
			return nil
		},
	}
}
