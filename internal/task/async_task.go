package task

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"

	"github.com/bitcode/asynctask/internal/dispatch"
	"github.com/bitcode/asynctask/internal/platform/logger"
)

// ComputeFunc is the background computation of a task. It runs on a worker
// goroutine and should return promptly once ctx is cancelled. ctx carries the
// task's logger, see logger.FromContext.
type ComputeFunc[P, R any] func(ctx context.Context, params ...P) (R, error)

// Option configures a task
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithName sets the label used for the task in logs and events
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger overrides the runner's logger for this task
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Task runs a computation on the runner's worker pool while its lifecycle
// hooks run on the runner's affinity dispatcher, in this order:
//
//	start -> compute -> finish | error -> finalize
//
// Exactly one of finish and error runs, and finalize always runs last.
// A Task executes at most once.
type Task[P, R any] struct {
	id      uuid.UUID
	name    string
	runner  *Runner
	compute ComputeFunc[P, R]
	logger  *slog.Logger

	// mu guards registration and the Created -> Started transition
	mu         sync.Mutex
	layers     hooks[R]
	decorators hooks[R]
	chain      hooks[R]
	cancel     context.CancelFunc

	state     atomic.Int32
	cancelled atomic.Bool

	params []P
	ctx    context.Context

	// written by the worker before done is closed
	result R
	cause  error
	err    error
	done   chan struct{}
}

// New creates a task that will run compute on runner
func New[P, R any](runner *Runner, compute ComputeFunc[P, R], opts ...Option) *Task[P, R] {
	o := options{name: "task"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = runner.logger
	}

	id := uuid.New()
	return &Task[P, R]{
		id:      id,
		name:    o.name,
		runner:  runner,
		compute: compute,
		logger:  o.logger.With("task_id", id, "task_name", o.name),
		done:    make(chan struct{}),
	}
}

// ID returns the task's unique identifier
func (t *Task[P, R]) ID() uuid.UUID {
	return t.id
}

// Name returns the task's label
func (t *Task[P, R]) Name() string {
	return t.name
}

// State returns the current lifecycle state
func (t *Task[P, R]) State() State {
	return State(t.state.Load())
}

// Info returns the identity handed to hooks
func (t *Task[P, R]) Info() Info {
	return Info{ID: t.id, Name: t.name, cancel: t.Cancel}
}

// Use appends hook layers. Layers run in registration order, before any
// observer or indicator layer. Returns ErrRegistrationClosed once the task
// has been executed.
func (t *Task[P, R]) Use(layers ...Hook[R]) error {
	return t.register(func() {
		t.layers = append(t.layers, layers...)
	})
}

// Execute submits the task with the given parameters and returns
// immediately. The parameters are copied. ctx is the parent of the context
// handed to the computation.
func (t *Task[P, R]) Execute(ctx context.Context, params ...P) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != StateCreated {
		return ErrAlreadyExecuted
	}

	t.params = slices.Clone(params)
	t.chain = slices.Concat(t.layers, t.decorators)
	t.ctx, t.cancel = context.WithCancel(logger.WithLogger(ctx, t.logger))
	if t.cancelled.Load() {
		t.cancel()
	}
	t.state.Store(int32(StateStarted))

	if err := t.runner.Submit(execution[P, R]{t}); err != nil {
		// Not accepted: the task stays executable
		t.cancel()
		t.state.Store(int32(StateCreated))
		return err
	}

	t.logger.Debug("task submitted", "param_count", len(params))
	return nil
}

// Cancel requests cooperative cancellation. The computation's context is
// cancelled; hooks still run. Cancelling before Execute is remembered.
func (t *Task[P, R]) Cancel() {
	t.cancelled.Store(true)

	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Cancelled reports whether cancellation was requested
func (t *Task[P, R]) Cancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel that is closed once finalize has run
func (t *Task[P, R]) Done() <-chan struct{} {
	return t.done
}

// Result returns the computation's result and error. Both are zero until
// Done is closed.
func (t *Task[P, R]) Result() (R, error) {
	select {
	case <-t.done:
		return t.result, t.cause
	default:
		var zero R
		return zero, nil
	}
}

// Err returns the error that escaped the task: a hook failure or an
// unobserved computation failure. It is nil until Done is closed.
func (t *Task[P, R]) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// register runs fn while the task is still open for registration
func (t *Task[P, R]) register(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != StateCreated {
		return ErrRegistrationClosed
	}
	fn()
	return nil
}

// decorate appends a layer that always runs after the Use layers
func (t *Task[P, R]) decorate(layer Hook[R]) {
	t.decorators = append(t.decorators, layer)
}

func (t *Task[P, R]) transition(next State) {
	current := t.State()
	if !current.canTransition(next) {
		panic(fmt.Sprintf("task: invalid state transition %s -> %s", current, next))
	}
	t.state.Store(int32(next))
	t.logger.Debug("task state changed", "from", current, "to", next)
}

// run drives the lifecycle on a worker goroutine
func (t *Task[P, R]) run(poolCtx context.Context) error {
	// Runner shutdown cancels the computation
	stop := context.AfterFunc(poolCtx, t.Cancel)
	defer stop()

	var (
		ctx  = t.ctx
		info = t.Info()
		d    = t.runner.Dispatcher()
	)

	err := dispatch.PostAndWait(d, func() error {
		return t.chain.start(ctx, info)
	})
	if err != nil {
		t.cause = fmt.Errorf("%w: %w", ErrStartFailed, err)
	} else {
		t.transition(StateRunning)
		t.result, t.cause = t.invoke(ctx)
	}

	var escalated error
	if t.cause == nil {
		t.transition(StateSucceeded)
		result := t.result
		escalated = dispatch.PostAndWait(d, func() error {
			return t.chain.finish(ctx, info, result)
		})
	} else {
		t.transition(StateFailed)
		cause := t.cause
		escalated = dispatch.PostAndWait(d, func() error {
			return t.fail(ctx, info, cause)
		})
	}

	escalated = multierr.Append(escalated, dispatch.PostAndWait(d, func() error {
		return t.chain.finalize(ctx, info)
	}))

	t.transition(StateFinalized)
	t.err = escalated
	close(t.done)

	if escalated != nil {
		return fmt.Errorf("task %s: %w", t.name, escalated)
	}
	return nil
}

// invoke runs the computation, turning a panic into an error
func (t *Task[P, R]) invoke(ctx context.Context) (result R, err error) {
	var pc panics.Catcher
	pc.Try(func() { result, err = t.compute(ctx, t.params...) })
	if r := pc.Recovered(); r != nil {
		var zero R
		return zero, fmt.Errorf("%w: %w", ErrPanic, r.AsError())
	}
	return result, err
}

// fail runs the error layers on the affinity goroutine and applies the
// default policy when none of them handles the failure
func (t *Task[P, R]) fail(ctx context.Context, info Info, cause error) error {
	handled, err := t.chain.fail(ctx, info, cause)
	if err != nil {
		return err
	}
	if !handled {
		t.logger.Error("task failed with no error observer", "error", cause)
		return &UnobservedError{TaskName: t.name, Err: cause}
	}
	return nil
}

// execution adapts a Task to the Job interface
type execution[P, R any] struct {
	task *Task[P, R]
}

func (e execution[P, R]) ID() uuid.UUID {
	return e.task.id
}

func (e execution[P, R]) Name() string {
	return e.task.name
}

func (e execution[P, R]) Run(ctx context.Context) error {
	return e.task.run(ctx)
}
