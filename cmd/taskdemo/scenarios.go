package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitcode/asynctask/internal/platform/logger"
	"github.com/bitcode/asynctask/internal/task"
)

var errBoom = errors.New("boom")

// scenario is one demonstration run against the shared application
type scenario struct {
	name        string
	description string
	run         func(ctx context.Context, app *application) (scenarioRun, error)
}

// scenarioRun is what a scenario leaves behind for the report
type scenarioRun struct {
	scenario  scenario
	tasks     []*task.Task[int, int]
	indicator *consoleIndicator
}

var scenarios = []scenario{
	{
		name:        "success",
		description: "computation returns 6*7; finish then finalize, no error hook",
		run:         runSuccess,
	},
	{
		name:        "unobserved-error",
		description: "computation fails with no error observer; the error is escalated after finalize",
		run:         runUnobservedError,
	},
	{
		name:        "observed-error",
		description: "computation fails and an error observer handles it; nothing is escalated",
		run:         runObservedError,
	},
	{
		name:        "back-to-back",
		description: "two tasks submitted together; each gets exactly three hook calls",
		run:         runBackToBack,
	},
	{
		name:        "progress",
		description: "progress indicator shown on start and hidden on finalize",
		run:         runProgress,
	},
	{
		name:        "dismissed",
		description: "a cancelable progress indicator is dismissed, cancelling the computation",
		run:         runDismissed,
	},
}

var burstScenario = scenario{
	name:        "burst",
	description: "many more tasks than workers submitted concurrently; all of them finish",
}

// product multiplies its params
func product(ctx context.Context, params ...int) (int, error) {
	result := 1
	for _, p := range params {
		result *= p
	}
	logger.FromContext(ctx).Debug("product computed", "result", result)
	return result, nil
}

func fail(context.Context, ...int) (int, error) {
	return 0, errBoom
}

// waitForCancel blocks until the task is cancelled
func waitForCancel(ctx context.Context, _ ...int) (int, error) {
	logger.FromContext(ctx).Debug("waiting for cancellation")
	<-ctx.Done()
	return 0, ctx.Err()
}

// square returns n*n after a short, n dependent delay
func square(ctx context.Context, params ...int) (int, error) {
	n := params[0]
	select {
	case <-time.After(time.Duration(n%3) * time.Millisecond):
		return n * n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// newTask creates a plain task publishing its lifecycle events
func newTask(app *application, compute task.ComputeFunc[int, int], name string) (*task.Task[int, int], error) {
	t := task.New(app.runner, compute, task.WithName(name))
	if err := t.Use(task.EventHook[int](app.emitter)); err != nil {
		return nil, err
	}
	return t, nil
}

// await waits until t is finalized or ctx is done
func await(ctx context.Context, t *task.Task[int, int]) error {
	select {
	case <-t.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func executeAndWait(ctx context.Context, t *task.Task[int, int], params ...int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.Execute(ctx, params...); err != nil {
		return fmt.Errorf("failed to execute %s: %w", t.Name(), err)
	}
	return await(ctx, t)
}

func runSuccess(ctx context.Context, app *application) (scenarioRun, error) {
	t, err := newTask(app, product, "answer")
	if err != nil {
		return scenarioRun{}, err
	}
	if err := executeAndWait(ctx, t, 6, 7); err != nil {
		return scenarioRun{}, err
	}
	return scenarioRun{tasks: []*task.Task[int, int]{t}}, nil
}

func runUnobservedError(ctx context.Context, app *application) (scenarioRun, error) {
	t, err := newTask(app, fail, "unobserved")
	if err != nil {
		return scenarioRun{}, err
	}
	if err := executeAndWait(ctx, t); err != nil {
		return scenarioRun{}, err
	}
	return scenarioRun{tasks: []*task.Task[int, int]{t}}, nil
}

func runObservedError(ctx context.Context, app *application) (scenarioRun, error) {
	o := task.NewObservable(app.runner, fail, task.WithName("observed"))
	if err := o.Use(task.EventHook[int](app.emitter)); err != nil {
		return scenarioRun{}, err
	}
	err := o.SetErrorObserver(task.ErrorObserverFunc(func(info task.Info, err error) {
		app.logger.Info("error observer notified", "task_name", info.Name, "error", err)
	}))
	if err != nil {
		return scenarioRun{}, err
	}

	if err := executeAndWait(ctx, o.Task); err != nil {
		return scenarioRun{}, err
	}
	return scenarioRun{tasks: []*task.Task[int, int]{o.Task}}, nil
}

func runBackToBack(ctx context.Context, app *application) (scenarioRun, error) {
	tasks := make([]*task.Task[int, int], 2)
	for i := range tasks {
		t, err := newTask(app, product, fmt.Sprintf("back-to-back-%d", i+1))
		if err != nil {
			return scenarioRun{}, err
		}
		tasks[i] = t
	}

	for i, t := range tasks {
		if err := t.Execute(ctx, i+1, 10); err != nil {
			return scenarioRun{}, fmt.Errorf("failed to execute %s: %w", t.Name(), err)
		}
	}
	for _, t := range tasks {
		if err := await(ctx, t); err != nil {
			return scenarioRun{}, err
		}
	}
	return scenarioRun{tasks: tasks}, nil
}

func runProgress(ctx context.Context, app *application) (scenarioRun, error) {
	indicator := newConsoleIndicator(app.logger, false)
	p := task.NewProgress(app.runner, indicator, product, task.WithName("progress"))
	if err := p.Use(task.EventHook[int](app.emitter)); err != nil {
		return scenarioRun{}, err
	}
	err := p.SetFinishObserver(task.FinishObserverFunc[int](func(info task.Info, result int) {
		app.logger.Info("finish observer notified", "task_name", info.Name, "result", result)
	}))
	if err != nil {
		return scenarioRun{}, err
	}

	if err := executeAndWait(ctx, p.Task, 2, 3, 7); err != nil {
		return scenarioRun{}, err
	}
	return scenarioRun{tasks: []*task.Task[int, int]{p.Task}, indicator: indicator}, nil
}

func runDismissed(ctx context.Context, app *application) (scenarioRun, error) {
	indicator := newConsoleIndicator(app.logger, true)
	p := task.NewProgress(app.runner, indicator, waitForCancel, task.WithName("dismissed"))
	if err := p.SetCancelable(true); err != nil {
		return scenarioRun{}, err
	}
	if err := p.Use(task.EventHook[int](app.emitter)); err != nil {
		return scenarioRun{}, err
	}
	err := p.SetErrorObserver(task.ErrorObserverFunc(func(info task.Info, err error) {
		app.logger.Info("task dismissed", "task_name", info.Name, "error", err)
	}))
	if err != nil {
		return scenarioRun{}, err
	}

	if err := executeAndWait(ctx, p.Task); err != nil {
		return scenarioRun{}, err
	}
	return scenarioRun{tasks: []*task.Task[int, int]{p.Task}, indicator: indicator}, nil
}

// runBurst submits k tasks from k goroutines at once. Tasks beyond the
// worker count wait in the runner's queue.
func runBurst(ctx context.Context, app *application, k int) (scenarioRun, error) {
	tasks := make([]*task.Task[int, int], k)
	for i := range tasks {
		t, err := newTask(app, square, fmt.Sprintf("burst-%d", i))
		if err != nil {
			return scenarioRun{}, err
		}
		tasks[i] = t
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			return executeAndWait(gctx, t, i)
		})
	}
	if err := g.Wait(); err != nil {
		return scenarioRun{}, err
	}

	return scenarioRun{tasks: tasks}, nil
}
