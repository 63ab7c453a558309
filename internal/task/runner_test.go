package task

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitcode/asynctask/internal/dispatch"
	"github.com/bitcode/asynctask/internal/platform/logger"
)

func TestDefaultRunnerConfig(t *testing.T) {
	config := DefaultRunnerConfig()
	assert.Equal(t, 5, config.WorkerCount)
	assert.Equal(t, 100, config.QueueSize)
}

func TestNewRunner(t *testing.T) {
	logger := setupTestLogger()
	loop := dispatch.NewLoop(logger)

	runner := NewRunner(loop, RunnerConfig{WorkerCount: 3, QueueSize: 0}, logger)

	assert.Equal(t, loop, runner.Dispatcher())
	assert.Equal(t, 3, runner.pool.workerCount)
	// Invalid queue sizes fall back to the default
	assert.Equal(t, 100, cap(runner.queue.jobs))

	// Invalid worker counts fall back to the pool default
	runner = NewRunner(loop, RunnerConfig{WorkerCount: 0, QueueSize: 10}, logger)
	assert.Equal(t, DefaultWorkerPoolConfig().WorkerCount, runner.pool.workerCount)
	assert.Equal(t, DefaultWorkerPoolConfig().WorkerCount, runner.config.WorkerCount)
}

func TestRunner_BusyPoolQueuesEveryTask(t *testing.T) {
	const tasks = 150

	logger := setupTestLogger()
	loop := dispatch.NewLoop(logger)
	loop.Start()
	defer func() {
		loop.Close()
		<-loop.Done()
	}()

	runner := NewRunner(loop, RunnerConfig{WorkerCount: 1, QueueSize: 4}, logger)
	runner.Start()
	defer runner.Stop()

	// The only worker stays busy until every task has been submitted
	release := make(chan struct{})
	compute := func(ctx context.Context, params ...int) (int, error) {
		<-release
		return params[0], nil
	}

	all := make([]*Task[int, int], tasks)
	for i := range all {
		all[i] = New(runner, compute)
		require.NoError(t, all[i].Execute(context.Background(), i), "task %d", i)
	}
	close(release)

	for i, task := range all {
		select {
		case <-task.Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("task %d did not finalize", i)
		}
		result, err := task.Result()
		require.NoError(t, err)
		assert.Equal(t, i, result)
		assert.Equal(t, StateFinalized, task.State())
	}
}

func TestRunner_Submit(t *testing.T) {
	logger := setupTestLogger()
	runner := NewRunner(dispatch.NewLoop(logger), RunnerConfig{WorkerCount: 1, QueueSize: 1}, logger)

	t.Run("successful submission", func(t *testing.T) {
		assert.NoError(t, runner.Submit(newMockJob()))
	})

	t.Run("beyond initial capacity", func(t *testing.T) {
		assert.NoError(t, runner.Submit(newMockJob()))
		assert.NoError(t, runner.Submit(newMockJob()))
	})

	t.Run("after stop", func(t *testing.T) {
		runner.Stop()
		err := runner.Submit(newMockJob())
		assert.ErrorIs(t, err, ErrQueueClosed)
		assert.Contains(t, err.Error(), "failed to submit job")
	})
}

func TestRunner_DefaultErrorHandlerLogs(t *testing.T) {
	job := newMockJob()
	job.name = "escalating"

	logs := logger.CaptureLogs(t, func(log *slog.Logger) {
		runner := NewRunner(dispatch.NewLoop(log), RunnerConfig{WorkerCount: 1, QueueSize: 1}, log)
		runner.handleError(job, errors.New("hook failed"))
	})

	assert.Contains(t, logs, "task escalated an error")
	assert.Contains(t, logs, `"task_name":"escalating"`)
	assert.Contains(t, logs, `"error":"hook failed"`)
	assert.Contains(t, logs, `"component":"task_runner"`)
}

func TestRunner_ErrorHandler(t *testing.T) {
	logger := setupTestLogger()
	runner := NewRunner(dispatch.NewLoop(logger), RunnerConfig{WorkerCount: 1, QueueSize: 10}, logger)

	handled := make(chan error, 1)
	runner.SetErrorHandler(func(job Job, err error) {
		handled <- err
	})
	runner.Start()
	defer runner.Stop()

	expected := errors.New("job failed")
	job := newMockJob()
	job.execFn = func(ctx context.Context) error { return expected }
	require.NoError(t, runner.Submit(job))

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, expected)
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for error handler")
	}
}

func TestRunner_StopCancelsRunningTasks(t *testing.T) {
	logger := setupTestLogger()
	loop := dispatch.NewLoop(logger)
	loop.Start()
	defer func() {
		loop.Close()
		<-loop.Done()
	}()

	runner := NewRunner(loop, RunnerConfig{WorkerCount: 1, QueueSize: 10}, logger)
	runner.Start()

	running := make(chan struct{})
	task := New(runner, func(ctx context.Context, _ ...int) (int, error) {
		close(running)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.NoError(t, task.Use(Hook[int]{
		Error: func(context.Context, Info, error) (bool, error) { return true, nil },
	}))
	require.NoError(t, task.Execute(context.Background()))
	<-running

	runner.Stop()

	// Stop waited for the task, which still reached finalize
	select {
	case <-task.Done():
	default:
		t.Fatal("task should be finalized once Stop returns")
	}
	assert.True(t, task.Cancelled())
	assert.Equal(t, StateFinalized, task.State())
}

func TestRunner_StartStopIdempotent(t *testing.T) {
	logger := setupTestLogger()
	runner := NewRunner(dispatch.NewLoop(logger), DefaultRunnerConfig(), logger)

	runner.Start()
	runner.Start()
	runner.Stop()
	runner.Stop()
}
