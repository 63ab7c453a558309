package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJobQueue() *JobQueue {
	return NewJobQueue(10, setupTestLogger())
}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	jobQueue := newTestJobQueue()

	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 5}, logger)

	assert.NotNil(t, pool)
	assert.Equal(t, 5, pool.workerCount)
	assert.Equal(t, jobQueue, pool.jobQueue)
	assert.NotNil(t, pool.ctx)
	assert.NotNil(t, pool.cancel)
	assert.Nil(t, pool.errorHandler)

	// Invalid worker counts fall back to 1
	pool = NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 0}, logger)
	assert.Equal(t, 1, pool.workerCount)

	pool = NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: -5}, logger)
	assert.Equal(t, 1, pool.workerCount)
}

func TestDefaultWorkerPoolConfig(t *testing.T) {
	assert.Equal(t, 5, DefaultWorkerPoolConfig().WorkerCount)
}

func TestWorkerPool_ProcessJob_Success(t *testing.T) {
	jobQueue := newTestJobQueue()
	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	completed := make(chan struct{})
	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(completed)
		return nil
	}

	pool.Start()
	defer pool.Stop()

	require.NoError(t, jobQueue.Enqueue(job))

	select {
	case <-completed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to complete")
	}
}

func TestWorkerPool_ProcessJob_Error(t *testing.T) {
	jobQueue := newTestJobQueue()
	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	errorHandled := make(chan error, 1)
	expectedErr := errors.New("test error")

	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		return expectedErr
	}

	pool.SetErrorHandler(func(job Job, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	require.NoError(t, jobQueue.Enqueue(job))

	select {
	case err := <-errorHandled:
		assert.Equal(t, expectedErr, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for error handler")
	}
}

func TestWorkerPool_ProcessJob_Panic(t *testing.T) {
	jobQueue := newTestJobQueue()
	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	errorHandled := make(chan error, 1)
	pool.SetErrorHandler(func(job Job, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	panicking := newMockJob()
	panicking.execFn = func(ctx context.Context) error {
		panic("test panic")
	}
	require.NoError(t, jobQueue.Enqueue(panicking))

	select {
	case err := <-errorHandled:
		assert.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, err.Error(), "test panic")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for error handler after panic")
	}

	// The single worker survived the panic
	completed := make(chan struct{})
	next := newMockJob()
	next.execFn = func(ctx context.Context) error {
		close(completed)
		return nil
	}
	require.NoError(t, jobQueue.Enqueue(next))

	select {
	case <-completed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not survive the panic")
	}
}

func TestWorkerPool_Shutdown_DuringJob(t *testing.T) {
	jobQueue := newTestJobQueue()
	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	jobStarted := make(chan struct{})
	jobCompleted := make(chan struct{})

	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(jobStarted)
		<-ctx.Done()
		close(jobCompleted)
		return ctx.Err()
	}

	pool.Start()
	require.NoError(t, jobQueue.Enqueue(job))

	select {
	case <-jobStarted:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to start")
	}

	stopDone := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopDone)
	}()

	select {
	case <-jobCompleted:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to be canceled")
	}

	select {
	case <-stopDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for worker pool to stop")
	}
}

func TestWorkerPool_StopDrainsQueuedJobs(t *testing.T) {
	jobQueue := newTestJobQueue()
	pool := NewWorkerPool(jobQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	release := make(chan struct{})
	var ran atomic.Int32

	blocker := newMockJob()
	blocker.execFn = func(ctx context.Context) error {
		<-release
		ran.Add(1)
		return nil
	}

	pool.Start()
	require.NoError(t, jobQueue.Enqueue(blocker))
	for i := 0; i < 3; i++ {
		job := newMockJob()
		job.execFn = func(ctx context.Context) error {
			// Drained jobs see the cancelled pool context
			assert.Error(t, ctx.Err())
			ran.Add(1)
			return nil
		}
		require.NoError(t, jobQueue.Enqueue(job))
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	// Give Stop time to cancel before the blocker returns
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for worker pool to stop")
	}
	require.Equal(t, int32(4), ran.Load())
}
