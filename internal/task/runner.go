package task

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bitcode/asynctask/internal/dispatch"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many computations run concurrently
	WorkerCount int

	// QueueSize is the initial capacity of the queue of jobs waiting for a
	// worker. The queue grows past it, so submission never fails on a busy pool.
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: DefaultWorkerPoolConfig().WorkerCount,
		QueueSize:   100,
	}
}

// Runner is the scheduling resource tasks are executed with. It owns the
// job queue and worker pool and holds the affinity dispatcher on which task
// hooks run. The dispatcher's own lifecycle stays with its owner.
type Runner struct {
	queue      *JobQueue
	pool       *WorkerPool
	dispatcher dispatch.Dispatcher
	config     RunnerConfig
	logger     *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once

	mu         sync.RWMutex
	errHandler func(job Job, err error)
}

// NewRunner creates a new Runner. Jobs may be submitted before Start;
// they wait in the queue until workers are running. Non-positive sizes
// fall back to the defaults.
func NewRunner(dispatcher dispatch.Dispatcher, config RunnerConfig, logger *slog.Logger) *Runner {
	poolConfig := DefaultWorkerPoolConfig()
	if config.WorkerCount > 0 {
		poolConfig.WorkerCount = config.WorkerCount
	}
	config.WorkerCount = poolConfig.WorkerCount
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}

	logger = logger.With("component", "task_runner")
	queue := NewJobQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, poolConfig, logger)

	r := &Runner{
		queue:      queue,
		pool:       pool,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		errHandler: func(job Job, err error) {
			// Default error handler just logs the escalation
			logger.Error("task escalated an error",
				"task_id", job.ID(),
				"task_name", job.Name(),
				"error", err)
		},
	}
	pool.SetErrorHandler(r.handleError)

	return r
}

// SetErrorHandler replaces the handler that receives errors escaping a
// task: hook failures and unobserved computation failures.
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errHandler = handler
}

// Dispatcher returns the affinity dispatcher hooks are posted to
func (r *Runner) Dispatcher() dispatch.Dispatcher {
	return r.dispatcher
}

// Submit adds a job to the queue. It only fails once the runner is stopped.
func (r *Runner) Submit(job Job) error {
	if err := r.queue.Enqueue(job); err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}
	return nil
}

// Start launches the worker pool
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.logger.Info("starting task runner",
			"worker_count", r.config.WorkerCount,
			"queue_size", r.config.QueueSize)
		r.pool.Start()
	})
}

// Stop rejects new submissions, cancels running computations and waits for
// the workers to finish every job already accepted. Hooks of those jobs are
// still posted, so the dispatcher must keep running until Stop returns.
// Jobs queued on a runner that was never started are discarded.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.queue.Close()
		r.pool.Stop()
	})
}

func (r *Runner) handleError(job Job, err error) {
	r.mu.RLock()
	handler := r.errHandler
	r.mu.RUnlock()

	if handler != nil {
		handler(job, err)
	}
}
