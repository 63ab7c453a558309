package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Enqueue once the queue has been closed
var ErrQueueClosed = errors.New("job queue is closed")

var (
	_ JobQueueReader = (*JobQueue)(nil)
	_ JobQueueWriter = (*JobQueue)(nil)
)

// JobQueue is an unbounded FIFO job queue that satisfies both
// JobQueueReader and JobQueueWriter interfaces. Enqueue never blocks and
// never rejects a job while the queue is open.
type JobQueue struct {
	logger *slog.Logger

	mu     sync.Mutex
	jobs   []Job
	closed bool

	// wake holds at most one pending signal that jobs were added
	wake chan struct{}
	// done is closed by Close and releases every waiting reader
	done chan struct{}
}

// NewJobQueue creates a new job queue with room for capacity jobs before
// its backing slice grows
func NewJobQueue(capacity int, logger *slog.Logger) *JobQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &JobQueue{
		logger: logger,
		jobs:   make([]Job, 0, capacity),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Enqueue adds a job to the queue for processing.
// Returns ErrQueueClosed if the queue is closed.
func (q *JobQueue) Enqueue(job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	queueLen := len(q.jobs)
	q.mu.Unlock()

	q.signal()
	q.logger.Debug("job enqueued",
		"job_id", job.ID(),
		"job_name", job.Name(),
		"queue_len", queueLen)
	return nil
}

// Dequeue returns the next job, waiting while the queue is empty. Queued
// jobs are handed out even after ctx is done or the queue is closed; it
// returns false only once nothing is queued and either ctx is done or the
// queue is closed.
func (q *JobQueue) Dequeue(ctx context.Context) (Job, bool) {
	for {
		if job, ok := q.pop(); ok {
			return job, true
		}

		select {
		case <-q.wake:
		case <-q.done:
			// A job may have arrived since the last pop
			return q.pop()
		case <-ctx.Done():
			return q.pop()
		}
	}
}

// Len returns the number of jobs waiting for a worker
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close closes the job queue, preventing further submission.
// Jobs already queued can still be dequeued.
func (q *JobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.done)
		q.logger.Info("job queue closed", "pending", len(q.jobs))
	}
}

func (q *JobQueue) pop() (Job, bool) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	more := len(q.jobs) > 0
	q.mu.Unlock()

	// Pass the wakeup on so idle workers pick up the rest
	if more {
		q.signal()
	}
	return job, true
}

func (q *JobQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
