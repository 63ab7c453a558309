package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// State represents the lifecycle position of a task
type State int32

// Lifecycle states, in the only order a task can move through them
const (
	StateCreated State = iota
	StateStarted
	StateRunning
	StateSucceeded
	StateFailed
	StateFinalized
)

var stateNames = [...]string{
	StateCreated:   "created",
	StateStarted:   "started",
	StateRunning:   "running",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
	StateFinalized: "finalized",
}

// String returns the lowercase state name
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// MarshalText lets states appear by name in JSON and YAML reports
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// canTransition reports whether a task may move from s to next.
// Started goes straight to Failed when a start hook fails.
func (s State) canTransition(next State) bool {
	switch s {
	case StateCreated:
		return next == StateStarted
	case StateStarted:
		return next == StateRunning || next == StateFailed
	case StateRunning:
		return next == StateSucceeded || next == StateFailed
	case StateSucceeded, StateFailed:
		return next == StateFinalized
	default:
		return false
	}
}

// Job represents a unit of background work processed by the worker pool
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Name returns a human readable label used in logs
	Name() string

	// Run executes the job on a worker goroutine
	Run(ctx context.Context) error
}

// JobQueueReader lets workers consume jobs without the ability to enqueue
type JobQueueReader interface {
	// Dequeue returns the next job, waiting while none is queued. It
	// returns false once nothing is queued and ctx is done or the queue
	// is closed.
	Dequeue(ctx context.Context) (Job, bool)
}

// JobQueueWriter provides write access to the job queue
type JobQueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is closed
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission
	Close()
}
