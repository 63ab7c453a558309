package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Point names a task lifecycle point
type Point string

// Lifecycle points, in the order a task reaches them
const (
	PointStart    Point = "start"
	PointFinish   Point = "finish"
	PointError    Point = "error"
	PointFinalize Point = "finalize"
)

// LifecycleEvent records that a task reached a lifecycle point.
type LifecycleEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id" yaml:"id"`

	// TaskID identifies the task that emitted the event
	TaskID uuid.UUID `json:"task_id" yaml:"task_id"`

	// TaskName is the task's label
	TaskName string `json:"task_name" yaml:"task_name"`

	// Point is the lifecycle point reached
	Point Point `json:"point" yaml:"point"`

	// Error holds the computation error message for PointError events
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewLifecycleEvent creates a new LifecycleEvent for the given task and point.
// err may be nil.
func NewLifecycleEvent(taskID uuid.UUID, taskName string, point Point, err error) *LifecycleEvent {
	event := &LifecycleEvent{
		ID:        uuid.New(),
		TaskID:    taskID,
		TaskName:  taskName,
		Point:     point,
		CreatedAt: time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	return event
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *LifecycleEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *LifecycleEvent) error
}
