package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Recorder is an EventHandler that keeps every event it receives, in order.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []LifecycleEvent
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// HandleEvent implements EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *LifecycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LifecycleEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ForTask returns the recorded events of one task.
func (r *Recorder) ForTask(taskID uuid.UUID) []LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []LifecycleEvent
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Points returns the lifecycle points one task went through.
func (r *Recorder) Points(taskID uuid.UUID) []Point {
	events := r.ForTask(taskID)
	points := make([]Point, len(events))
	for i, e := range events {
		points[i] = e.Point
	}
	return points
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
