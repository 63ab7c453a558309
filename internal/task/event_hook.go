package task

import (
	"context"
	"fmt"

	"github.com/bitcode/asynctask/internal/events"
)

// EventHook returns a hook layer that publishes a LifecycleEvent to emitter
// at every lifecycle point. It never handles errors itself. An emitter
// failure is treated like any other hook failure.
func EventHook[R any](emitter events.EventEmitter) Hook[R] {
	emit := func(ctx context.Context, info Info, point events.Point, cause error) error {
		event := events.NewLifecycleEvent(info.ID, info.Name, point, cause)
		if err := emitter.EmitEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to emit %s event: %w", point, err)
		}
		return nil
	}

	return Hook[R]{
		Start: func(ctx context.Context, info Info) error {
			return emit(ctx, info, events.PointStart, nil)
		},
		Finish: func(ctx context.Context, info Info, _ R) error {
			return emit(ctx, info, events.PointFinish, nil)
		},
		Error: func(ctx context.Context, info Info, err error) (bool, error) {
			return false, emit(ctx, info, events.PointError, err)
		},
		Finalize: func(ctx context.Context, info Info) error {
			return emit(ctx, info, events.PointFinalize, nil)
		},
	}
}
