package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bitcode/asynctask/internal/config"
	"github.com/bitcode/asynctask/internal/dispatch"
	"github.com/bitcode/asynctask/internal/events"
	"github.com/bitcode/asynctask/internal/task"
)

// application holds the components shared by every scenario.
type application struct {
	config *config.Config
	logger *slog.Logger

	loop     *dispatch.Loop
	runner   *task.Runner
	emitter  *events.InMemoryEventEmitter
	recorder *events.Recorder

	mu          sync.Mutex
	escalations map[uuid.UUID]string
}

// newApplication wires the affinity loop, the runner and the event pipeline.
// Nothing is started until Run.
func newApplication(cfg *config.Config, logger *slog.Logger) *application {
	loop := dispatch.NewLoop(logger)

	app := &application{
		config:      cfg,
		logger:      logger.With("component", "taskdemo"),
		loop:        loop,
		emitter:     events.NewInMemoryEventEmitter(logger),
		recorder:    events.NewRecorder(),
		escalations: make(map[uuid.UUID]string),
	}

	app.runner = task.NewRunner(loop, task.RunnerConfig{
		WorkerCount: cfg.Pool.WorkerCount,
		QueueSize:   cfg.Pool.QueueSize,
	}, logger)
	app.runner.SetErrorHandler(app.recordEscalation)
	app.emitter.RegisterHandler(app.recorder)

	return app
}

// recordEscalation is the runner's error handler
func (app *application) recordEscalation(job task.Job, err error) {
	app.logger.Warn("task escalated an error",
		"task_id", job.ID(),
		"task_name", job.Name(),
		"error", err)

	app.mu.Lock()
	defer app.mu.Unlock()
	app.escalations[job.ID()] = err.Error()
}

func (app *application) escalation(id uuid.UUID) string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.escalations[id]
}

// Run starts the loop and the runner, runs every scenario in order, shuts
// both down and returns the report. A cancelled ctx stops at the current
// scenario.
func (app *application) Run(ctx context.Context, burst int) (*Report, error) {
	app.loop.Start()
	app.runner.Start()

	runs := make([]scenarioRun, 0, len(scenarios)+1)
	var runErr error
	for _, sc := range scenarios {
		app.logger.Info("running scenario", "scenario", sc.name)
		r, err := sc.run(ctx, app)
		if err != nil {
			runErr = fmt.Errorf("scenario %s: %w", sc.name, err)
			break
		}
		r.scenario = sc
		runs = append(runs, r)
	}

	if runErr == nil {
		app.logger.Info("running scenario", "scenario", burstScenario.name, "tasks", burst)
		r, err := runBurst(ctx, app, burst)
		if err != nil {
			runErr = fmt.Errorf("scenario %s: %w", burstScenario.name, err)
		} else {
			r.scenario = burstScenario
			runs = append(runs, r)
		}
	}

	// Escalations are reported by the workers after a task is done; stopping
	// the runner waits for all of them.
	app.shutdown()

	if runErr != nil {
		return nil, runErr
	}
	return app.buildReport(runs), nil
}

// shutdown stops the runner before the loop, since running tasks still post
// their hooks to the loop.
func (app *application) shutdown() {
	app.runner.Stop()
	app.loop.Close()
	<-app.loop.Done()
	app.logger.Info("shutdown completed")
}
