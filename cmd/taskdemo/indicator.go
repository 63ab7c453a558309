package main

import (
	"fmt"
	"log/slog"
	"sync"
)

// consoleIndicator stands in for a progress dialog. It logs and records
// every call; with dismiss set it is dismissed as soon as it is shown.
type consoleIndicator struct {
	logger  *slog.Logger
	dismiss bool

	mu    sync.Mutex
	calls []string
}

func newConsoleIndicator(logger *slog.Logger, dismiss bool) *consoleIndicator {
	return &consoleIndicator{
		logger:  logger.With("component", "indicator"),
		dismiss: dismiss,
	}
}

// Show implements task.Indicator
func (c *consoleIndicator) Show(cancelable bool, onCancel func()) {
	c.record(fmt.Sprintf("show(cancelable=%t)", cancelable))
	c.logger.Info("progress shown", "cancelable", cancelable)

	if c.dismiss && cancelable {
		c.record("dismiss")
		c.logger.Info("progress dismissed")
		onCancel()
	}
}

// Hide implements task.Indicator
func (c *consoleIndicator) Hide() {
	c.record("hide")
	c.logger.Info("progress hidden")
}

func (c *consoleIndicator) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Calls returns the recorded calls in order
func (c *consoleIndicator) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}
