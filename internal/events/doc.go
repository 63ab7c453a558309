// Package events provides lifecycle event types and a simple in-memory
// emitter.
//
// Tasks can publish an event at each lifecycle point (start, finish, error,
// finalize) without knowing who consumes them. Handlers such as the Recorder
// subscribe to the emitter to build traces, drive UI state or collect
// diagnostics.
//
// The primary components are:
// - LifecycleEvent: one lifecycle point reached by one task
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
// - Recorder: an EventHandler that keeps an ordered log of events
package events
