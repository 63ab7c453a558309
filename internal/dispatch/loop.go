package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
)

// Loop is a single-goroutine affinity context. Work items are kept in an
// unbounded FIFO queue so that Post never blocks, including when it is
// called from work already running on the loop.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	// wake has capacity 1; a pending token means the queue may be non-empty
	wake chan struct{}
	done chan struct{}

	started   atomic.Bool
	executing atomic.Bool

	logger *slog.Logger
}

// NewLoop creates a Loop. Nothing runs until Run or Start is called.
func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		queue:  make([]func(), 0, 16),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger.With("component", "affinity_loop"),
	}
}

// Post implements Dispatcher.
func (l *Loop) Post(work func()) error {
	if work == nil {
		return ErrRejected
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, work)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	go func() {
		_ = l.Run(context.Background())
	}()
}

// Run executes posted work on the calling goroutine, which becomes the
// affinity goroutine, until ctx is cancelled or Close is called. Work that is
// already queued at that point is still executed before Run returns.
// Run may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrClosed
	}
	defer close(l.done)

	l.logger.Debug("affinity loop started")

	for {
		for {
			work, ok := l.next()
			if !ok {
				break
			}
			l.execute(work)
		}

		if l.isClosed() {
			// Close may have raced with the last drain
			if l.pending() == 0 {
				l.logger.Debug("affinity loop stopped")
				return ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.Close()
		case <-l.wake:
		}
	}
}

// Close stops the loop from accepting work. Already queued work still runs.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.signal()
}

// Done returns a channel that is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Executing reports whether a work item is currently running on the loop.
func (l *Loop) Executing() bool {
	return l.executing.Load()
}

func (l *Loop) execute(work func()) {
	l.executing.Store(true)
	defer l.executing.Store(false)

	var pc panics.Catcher
	pc.Try(work)
	if r := pc.Recovered(); r != nil {
		l.logger.Error("recovered panic in posted work",
			"panic", r.Value,
			"stack", string(r.Stack))
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	work := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return work, true
}

func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
