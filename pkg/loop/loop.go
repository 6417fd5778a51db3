// Package loop provides the cooperative, single-threaded task queue that an
// application shell runs on.
//
// Every location change, timer callback and client action of one shell is a
// task on the same queue, so tasks never run concurrently with each other.
// Nothing orders tasks beyond FIFO: a task that posts more work simply
// queues it behind whatever is already waiting.
package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Scheduler queues work for cooperative execution.
type Scheduler interface {
	// Post queues task to run after every task already queued.
	Post(task func())

	// After queues task once d has elapsed. The returned function cancels
	// the timer if it has not fired yet.
	After(d time.Duration, task func()) (cancel func())
}

// Loop is a Scheduler backed by a single goroutine (the one calling Run).
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	logger *slog.Logger
}

// New creates a loop. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger.With("component", "loop"),
	}
}

// Post implements Scheduler. Tasks posted after the loop stopped are dropped.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, task func()) func() {
	t := time.AfterFunc(d, func() { l.Post(task) })
	return func() { t.Stop() }
}

// Run executes queued tasks until ctx is cancelled. A panicking task is
// logged and abandoned; the loop keeps serving later tasks.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			l.run(task)
		}

		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.queue = nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	task()
}
