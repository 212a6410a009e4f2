// Package eventloop runs tasks one at a time on a single goroutine.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrStopped is returned when posting to a loop that is no longer running
var ErrStopped = errors.New("event loop stopped")

// Task is a unit of work executed on the loop goroutine
type Task func(ctx context.Context)

// Loop is a single-consumer, ordered task queue
type Loop struct {
	tasks    chan Task
	log      logrus.FieldLogger
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a loop with room for buffer pending tasks
func New(log logrus.FieldLogger, buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan Task, buffer),
		log:   log,
		done:  make(chan struct{}),
	}
}

// Run consumes tasks until ctx is cancelled. Tasks still queued at that
// point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })

	l.log.Debug("Event loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("Event loop stopped")
			return ctx.Err()
		case task := <-l.tasks:
			l.runTask(ctx, task)
		}
	}
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues a task, blocking while the queue is full
func (l *Loop) Post(task Task) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- task:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for its result. It gives up waiting
// when ctx is done, but fn may still run later.
func (l *Loop) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	err := l.Post(func(loopCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panic: %v", r)
				panic(r)
			}
		}()
		result <- fn(loopCtx)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}

// runTask executes one task with panic recovery
func (l *Loop) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("stack", string(debug.Stack())).Errorf("PANIC in event loop task: %v", r)
		}
	}()
	task(ctx)
}
