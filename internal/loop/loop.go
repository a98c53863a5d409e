// Package loop provides the host event loop that every renderer callback is
// delivered on. Callers never block on the renderer: they post work or arm a
// timer and the loop runs it later, one function at a time.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/logger"
)

// ErrClosed is returned by Run once the loop has been stopped.
var ErrClosed = errors.New("loop: closed")

// Dispatcher schedules functions onto a single host event loop.
type Dispatcher interface {
	// Post queues fn to run on the loop. It never blocks on fn.
	Post(fn func())
	// AfterFunc runs fn on the loop once d has elapsed. The returned stop
	// function cancels it and reports whether it was still pending.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// Loop is a goroutine-backed Dispatcher. Functions run strictly in post order.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post implements Dispatcher. Posts after Stop are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default: // A wake-up is already pending
	}
}

// AfterFunc implements Dispatcher.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return t.Stop
}

// Run drains posted functions until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return ErrClosed
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.safeRun(fn)
		}
	}
}

// safeRun keeps one misbehaving callback from taking the loop down.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("loop: callback panicked: %v", r)
		}
	}()
	fn()
}

// Stop ends Run. Pending functions are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.done)
}
