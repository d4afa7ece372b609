/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs callbacks on the goroutine that owns a Controller.
// RequestFrame queues fn for the next frame; AfterFunc queues fn once d has
// elapsed.
type Scheduler interface {
	RequestFrame(fn func())
	AfterFunc(d time.Duration, fn func())
}

// Loop is a frame-driven Scheduler. Its owner calls Frame on every tick of a
// frame clock and runs callbacks received from Due.
type Loop struct {
	mu     sync.Mutex
	frames []func()

	due  chan func()
	done chan struct{}
	once sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		due:  make(chan func(), 16),
		done: make(chan struct{}),
	}
}

func (l *Loop) RequestFrame(fn func()) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case l.due <- fn:
		case <-l.done:
		}
	})
}

// Due delivers timer callbacks that are ready to run.
func (l *Loop) Due() <-chan func() {
	return l.due
}

// Frame runs the callbacks requested before this call. Callbacks requested
// while running wait for the next frame.
func (l *Loop) Frame() int {
	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, fn := range frames {
		fn()
	}

	return len(frames)
}

// Close drops pending timers.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Run drives the loop until ctx is done, running a frame every interval and
// any callback posted to inbox in between.
func (l *Loop) Run(ctx context.Context, interval time.Duration, inbox <-chan func()) error {
	defer l.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Frame()
		case fn := <-l.due:
			fn()
		case fn, ok := <-inbox:
			if !ok {
				return nil
			}
			fn()
		}
	}
}
