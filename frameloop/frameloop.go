// Package frameloop drives the engine's continuous render loop: a single
// repeating callback scheduled at a fixed frame interval. A frame is never
// suspended mid-callback; listeners run to completion before the next tick.
package frameloop

import (
	"sync"
	"time"
)

// DefaultInterval targets 60 frames per second.
const DefaultInterval = time.Second / 60

// Loop invokes registered listeners once per frame on a single goroutine.
// Listeners must be registered before Start.
type Loop struct {
	mu       sync.Mutex
	interval time.Duration
	stopped  bool
	stop     chan struct{}

	listeners []func(now time.Time)

	frames uint64
}

// NewLoop constructs a loop with the given frame interval; non-positive
// intervals fall back to DefaultInterval.
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// AddListener registers a per-frame callback. Listeners run in registration
// order inside the frame.
func (l *Loop) AddListener(fn func(now time.Time)) {
	l.listeners = append(l.listeners, fn)
}

// Start runs the loop in a separate goroutine until Stop is called. It
// returns a channel that is closed when the loop finishes.
func (l *Loop) Start() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-l.stop:
				return
			case now := <-ticker.C:
				for _, fn := range l.listeners {
					fn(now)
				}
				l.mu.Lock()
				l.frames++
				l.mu.Unlock()
			}
		}
	}()
	return done
}

// Stop halts the loop. Safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stop)
}

// Frames returns the number of completed frames.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}
