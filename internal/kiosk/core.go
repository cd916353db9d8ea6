// Package kiosk contains the event loop at the center of the daemon.
//
// Sensor events and manually injected events land in one FIFO queue; a
// single ticker-driven goroutine drains the queue in arrival order and
// hands each code to the dispatcher. With exactly one draining goroutine,
// screen transitions are strictly ordered no matter how bursty the sensor
// board gets.
package kiosk

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoha-dev/kioskd/internal/dispatch"
	"github.com/hitoha-dev/kioskd/internal/sensor"
)

const (
	// QueueCapacity bounds the event queue. The board emits at human
	// interaction speed, so a backlog this deep means the loop is wedged
	// and dropping is the right call.
	QueueCapacity = 64

	// TickInterval is how often the queue is drained.
	TickInterval = 20 * time.Millisecond
)

// Dispatcher consumes drained event codes. Satisfied by
// [dispatch.Dispatcher].
type Dispatcher interface {
	Dispatch(code dispatch.Code)
}

type queuedEvent struct {
	code   int
	source string
	at     time.Time
}

// Option is a functional option for configuring a Core.
type Option func(*Core)

// WithTickInterval overrides the drain interval. Used in tests.
func WithTickInterval(d time.Duration) Option {
	return func(c *Core) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithQueueCapacity overrides the queue depth. Used in tests.
func WithQueueCapacity(n int) Option {
	return func(c *Core) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithSubmitFunc registers a callback invoked for every Submit, reporting
// the event source and whether the event was dropped. Used to wire metrics.
func WithSubmitFunc(fn func(source string, dropped bool)) Option {
	return func(c *Core) {
		c.onSubmit = fn
	}
}

// WithDispatchFunc registers a callback invoked after every dispatched
// event with its queue-to-dispatch latency. Used to wire metrics.
func WithDispatchFunc(fn func(code int, latency time.Duration)) Option {
	return func(c *Core) {
		c.onDispatch = fn
	}
}

// Core owns the event queue and the drain loop.
type Core struct {
	dispatcher Dispatcher
	tick       time.Duration
	capacity   int
	queue      chan queuedEvent

	onSubmit   func(source string, dropped bool)
	onDispatch func(code int, latency time.Duration)
}

// New creates a Core delivering events to d.
func New(d Dispatcher, opts ...Option) *Core {
	c := &Core{
		dispatcher: d,
		tick:       TickInterval,
		capacity:   QueueCapacity,
	}
	for _, o := range opts {
		o(c)
	}
	c.queue = make(chan queuedEvent, c.capacity)
	return c
}

// Submit enqueues one event code without blocking. source labels where the
// event came from ("sensor", "inject") for logging and metrics. Returns
// false if the queue was full and the event was dropped.
func (c *Core) Submit(code int, source string) bool {
	ev := queuedEvent{code: code, source: source, at: time.Now()}
	select {
	case c.queue <- ev:
		if c.onSubmit != nil {
			c.onSubmit(source, false)
		}
		return true
	default:
		slog.Warn("event queue full; dropping event", "code", code, "source", source)
		if c.onSubmit != nil {
			c.onSubmit(source, true)
		}
		return false
	}
}

// Consume submits every event from a sensor reader until the channel closes.
// Run in its own goroutine.
func (c *Core) Consume(events <-chan sensor.Event) {
	for ev := range events {
		c.Submit(ev.Code, "sensor")
	}
}

// Run drives the drain loop until ctx is cancelled. Each tick drains the
// whole queue in FIFO order before sleeping again.
func (c *Core) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	slog.Info("kiosk event loop started", "tick", c.tick, "queue_capacity", c.capacity)
	for {
		select {
		case <-ctx.Done():
			slog.Info("kiosk event loop stopped")
			return
		case <-ticker.C:
			c.drain()
		}
	}
}

// drain dispatches every queued event, oldest first.
func (c *Core) drain() {
	for {
		select {
		case ev := <-c.queue:
			c.dispatcher.Dispatch(dispatch.Code(ev.code))
			if c.onDispatch != nil {
				c.onDispatch(ev.code, time.Since(ev.at))
			}
		default:
			return
		}
	}
}
