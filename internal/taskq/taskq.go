package taskq

import (
	"context"
	"errors"
	"time"
)

// Task is a unit of asynchronous work identified by name with an opaque
// (JSON encoded) payload.
type Task struct {
	Name    string `json:"name"`
	Payload []byte `json:"payload"`
}

// Handler processes a task payload. Handlers must be safe for concurrent
// use; a handler never returns an error because tasks own their failure
// handling (retry scheduling, logging).
type Handler func(ctx context.Context, payload []byte)

// Broker enqueues tasks for asynchronous execution decoupled from the
// caller, and fans them out to subscribed handlers.
type Broker interface {
	// Enqueue submits the task for execution. It never blocks on the task
	// being executed.
	Enqueue(ctx context.Context, t Task) error
	// EnqueueAfter schedules t to be submitted once d has elapsed. The
	// delay is tracked by a timer, not a blocked goroutine, so many
	// deferred tasks can be pending at once.
	EnqueueAfter(ctx context.Context, d time.Duration, t Task) error
	// Subscribe registers the handler for a task name. Must be called
	// before Start.
	Subscribe(name string, h Handler)
	// Start begins executing tasks until ctx is cancelled or Close is
	// called.
	Start(ctx context.Context) error
	Close() error
}

var (
	// ErrBrokerClosed is returned by Enqueue after Close.
	ErrBrokerClosed = errors.New("taskq: broker is closed")
	// ErrQueueFull is returned when the pending task buffer is exhausted.
	ErrQueueFull = errors.New("taskq: queue is full")
)
