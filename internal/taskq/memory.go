package taskq

import (
	"context"
	"sync"
	"time"

	"github.com/gridpulse/csipd/core/logger"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 1024
)

// MemoryBroker executes tasks on a pool of goroutines within the current
// process. It is the default broker when no external transport is
// configured.
type MemoryBroker struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timers   map[*time.Timer]struct{}
	started  bool
	closed   bool

	queue   chan Task
	workers int
	cancel  context.CancelFunc
	ctx     context.Context
	wg      sync.WaitGroup
	log     logger.Logger
}

// NewMemoryBroker creates an in-process broker. workers <= 0 selects the
// default pool size.
func NewMemoryBroker(workers int, log logger.Logger) *MemoryBroker {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &MemoryBroker{
		handlers: make(map[string]Handler),
		timers:   make(map[*time.Timer]struct{}),
		queue:    make(chan Task, defaultQueueSize),
		workers:  workers,
		log:      log,
	}
}

// Subscribe registers the handler for a task name.
func (b *MemoryBroker) Subscribe(name string, h Handler) {
	b.mu.Lock()
	b.handlers[name] = h
	b.mu.Unlock()
}

// Enqueue submits the task. Returns ErrQueueFull when the buffer is
// exhausted rather than blocking the caller.
func (b *MemoryBroker) Enqueue(_ context.Context, t Task) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrBrokerClosed
	}
	select {
	case b.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueAfter schedules t for submission after d.
func (b *MemoryBroker) EnqueueAfter(ctx context.Context, d time.Duration, t Task) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, timer)
		b.mu.Unlock()
		if err := b.Enqueue(ctx, t); err != nil && b.log != nil {
			b.log.Errorf("deferred enqueue of %s failed: %v", t.Name, err)
		}
	})
	b.timers[timer] = struct{}{}
	b.mu.Unlock()
	return nil
}

// Start launches the worker pool.
func (b *MemoryBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	b.started = true
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return nil
}

func (b *MemoryBroker) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case t := <-b.queue:
			b.dispatch(t)
		}
	}
}

func (b *MemoryBroker) dispatch(t Task) {
	b.mu.RLock()
	h := b.handlers[t.Name]
	b.mu.RUnlock()
	if h == nil {
		if b.log != nil {
			b.log.Warnf("no handler registered for task %s", t.Name)
		}
		return
	}
	h(b.ctx, t.Payload)
}

// Close stops pending timers and waits for in-flight tasks to finish.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for timer := range b.timers {
		timer.Stop()
	}
	b.timers = map[*time.Timer]struct{}{}
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	return nil
}
