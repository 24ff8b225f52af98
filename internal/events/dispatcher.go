package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the worker queue has no room.
var ErrQueueFull = errors.New("notification queue full")

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// DispatcherOptions sizes the worker pool.
type DispatcherOptions struct {
	Workers        int
	QueueSize      int
	HandlerTimeout time.Duration
}

// AsyncDispatcher hands events to a fixed pool of workers over a bounded queue.
// Publish never waits on a handler.
type AsyncDispatcher struct {
	logger  *zap.Logger
	opts    DispatcherOptions
	queue   chan Event
	wg      sync.WaitGroup
	started sync.Once

	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	closed    bool
}

// NewAsyncDispatcher creates a dispatcher. Call Start before publishing.
func NewAsyncDispatcher(opts DispatcherOptions, logger *zap.Logger) *AsyncDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 10 * time.Second
	}
	return &AsyncDispatcher{
		logger:    logger,
		opts:      opts,
		queue:     make(chan Event, opts.QueueSize),
		listeners: make(map[EventType][]EventHandler),
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Start launches the worker goroutines.
func (d *AsyncDispatcher) Start() {
	d.started.Do(func() {
		for i := 0; i < d.opts.Workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
		d.logger.Info("notification dispatcher started",
			zap.Int("workers", d.opts.Workers),
			zap.Int("queue_size", d.opts.QueueSize))
	})
}

// Publish enqueues the event without blocking.
func (d *AsyncDispatcher) Publish(event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to drain or ctx to end.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			d.run(handler, event)
		}
	}
}

func (d *AsyncDispatcher) run(handler EventHandler, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.HandlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("notification handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
