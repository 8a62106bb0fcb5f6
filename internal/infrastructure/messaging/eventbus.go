// Package messaging implements the in-memory event bus that fans domain
// events out to subscribers (audit trail, cache invalidation). Suitable for
// single-instance deployments; publication never blocks business operations.
package messaging

import (
	"sync"
	"sync/atomic"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is an in-memory implementation of shared.EventPublisher with
// per-type and catch-all subscriptions.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	async       bool
	workerPool  chan struct{}
	log         *logger.Logger
	closed      bool
	wg          sync.WaitGroup

	published atomic.Int64
	failed    atomic.Int64
}

// Config contains event bus configuration.
type Config struct {
	// Async enables asynchronous delivery through a bounded worker pool.
	Async bool

	// WorkerPoolSize is the number of concurrent deliveries in async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Async:          true,
		WorkerPoolSize: 8,
	}
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus(cfg Config) *EventBus {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 8
	}

	return &EventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		async:      cfg.Async,
		workerPool: make(chan struct{}, cfg.WorkerPoolSize),
		log:        cfg.Logger.With(logger.Component("eventbus")),
	}
}

// Subscribe registers a handler for one event type.
func (b *EventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish delivers the event to all matching handlers. Delivery errors are
// logged, never propagated: the business operation already happened.
func (b *EventBus) Publish(event shared.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]shared.EventHandler, 0,
		len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.published.Add(1)

	for _, handler := range handlers {
		if b.async {
			b.wg.Add(1)
			go func(h shared.EventHandler) {
				defer b.wg.Done()
				b.workerPool <- struct{}{}
				defer func() { <-b.workerPool }()
				b.deliver(h, event)
			}(handler)
		} else {
			b.deliver(handler, event)
		}
	}
}

func (b *EventBus) deliver(handler shared.EventHandler, event shared.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.failed.Add(1)
			b.log.Error("event handler panicked",
				logger.F("event_type", string(event.EventType())),
				logger.F("panic", r))
		}
	}()

	if err := handler.Handle(event); err != nil {
		b.failed.Add(1)
		b.log.Error("event handler failed",
			logger.F("event_type", string(event.EventType())),
			logger.F("aggregate_id", event.AggregateID()),
			logger.Err(err))
	}
}

// Close waits for in-flight async deliveries and stops accepting events.
func (b *EventBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

// Stats returns delivery counters for diagnostics.
func (b *EventBus) Stats() (published, failed int64) {
	return b.published.Load(), b.failed.Load()
}
