package event

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/lotledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers domain events synchronously to the handlers
// subscribed to their type. Events are published after the ledger and status
// writes they describe, so a failing handler is logged and never undoes them.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler

	logger    *zap.Logger
	running   atomic.Bool
	published atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus creates an event bus with no subscribers
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		logger: logger.Named("events"),
	}
}

// Subscribe routes the given event types to handler. Without types the
// handler's own EventTypes are used, and an empty list receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	if len(eventTypes) == 0 {
		b.catchAll = append(b.catchAll, handler)
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
	b.mu.Unlock()

	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every route
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.catchAll = slices.DeleteFunc(b.catchAll, func(h shared.EventHandler) bool { return h == handler })
	for t, handlers := range b.byType {
		handlers = slices.DeleteFunc(handlers, func(h shared.EventHandler) bool { return h == handler })
		if len(handlers) == 0 {
			delete(b.byType, t)
			continue
		}
		b.byType[t] = handlers
	}
}

// handlersFor returns the type routes followed by the catch-all handlers
func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.EventHandler, 0, len(b.byType[eventType])+len(b.catchAll))
	out = append(out, b.byType[eventType]...)
	return append(out, b.catchAll...)
}

// Publish implements shared.EventPublisher. It always returns nil; handler
// failures are counted and logged.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		b.published.Add(1)
		for _, h := range b.handlersFor(e.EventType()) {
			if err := b.deliver(ctx, h, e); err != nil {
				b.failed.Add(1)
				b.logger.Error("event handler failed",
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()),
					zap.String("aggregate_key", e.AggregateKey()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// PublishFrom takes the pending events of each record and publishes them
func (b *InMemoryEventBus) PublishFrom(ctx context.Context, sources ...shared.EventSource) error {
	var events []shared.DomainEvent
	for _, s := range sources {
		if s == nil {
			continue
		}
		events = append(events, s.TakeEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	return b.Publish(ctx, events...)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop marks the bus as stopped and logs its delivery counters
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped",
		zap.Int64("published", b.published.Load()),
		zap.Int64("handler_failures", b.failed.Load()),
	)
	return nil
}

// Running reports whether Start has been called without a matching Stop
func (b *InMemoryEventBus) Running() bool {
	return b.running.Load()
}

func (b *InMemoryEventBus) deliver(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", e.EventType()),
				zap.Any("panic", r),
			)
			err = errHandlerPanicked
		}
	}()
	return h.Handle(ctx, e)
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)
