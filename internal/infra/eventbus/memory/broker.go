// Package memory provides an in-memory implementation of the event bus.
// It offers a lightweight, non-persistent broker suitable for single-process
// deployments and tests where durability is not required.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pantryscan/pantryscan/internal/domain/events"
)

var _ events.EventBus = (*Broker)(nil)

// Broker provides an in-memory implementation of events.EventBus. Handlers
// registered for an event type run synchronously, in registration order, on
// the publisher's goroutine.
type Broker struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]events.HandlerFunc
	closed   bool
}

// NewBroker creates an in-memory event broker with no subscriptions.
func NewBroker() *Broker {
	return &Broker{handlers: make(map[events.EventType][]events.HandlerFunc)}
}

// Publish delivers the event to every handler subscribed to its type,
// stopping at the first handler error. Handlers are copied before iteration
// so a handler may subscribe or publish without deadlocking.
func (b *Broker) Publish(ctx context.Context, event events.DomainEvent, opts ...events.PublishOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := events.PublishParams{}
	for _, opt := range opts {
		opt(&params)
	}
	if params.Key != "" {
		event.Key = params.Key
	}
	if len(params.Headers) > 0 {
		event.Headers = params.Headers
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.New("event bus is closed")
	}
	registered := b.handlers[event.Type]
	handlersCopy := make([]events.HandlerFunc, len(registered))
	copy(handlersCopy, registered)
	b.mu.RUnlock()

	for _, handler := range handlersCopy {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for the given event types. The handler stays
// registered until the bus is closed.
func (b *Broker) Subscribe(ctx context.Context, eventTypes []events.EventType, handler events.HandlerFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("event bus is closed")
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
	return nil
}

// Close shuts down the broker. Subsequent publishes and subscriptions fail.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[events.EventType][]events.HandlerFunc)
	return nil
}
