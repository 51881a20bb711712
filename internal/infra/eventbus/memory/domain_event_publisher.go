package memory

import (
	"context"
	"time"

	"github.com/pantryscan/pantryscan/internal/domain/events"
)

var _ events.DomainEventPublisher = (*DomainEventPublisher)(nil)

// DomainEventPublisher implements events.DomainEventPublisher on top of the
// in-memory broker. It stamps events missing a timestamp before delivery.
type DomainEventPublisher struct {
	eventBus events.EventBus
}

// NewDomainEventPublisher creates a publisher that distributes domain events
// through the provided event bus.
func NewDomainEventPublisher(bus events.EventBus) *DomainEventPublisher {
	return &DomainEventPublisher{eventBus: bus}
}

// PublishDomainEvent sends a domain event through the event bus.
func (pub *DomainEventPublisher) PublishDomainEvent(
	ctx context.Context,
	event events.DomainEvent,
	opts ...events.PublishOption,
) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return pub.eventBus.Publish(ctx, event, opts...)
}
