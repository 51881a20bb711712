package workflow

import (
	"context"

	"github.com/pantryscan/pantryscan/internal/domain/events"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

var _ events.EventHandler = (*EventAuditor)(nil)

// EventAuditor subscribes to every scan lifecycle event and writes a
// structured audit line for each one. It is the default bus subscriber, so
// published events always do observable work even when no projection layer
// is attached.
type EventAuditor struct {
	logger *logger.Logger
}

// NewEventAuditor creates an auditor logging through the given logger.
func NewEventAuditor(logger *logger.Logger) *EventAuditor {
	return &EventAuditor{logger: logger.With("component", "event_auditor")}
}

// SupportedEvents returns every scan lifecycle event type.
func (a *EventAuditor) SupportedEvents() []events.EventType {
	return []events.EventType{
		scanning.EventTypeSessionStarted,
		scanning.EventTypeItemPendingCreated,
		scanning.EventTypeItemActivated,
		scanning.EventTypeSessionResumed,
		scanning.EventTypeSessionCompleted,
		scanning.EventTypeSessionFlagged,
		scanning.EventTypeSessionCancelled,
	}
}

// HandleEvent records the event. It never fails; auditing must not stop
// delivery to other handlers.
func (a *EventAuditor) HandleEvent(ctx context.Context, evt events.DomainEvent) error {
	a.logger.Info(ctx, "scan event",
		"event_type", evt.Type,
		"session_id", evt.Key,
		"occurred_at", evt.Timestamp)
	return nil
}
