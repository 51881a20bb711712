package scanning

import (
	"time"

	"github.com/google/uuid"

	"github.com/pantryscan/pantryscan/internal/domain/events"
)

// Event types relevant to scan sessions:
const (
	EventTypeSessionStarted     events.EventType = "SessionStarted"
	EventTypeItemPendingCreated events.EventType = "ItemPendingCreated"
	EventTypeItemActivated      events.EventType = "ItemActivated"
	EventTypeSessionResumed     events.EventType = "SessionResumed"
	EventTypeSessionCompleted   events.EventType = "SessionCompleted"
	EventTypeSessionFlagged     events.EventType = "SessionFlagged"
	EventTypeSessionCancelled   events.EventType = "SessionCancelled"
)

// SessionStartedEvent indicates a debounced code detection created a session.
type SessionStartedEvent struct {
	occurredAt time.Time
	SessionID  uuid.UUID
	Barcode    string
	CodeFormat CodeFormat
}

func NewSessionStartedEvent(sessionID uuid.UUID, barcode string, format CodeFormat) SessionStartedEvent {
	return SessionStartedEvent{
		occurredAt: time.Now(),
		SessionID:  sessionID,
		Barcode:    barcode,
		CodeFormat: format,
	}
}

func (e SessionStartedEvent) EventType() events.EventType { return EventTypeSessionStarted }
func (e SessionStartedEvent) OccurredAt() time.Time       { return e.occurredAt }

// ItemPendingCreatedEvent signals phase 1 succeeded and a pending inventory
// record now exists on the backend.
type ItemPendingCreatedEvent struct {
	occurredAt    time.Time
	SessionID     uuid.UUID
	PendingItemID string
	ProductName   string
}

func NewItemPendingCreatedEvent(sessionID uuid.UUID, pendingItemID, productName string) ItemPendingCreatedEvent {
	return ItemPendingCreatedEvent{
		occurredAt:    time.Now(),
		SessionID:     sessionID,
		PendingItemID: pendingItemID,
		ProductName:   productName,
	}
}

func (e ItemPendingCreatedEvent) EventType() events.EventType { return EventTypeItemPendingCreated }
func (e ItemPendingCreatedEvent) OccurredAt() time.Time       { return e.occurredAt }

// ItemActivatedEvent signals phase 2 succeeded and the record is active.
type ItemActivatedEvent struct {
	occurredAt    time.Time
	SessionID     uuid.UUID
	PendingItemID string
	HasDate       bool
}

func NewItemActivatedEvent(sessionID uuid.UUID, pendingItemID string, hasDate bool) ItemActivatedEvent {
	return ItemActivatedEvent{
		occurredAt:    time.Now(),
		SessionID:     sessionID,
		PendingItemID: pendingItemID,
		HasDate:       hasDate,
	}
}

func (e ItemActivatedEvent) EventType() events.EventType { return EventTypeItemActivated }
func (e ItemActivatedEvent) OccurredAt() time.Time       { return e.occurredAt }

// SessionResumedEvent means a session was reconstructed from a snapshot on
// cold start instead of restarting from idle.
type SessionResumedEvent struct {
	occurredAt time.Time
	SessionID  uuid.UUID
	Step       SessionStep
}

func NewSessionResumedEvent(sessionID uuid.UUID, step SessionStep) SessionResumedEvent {
	return SessionResumedEvent{
		occurredAt: time.Now(),
		SessionID:  sessionID,
		Step:       step,
	}
}

func (e SessionResumedEvent) EventType() events.EventType { return EventTypeSessionResumed }
func (e SessionResumedEvent) OccurredAt() time.Time       { return e.occurredAt }

// SessionCompletedEvent means the session finished through review approval.
type SessionCompletedEvent struct {
	occurredAt    time.Time
	SessionID     uuid.UUID
	PendingItemID string
}

func NewSessionCompletedEvent(sessionID uuid.UUID, pendingItemID string) SessionCompletedEvent {
	return SessionCompletedEvent{
		occurredAt:    time.Now(),
		SessionID:     sessionID,
		PendingItemID: pendingItemID,
	}
}

func (e SessionCompletedEvent) EventType() events.EventType { return EventTypeSessionCompleted }
func (e SessionCompletedEvent) OccurredAt() time.Time       { return e.occurredAt }

// SessionFlaggedEvent means the user flagged the record for manual review.
type SessionFlaggedEvent struct {
	occurredAt    time.Time
	SessionID     uuid.UUID
	PendingItemID string
	Reason        string
}

func NewSessionFlaggedEvent(sessionID uuid.UUID, pendingItemID, reason string) SessionFlaggedEvent {
	return SessionFlaggedEvent{
		occurredAt:    time.Now(),
		SessionID:     sessionID,
		PendingItemID: pendingItemID,
		Reason:        reason,
	}
}

func (e SessionFlaggedEvent) EventType() events.EventType { return EventTypeSessionFlagged }
func (e SessionFlaggedEvent) OccurredAt() time.Time       { return e.occurredAt }

// SessionCancelledEvent means the session was discarded before completion.
type SessionCancelledEvent struct {
	occurredAt time.Time
	SessionID  uuid.UUID
	Step       SessionStep
}

func NewSessionCancelledEvent(sessionID uuid.UUID, step SessionStep) SessionCancelledEvent {
	return SessionCancelledEvent{
		occurredAt: time.Now(),
		SessionID:  sessionID,
		Step:       step,
	}
}

func (e SessionCancelledEvent) EventType() events.EventType { return EventTypeSessionCancelled }
func (e SessionCancelledEvent) OccurredAt() time.Time       { return e.occurredAt }
