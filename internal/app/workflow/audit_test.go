package workflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryscan/pantryscan/internal/domain/events"
	eventbus "github.com/pantryscan/pantryscan/internal/infra/eventbus/memory"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

func TestEventAuditorCoversAllSessionEvents(t *testing.T) {
	t.Parallel()

	auditor := NewEventAuditor(logger.New(&bytes.Buffer{}, logger.LevelInfo, "test", nil))

	supported := auditor.SupportedEvents()
	assert.Len(t, supported, 7)
	for _, evtType := range supported {
		err := auditor.HandleEvent(context.Background(), events.DomainEvent{Type: evtType})
		require.NoError(t, err)
	}
}

func TestEventAuditorLogsPublishedEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	auditor := NewEventAuditor(logger.New(&buf, logger.LevelInfo, "test", nil))

	broker := eventbus.NewBroker()
	defer broker.Close()
	require.NoError(t, broker.Subscribe(context.Background(), auditor.SupportedEvents(), auditor.HandleEvent))

	publisher := eventbus.NewDomainEventPublisher(broker)
	sessionID := uuid.New().String()
	err := publisher.PublishDomainEvent(context.Background(),
		events.DomainEvent{Type: "SessionStarted"},
		events.WithKey(sessionID),
	)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "SessionStarted")
	assert.Contains(t, buf.String(), sessionID)
}
