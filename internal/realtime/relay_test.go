package realtime

import (
	"context"
	"testing"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []*models.Event
}

func (p *capturePublisher) Publish(_ context.Context, event *models.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestRelayDeliversForeignEventsWithRecipients(t *testing.T) {
	sender := NewRelay(nil, "", &capturePublisher{})
	local := &capturePublisher{}
	receiver := NewRelay(nil, "", local)

	recipient := uuid.New()
	event := models.NewEvent(models.EventCompanyDeleted, uuid.New())
	event.Recipients = []uuid.UUID{recipient}

	payload, err := sender.encode(event)
	require.NoError(t, err)

	receiver.handle(context.Background(), payload)

	require.Len(t, local.events, 1)
	assert.Equal(t, models.EventCompanyDeleted, local.events[0].Type)
	assert.Equal(t, event.CompanyID, local.events[0].CompanyID)
	assert.Equal(t, []uuid.UUID{recipient}, local.events[0].Recipients)
}

func TestRelayIgnoresOwnMessages(t *testing.T) {
	local := &capturePublisher{}
	relay := NewRelay(nil, "", local)

	payload, err := relay.encode(models.NewEvent(models.EventForkliftCreated, uuid.New()))
	require.NoError(t, err)

	relay.handle(context.Background(), payload)
	assert.Empty(t, local.events)
}

func TestRelayDropsMalformedMessages(t *testing.T) {
	local := &capturePublisher{}
	relay := NewRelay(nil, "", local)

	relay.handle(context.Background(), []byte("not json"))
	relay.handle(context.Background(), []byte(`{"origin":"x"}`))
	assert.Empty(t, local.events)
	assert.Equal(t, DefaultRelayChannel, relay.channel)
}
