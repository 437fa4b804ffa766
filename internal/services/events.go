package services

import (
	"context"
	"errors"

	"forklifttracker/internal/models"

	"github.com/rs/zerolog/log"
)

// EventPublisher delivers domain events to websocket clients, the broker, or both.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

// MultiPublisher fans an event out to every publisher.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event *models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.Event) error { return nil }

// publish never fails the calling operation.
func publish(ctx context.Context, p EventPublisher, event *models.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", event.Type).Str("company_id", event.CompanyID.String()).Msg("Failed to publish event")
	}
}
