package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"forklifttracker/internal/metrics"
	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRelayChannel is the redis channel shared by all instances.
const DefaultRelayChannel = "forklift:events"

// Publisher delivers an event to local websocket clients.
type Publisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

// Relay forwards events between instances over redis pub/sub so a user
// connected to any instance receives them. Each instance still delivers its
// own events locally; messages it published itself are ignored on receipt.
type Relay struct {
	client  *redis.Client
	channel string
	local   Publisher
	origin  string
}

type envelope struct {
	Origin     string        `json:"origin"`
	Event      *models.Event `json:"event"`
	Recipients []uuid.UUID   `json:"recipients,omitempty"`
}

func NewRelay(client *redis.Client, channel string, local Publisher) *Relay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &Relay{client: client, channel: channel, local: local, origin: uuid.NewString()}
}

// Publish sends the event to the other instances.
func (r *Relay) Publish(ctx context.Context, event *models.Event) error {
	payload, err := r.encode(event)
	if err != nil {
		return err
	}
	err = r.client.Publish(ctx, r.channel, payload).Err()
	metrics.EventsPublished.WithLabelValues("redis", event.Type, metrics.Result(err)).Inc()
	return err
}

// Run subscribes to the channel and blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("channel", r.channel).Msg("Realtime relay subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("relay subscription closed")
			}
			r.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (r *Relay) encode(event *models.Event) ([]byte, error) {
	return json.Marshal(envelope{Origin: r.origin, Event: event, Recipients: event.Recipients})
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Event == nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Dropping malformed relay message")
		return
	}
	if env.Origin == r.origin {
		return
	}
	env.Event.Recipients = env.Recipients
	if err := r.local.Publish(ctx, env.Event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", env.Event.Type).Msg("Failed to deliver relayed event")
	}
}
