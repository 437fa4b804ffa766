package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"forklifttracker/internal/metrics"
	"forklifttracker/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// DefaultExchange receives every domain event, routed by event type.
const DefaultExchange = "forklift.events"

// RabbitPublisher publishes domain events to a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher ready")
	return &RabbitPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends the event with its type as routing key.
func (r *RabbitPublisher) Publish(ctx context.Context, event *models.Event) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	r.mu.Lock()
	err = r.channel.Publish(r.exchange, event.Type, false, false, msg)
	r.mu.Unlock()

	metrics.EventsPublished.WithLabelValues("amqp", event.Type, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func encodeEvent(event *models.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.At,
		Type:         event.Type,
		Body:         body,
	}, nil
}

// Close cleans up connection and channel
func (r *RabbitPublisher) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}
