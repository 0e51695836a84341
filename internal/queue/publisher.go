package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/coursehub-auth/internal/logger"
)

// Publisher sends domain events to RabbitMQ, dialling a connection per
// message.
//
// Publishing is best-effort.  Errors are logged and returned so callers can
// ignore them without interrupting the request that produced the event.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// AccountRegistered publishes ev to the account.registered queue.
func (p *Publisher) AccountRegistered(ctx context.Context, ev AccountRegisteredEvent) error {
	return p.publish(ctx, AccountRegisteredQueue, ev)
}

// SessionReuseDetected publishes ev to the session.reuse_detected queue.
func (p *Publisher) SessionReuseDetected(ctx context.Context, ev SessionReuseDetectedEvent) error {
	return p.publish(ctx, SessionReuseDetectedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queue, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		logger.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		logger.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

// Noop discards every event.  It is used when EVENTS_ENABLED is false.
type Noop struct{}

func (Noop) AccountRegistered(context.Context, AccountRegisteredEvent) error       { return nil }
func (Noop) SessionReuseDetected(context.Context, SessionReuseDetectedEvent) error { return nil }
