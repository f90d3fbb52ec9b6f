// Package events publishes domain events to RabbitMQ. Publish errors are
// logged and returned so callers can ignore them without interrupting the
// request that produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue names, one per event kind. The routing key equals the queue name on
// the default exchange.
const (
	QueueTicketCreated      = "ticket.created"
	QueueTicketClosed       = "ticket.closed"
	QueueSubmissionReviewed = "submission.reviewed"
)

// TicketEvent is the payload for ticket lifecycle events
type TicketEvent struct {
	TicketID   int64     `json:"ticket_id"`
	CategoryID int64     `json:"category_id"`
	UserID     int64     `json:"user_id"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SubmissionReviewedEvent is the payload for submission review events
type SubmissionReviewedEvent struct {
	SubmissionID  int64     `json:"submission_id"`
	ApplicationID int64     `json:"application_id"`
	UserID        int64     `json:"user_id"`
	ReviewerID    int64     `json:"reviewer_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher publishes a domain event to the named queue
type Publisher interface {
	Publish(ctx context.Context, queue string, event interface{}) error
}

// AMQPPublisher publishes events over RabbitMQ. Each publish dials a short
// lived connection; the broker is optional infrastructure and a held
// connection would turn broker restarts into request failures.
type AMQPPublisher struct {
	url    string
	logger *zap.Logger
}

// NewAMQPPublisher creates a publisher for the given broker URL
func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, logger: logger}
}

// Publish declares the queue and publishes the event to it. Messages are
// persistent so they survive broker restarts.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, event interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("amqp dial failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("amqp channel open failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		p.logger.Warn("amqp queue declare failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp queue declare failed: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.logger.Warn("amqp publish failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp publish failed: %w", err)
	}

	return nil
}

// NoopPublisher drops all events. Used when no broker is configured.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
