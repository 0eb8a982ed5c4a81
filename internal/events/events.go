// Package events announces image lifecycle changes to other systems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Type names an event.
type Type string

const (
	ImageCreated  Type = "image.created"
	ImageDeleted  Type = "image.deleted"
	ImageLiked    Type = "image.liked"
	ImageOrphaned Type = "image.orphaned"
)

// Orphan kinds carried by ImageOrphaned events.
const (
	OrphanObject = "object" // object stored, record missing
	OrphanRecord = "record" // record kept, object removed
)

// QueueName is the durable queue events are published to.
const QueueName = "media_events"

// Event is the JSON body of a published message.
type Event struct {
	Type       Type      `json:"type"`
	ImageID    string    `json:"image_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	StorageKey string    `json:"storage_key,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Likes      *int64    `json:"likes,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers treat delivery as best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to QueueName.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel Channel
}

// NewAMQPPublisher dials url and declares the durable events queue.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", QueueName, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// NewAMQPPublisherWithChannel publishes on an already open channel.
func NewAMQPPublisherWithChannel(ch Channel) *AMQPPublisher {
	return &AMQPPublisher{channel: ch}
}

// Publish sends event; a zero OccurredAt is set to now.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp.Channel is not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish("", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(event.Type),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close amqp publisher: %v", errs)
	}
	return nil
}
