// Package queue publishes captured leads and transcripts to RabbitMQ for the
// downstream automation.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/devcoregroup/lox/backend/internal/integration/webhook"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Event is the message body, shaped like the webhook envelope.
type Event struct {
	Type    string    `json:"type"`
	Contact string    `json:"contact"`
	Data    any       `json:"data"`
	SentAt  time.Time `json:"sentAt"`
}

type TranscriptPayload struct {
	User     lead.Lead      `json:"user"`
	Messages []chat.Message `json:"messages"`
}

type RabbitMQProducer struct {
	ch  Publisher
	now func() time.Time
}

var _ transport.Leads = (*RabbitMQProducer)(nil)

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{ch: ch, now: time.Now}
}

// PersistLead publishes a LEAD_CAPTURE event. The broker assigns no id.
func (p *RabbitMQProducer) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	return "", p.publish(ctx, LeadRoutingKey, Event{
		Type:    webhook.EventLeadCapture,
		Contact: l.ContactIdentifier(),
		Data:    l,
	})
}

// PersistTranscript publishes a CONVERSATION_LOG event.
func (p *RabbitMQProducer) PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error {
	return p.publish(ctx, TranscriptRoutingKey, Event{
		Type:    webhook.EventConversationLog,
		Contact: l.ContactIdentifier(),
		Data:    TranscriptPayload{User: l, Messages: messages},
	})
}

func (p *RabbitMQProducer) publish(ctx context.Context, key string, event Event) error {
	event.SentAt = p.now().UTC()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Timestamp:    event.SentAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}
