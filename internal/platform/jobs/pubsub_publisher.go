package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
)

// EmailJobMessage is the payload published for asynchronous order emails.
type EmailJobMessage struct {
	JobID      string            `json:"jobId"`
	OrderID    string            `json:"orderId"`
	UserID     string            `json:"userId"`
	Template   string            `json:"template"`
	Recipients []string          `json:"recipients"`
	Subject    string            `json:"subject"`
	Variables  map[string]string `json:"variables,omitempty"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
}

// Email templates understood by the job worker.
const (
	TemplateOrderSubmitted = "order_submitted"
	TemplateOrderReviewed  = "order_reviewed"
	TemplateAdminNewOrder  = "admin_new_order"
)

// EmailPublisher enqueues email jobs for out-of-band delivery.
type EmailPublisher interface {
	PublishEmailJob(ctx context.Context, message EmailJobMessage) (string, error)
}

// PubSubEmailPublisher publishes email jobs to a Pub/Sub topic.
type PubSubEmailPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubEmailPublisher constructs a Pub/Sub backed email job publisher.
func NewPubSubEmailPublisher(topic *pubsub.Topic) (*PubSubEmailPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub email publisher: topic is required")
	}
	return &PubSubEmailPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishEmailJob enqueues an email job message on the configured topic.
func (p *PubSubEmailPublisher) PublishEmailJob(ctx context.Context, message EmailJobMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub email publisher: not initialised")
	}
	if len(message.Recipients) == 0 {
		return "", errors.New("pubsub email publisher: recipients are required")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal email job: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "jobId", message.JobID)
	setAttr(attrs, "orderId", message.OrderID)
	setAttr(attrs, "userId", message.UserID)
	setAttr(attrs, "template", message.Template)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish email job: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
