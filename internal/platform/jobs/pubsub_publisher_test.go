package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubEmailPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "email-jobs")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubEmailPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubEmailPublisher: %v", err)
	}

	msg := EmailJobMessage{
		JobID:      "ej_test",
		OrderID:    "order-1",
		UserID:     "user-1",
		Template:   TemplateOrderSubmitted,
		Recipients: []string{"user@example.com"},
		Subject:    "주문이 접수되었습니다",
		EnqueuedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	if _, err := publisher.PublishEmailJob(ctx, msg); err != nil {
		t.Fatalf("PublishEmailJob: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload EmailJobMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != msg.OrderID || payload.Template != msg.Template {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["template"]; attr != TemplateOrderSubmitted {
		t.Fatalf("expected template attribute, got %q", attr)
	}
}

func TestPubSubEmailPublisherRequiresRecipients(t *testing.T) {
	publisher := &PubSubEmailPublisher{topic: &pubsub.Topic{}, marshal: json.Marshal}
	if _, err := publisher.PublishEmailJob(context.Background(), EmailJobMessage{}); err == nil {
		t.Fatalf("expected error for missing recipients")
	}
}
