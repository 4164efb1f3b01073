package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursemart/internal/config"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}
	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}

// NoopPublisher drops every message. Used when no GCP project is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) (string, error) {
	return "", nil
}

// PurchaseCompleted is the payload of the purchase.completed event.
type PurchaseCompleted struct {
	Type            string    `json:"type"`
	PurchaseID      string    `json:"purchase_id"`
	MerchantOrderID string    `json:"merchant_order_id"`
	UserID          string    `json:"user_id"`
	CourseID        string    `json:"course_id"`
	Gateway         string    `json:"gateway"`
	AmountPaise     int64     `json:"amount_paise"`
	Currency        string    `json:"currency"`
	CompletedAt     time.Time `json:"completed_at"`
}

// PurchaseCompletedType is the event type carried in PurchaseCompleted.Type.
const PurchaseCompletedType = "purchase.completed"

// PublishJSON marshals v and publishes it to topic.
func PublishJSON(ctx context.Context, p Publisher, topic string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}
	return p.Publish(ctx, topic, data)
}
