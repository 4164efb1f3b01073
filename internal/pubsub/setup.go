package pubsub

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

const (
	topicRetention     = 7 * 24 * time.Hour
	maxDeliveryAttempt = 5
)

// DeadLetterTopicID names the topic that receives undeliverable messages of topicID.
func DeadLetterTopicID(topicID string) string {
	return topicID + "-dlq"
}

// SubscriptionID names the default pull subscription of topicID.
func SubscriptionID(topicID string) string {
	return topicID + "-sub"
}

// EnsureTopic creates the topic when it does not exist and reports whether it did.
func (p *PubSubPublisher) EnsureTopic(ctx context.Context, topicID string) (*pubsub.Topic, bool, error) {
	topic := p.client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("check topic %s: %w", topicID, err)
	}
	if exists {
		return topic, false, nil
	}
	topic, err = p.client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: topicRetention})
	if err != nil {
		return nil, false, fmt.Errorf("create topic %s: %w", topicID, err)
	}
	return topic, true, nil
}

// EnsurePurchaseTopic sets up topicID for consumers of purchase events: the topic,
// its dead-letter topic and a pull subscription that dead-letters after repeated failures.
// Existing resources are left as they are. The names of the created resources are returned.
func (p *PubSubPublisher) EnsurePurchaseTopic(ctx context.Context, topicID string) ([]string, error) {
	var created []string

	dlq, ok, err := p.EnsureTopic(ctx, DeadLetterTopicID(topicID))
	if err != nil {
		return created, err
	}
	if ok {
		created = append(created, dlq.ID())
	}
	topic, ok, err := p.EnsureTopic(ctx, topicID)
	if err != nil {
		return created, err
	}
	if ok {
		created = append(created, topic.ID())
	}

	subID := SubscriptionID(topicID)
	sub := p.client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return created, fmt.Errorf("check subscription %s: %w", subID, err)
	}
	if exists {
		return created, nil
	}
	_, err = p.client.CreateSubscription(ctx, subID, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 600 * time.Second,
		},
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlq.String(),
			MaxDeliveryAttempts: maxDeliveryAttempt,
		},
	})
	if err != nil {
		return created, fmt.Errorf("create subscription %s: %w", subID, err)
	}
	return append(created, subID), nil
}
