// Package events encapsulates sending messages to remote services such as Pub/Sub.
package events

import (
	"context"
	"encoding/json"

	log "groupifyserver/cloudlog"

	"cloud.google.com/go/pubsub"
)

// NotificationEvent is published whenever a notification document is created,
// for downstream push-delivery workers.
type NotificationEvent struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	Type           string `json:"type"`
	Title          string `json:"title"`
}

// Publisher sends events to a Pub/Sub topic. A nil Publisher (or one whose
// client failed to connect) drops events silently, so callers never have to
// guard the call site.
type Publisher struct {
	client *pubsub.Client
	topic  string
}

// NewPublisher connects to Pub/Sub for the project. When topic is empty or the
// client cannot be created, publishing becomes a no-op.
func NewPublisher(ctx context.Context, projectID, topic string) *Publisher {
	if topic == "" {
		return &Publisher{}
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Printf("Failed to start pubsub client: %s", err.Error())
		return &Publisher{}
	}
	return &Publisher{client: client, topic: topic}
}

// NotificationCreated publishes the event; delivery is best effort.
func (p *Publisher) NotificationCreated(ctx context.Context, ev NotificationEvent) {
	if p == nil || p.client == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error marshalling event %#v, reason: %s", ev, err.Error())
		return
	}
	p.client.Topic(p.topic).Publish(ctx, &pubsub.Message{Data: data})
}
