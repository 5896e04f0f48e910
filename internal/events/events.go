// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	MessageCreated      = "message.created"
	MessagesRead        = "messages.read"
	NotificationCreated = "notification.created"
)

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func New(kind string, data any) Event {
	return Event{Type: kind, OccurredAt: time.Now().UTC(), Data: data}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers an event keyed by the user it concerns.
type Publisher interface {
	Publish(ctx context.Context, key string, evt Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }

func (Nop) Close() error { return nil }
