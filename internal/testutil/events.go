package testutil

import (
	"context"
	"sync"

	"github.com/sphere-social/sphere/internal/events"
)

// EventRecorder keeps published events in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	keys   []string
}

func (r *EventRecorder) Publish(_ context.Context, key string, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	r.keys = append(r.keys, key)
	return nil
}

func (r *EventRecorder) Close() error { return nil }

func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *EventRecorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}
