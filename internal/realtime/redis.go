package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

type bridgeFrame struct {
	Rooms   []uint          `json:"rooms"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroadcaster shares rooms between server processes: every Emit is
// published on a channel that all instances subscribe to and deliver to
// their own connections.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	local   *Registry
	log     *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewRedisBroadcaster(client *redis.Client, channel string, local *Registry, log *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		local:   local,
		log:     log.With("channel", channel),
	}
}

// Start subscribes to the channel and fans incoming frames out to local
// connections until Close is called.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range pubsub.Channel() {
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				b.log.Warn("discarding malformed bridge frame", "error", err)
				continue
			}
			b.local.Deliver(frame.Payload, frame.Rooms...)
		}
	}()

	return nil
}

func (b *RedisBroadcaster) Emit(ctx context.Context, evt Event, userIDs ...uint) error {
	payload, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", evt.Type, err)
	}

	frame, err := json.Marshal(bridgeFrame{Rooms: userIDs, Payload: payload})
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.channel, frame).Err(); err != nil {
		// Local peers still get the event.
		b.log.Warn("redis publish failed, delivering locally", "type", evt.Type, "error", err)
		b.local.Deliver(payload, userIDs...)
		return nil
	}

	return nil
}

func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	pubsub := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub == nil {
		return nil
	}

	err := pubsub.Close()
	b.wg.Wait()
	return err
}
