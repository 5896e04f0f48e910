package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sphere-social/sphere/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestRedisBroadcaster_FansOutAcrossInstances(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)

	newInstance := func() (*RedisBroadcaster, *Registry) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		reg := NewRegistry(testutil.Logger(), nil)
		b := NewRedisBroadcaster(client, "sphere:test", reg, testutil.Logger())
		req.NoError(b.Start(ctx))
		t.Cleanup(func() { _ = b.Close() })
		return b, reg
	}

	// Given user 7 connected to instance B only
	bA, _ := newInstance()
	_, regB := newInstance()
	peer := newFakePeer(7)
	regB.Add(peer)

	// When instance A emits to user 7
	req.NoError(bA.Emit(ctx, Event{Type: EventNewNotification, Data: map[string]string{"type": "like"}}, 7))

	// Then the peer on instance B receives it
	req.Eventually(func() bool { return peer.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	env := peer.envelopes(t)[0]
	req.Equal(EventNewNotification, env.Type)
	req.JSONEq(`{"type":"like"}`, string(env.Data))
}

func TestRedisBroadcaster_FallsBackToLocalDelivery(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	reg := NewRegistry(testutil.Logger(), nil)
	peer := newFakePeer(1)
	reg.Add(peer)

	b := NewRedisBroadcaster(client, "sphere:test", reg, testutil.Logger())
	mr.Close()

	req.NoError(b.Emit(context.Background(), Event{Type: EventMessageRead, Data: map[string]uint{"sender": 2, "receiver": 1}}, 1))
	req.Equal(1, peer.count())
}
