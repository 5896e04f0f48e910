package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/sphere-social/sphere/internal/metrics"
)

// Peer is one live connection as seen by the registry.
type Peer interface {
	ID() string
	UserID() uint
	// Send queues a frame and reports false when the peer cannot take it.
	Send(payload []byte) bool
	// Closed reports whether the connection is shutting down.
	Closed() bool
}

// Broadcaster pushes an event to every live connection of the given users.
type Broadcaster interface {
	Emit(ctx context.Context, evt Event, userIDs ...uint) error
}

// Registry maps a user id to the set of that user's live connections.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[uint]map[string]Peer
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewRegistry(log *slog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		rooms:   make(map[uint]map[string]Peer),
		log:     log,
		metrics: m,
	}
}

// Add admits a peer into the room of its own user.
func (r *Registry) Add(p Peer) {
	r.Join(p.UserID(), p)
}

// Join places the peer in userID's room.
func (r *Registry) Join(userID uint, p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[userID]
	if !ok {
		room = make(map[string]Peer)
		r.rooms[userID] = room
	}
	room[p.ID()] = p
}

// Remove drops the peer from every room it joined.
func (r *Registry) Remove(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, room := range r.rooms {
		if _, ok := room[p.ID()]; !ok {
			continue
		}
		delete(room, p.ID())
		if len(room) == 0 {
			delete(r.rooms, userID)
		}
	}
}

func (r *Registry) Peers(userID uint) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.rooms[userID])
}

func (r *Registry) Online(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[userID]) > 0
}

// Len returns the number of distinct live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, room := range r.rooms {
		for id := range room {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// Deliver hands an encoded frame to every connection in the users' rooms.
// A connection in several of the rooms receives it once. Peers that refuse
// the frame are skipped; only live ones count as dropped pushes.
func (r *Registry) Deliver(payload []byte, userIDs ...uint) int {
	r.mu.RLock()
	targets := make(map[string]Peer)
	for _, userID := range lo.Uniq(userIDs) {
		for id, p := range r.rooms[userID] {
			targets[id] = p
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, p := range targets {
		if p.Send(payload) {
			delivered++
			continue
		}
		if p.Closed() {
			continue
		}
		r.metrics.PushDropped()
		r.log.Warn("dropping realtime event for slow peer", "peer", p.ID(), "user_id", p.UserID())
	}

	return delivered
}

// Emit encodes the event and delivers it to this process's connections.
func (r *Registry) Emit(_ context.Context, evt Event, userIDs ...uint) error {
	payload, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", evt.Type, err)
	}

	r.Deliver(payload, userIDs...)
	return nil
}
