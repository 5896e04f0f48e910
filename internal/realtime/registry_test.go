package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/testutil"
	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	id     string
	userID uint
	full   bool
	closed bool

	mu     sync.Mutex
	frames [][]byte
}

func newFakePeer(userID uint) *fakePeer {
	return &fakePeer{id: uuid.NewString(), userID: userID}
}

func (p *fakePeer) ID() string   { return p.id }
func (p *fakePeer) UserID() uint { return p.userID }
func (p *fakePeer) Closed() bool { return p.closed }

func (p *fakePeer) Send(payload []byte) bool {
	if p.full || p.closed {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, payload)
	return true
}

func (p *fakePeer) envelopes(t *testing.T) []Envelope {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Envelope, 0, len(p.frames))
	for _, frame := range p.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

func (p *fakePeer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func TestRegistry_RoomsAndMultiTab(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(testutil.Logger(), nil)

	tab1, tab2 := newFakePeer(1), newFakePeer(1)
	other := newFakePeer(2)

	reg.Add(tab1)
	reg.Add(tab2)
	reg.Add(other)

	req.True(reg.Online(1))
	req.Len(reg.Peers(1), 2)
	req.Equal(3, reg.Len())

	// When an event targets user 1
	req.NoError(reg.Emit(context.Background(), Event{Type: EventReceiveMessage, Data: map[string]string{"content": "hi"}}, 1))

	// Then every tab of user 1 gets it and user 2 does not
	req.Equal(1, tab1.count())
	req.Equal(1, tab2.count())
	req.Zero(other.count())

	reg.Remove(tab1)
	req.Len(reg.Peers(1), 1)

	reg.Remove(tab2)
	req.False(reg.Online(1))
	req.Empty(reg.Peers(1))
}

func TestRegistry_DeliverDeduplicatesRooms(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(testutil.Logger(), nil)

	p := newFakePeer(1)
	reg.Add(p)
	reg.Join(2, p)

	delivered := reg.Deliver([]byte(`{}`), 1, 2, 1)
	req.Equal(1, delivered)
	req.Equal(1, p.count())

	reg.Remove(p)
	req.False(reg.Online(2))
	req.Zero(reg.Len())
}

func TestRegistry_SkipsSlowPeers(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(testutil.Logger(), nil)

	slow := newFakePeer(1)
	slow.full = true
	fast := newFakePeer(1)
	reg.Add(slow)
	reg.Add(fast)

	req.Equal(1, reg.Deliver([]byte(`{}`), 1))
	req.Equal(1, fast.count())
}

func TestRegistry_CountsOnlyFullBuffersAsDropped(t *testing.T) {
	req := require.New(t)
	promReg := prometheus.NewRegistry()
	reg := NewRegistry(testutil.Logger(), metrics.New(promReg))

	slow := newFakePeer(1)
	slow.full = true
	closing := newFakePeer(1)
	closing.closed = true
	reg.Add(slow)
	reg.Add(closing)

	// When neither peer takes the frame
	req.Zero(reg.Deliver([]byte(`{}`), 1))

	// Then only the full buffer is a dropped push
	req.NoError(promtest.GatherAndCompare(promReg, strings.NewReader(`
# HELP sphere_ws_dropped_pushes_total Realtime events dropped because a peer's send buffer was full.
# TYPE sphere_ws_dropped_pushes_total counter
sphere_ws_dropped_pushes_total 1
`), "sphere_ws_dropped_pushes_total"))
}

func TestRegistry_OfflineUserIsNoop(t *testing.T) {
	reg := NewRegistry(testutil.Logger(), nil)
	require.Zero(t, reg.Deliver([]byte(`{}`), 42))
}
