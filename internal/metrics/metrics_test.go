package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counts(t *testing.T) {
	req := require.New(t)
	m := New(prometheus.NewRegistry())

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.MessageSent()
	m.NotificationCreated("like")
	m.NotificationCreated("like")
	m.PushDropped()

	req.Equal(1.0, testutil.ToFloat64(m.connections))
	req.Equal(1.0, testutil.ToFloat64(m.messagesSent))
	req.Equal(2.0, testutil.ToFloat64(m.notifications.WithLabelValues("like")))
	req.Equal(1.0, testutil.ToFloat64(m.droppedPushes))
	req.Zero(testutil.ToFloat64(m.rejections))

	m.DependencyUp("database", true)
	m.DependencyUp("redis", false)
	req.Equal(1.0, testutil.ToFloat64(m.dependencyUp.WithLabelValues("database")))
	req.Zero(testutil.ToFloat64(m.dependencyUp.WithLabelValues("redis")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.MessageSent()
		m.ReadReceipt()
		m.NotificationCreated("welcome")
		m.PushDropped()
		m.HandshakeRejected()
		m.RateLimited()
		m.DependencyUp("redis", true)
	})
}
