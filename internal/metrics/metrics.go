// Package metrics exposes the relay's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	connections   prometheus.Gauge
	messagesSent  prometheus.Counter
	readReceipts  prometheus.Counter
	notifications *prometheus.CounterVec
	droppedPushes prometheus.Counter
	rejections    prometheus.Counter
	rateLimited   prometheus.Counter
	dependencyUp  *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sphere",
			Name:      "ws_connections",
			Help:      "Live websocket connections admitted by the handshake.",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "messages_sent_total",
			Help:      "Direct messages persisted by the relay.",
		}),
		readReceipts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "read_receipts_total",
			Help:      "Mark-read operations processed.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "notifications_total",
			Help:      "Notifications created, by type.",
		}, []string{"type"}),
		droppedPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "ws_dropped_pushes_total",
			Help:      "Realtime events dropped because a peer's send buffer was full.",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "ws_handshake_rejections_total",
			Help:      "Websocket connections refused for missing or invalid credentials.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sphere",
			Name:      "messages_rate_limited_total",
			Help:      "Sends refused by the rate limiter.",
		}),
		dependencyUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sphere",
			Name:      "dependency_up",
			Help:      "1 when the latest check of a dependency passed.",
		}, []string{"dependency"}),
	}

	reg.MustRegister(
		m.connections,
		m.messagesSent,
		m.readReceipts,
		m.notifications,
		m.droppedPushes,
		m.rejections,
		m.rateLimited,
		m.dependencyUp,
	)

	return m
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) MessageSent() {
	if m != nil {
		m.messagesSent.Inc()
	}
}

func (m *Metrics) ReadReceipt() {
	if m != nil {
		m.readReceipts.Inc()
	}
}

func (m *Metrics) NotificationCreated(kind string) {
	if m != nil {
		m.notifications.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) PushDropped() {
	if m != nil {
		m.droppedPushes.Inc()
	}
}

func (m *Metrics) HandshakeRejected() {
	if m != nil {
		m.rejections.Inc()
	}
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *Metrics) DependencyUp(name string, up bool) {
	if m == nil {
		return
	}
	value := 0.0
	if up {
		value = 1
	}
	m.dependencyUp.WithLabelValues(name).Set(value)
}
