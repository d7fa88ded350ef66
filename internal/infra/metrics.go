package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters for the reconciliation core. A nil *Metrics is
// valid everywhere and records nothing, so tests and embedders can opt out.
type Metrics struct {
	registry *prometheus.Registry

	eventsApplied *prometheus.CounterVec
	notifications *prometheus.CounterVec
	droppedFrames prometheus.Counter
	pollFailures  prometheus.Counter
	reconnects    prometheus.Counter
	connected     prometheus.Gauge
}

// NewMetrics builds a metrics set on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		eventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstudio_sync_events_applied_total",
			Help: "Record updates applied, by source channel and record kind.",
		}, []string{"source", "kind"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstudio_sync_notifications_total",
			Help: "Notifications dispatched, by severity.",
		}, []string{"severity"}),
		droppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "clipstudio_sync_dropped_frames_total",
			Help: "Inbound frames dropped as malformed or unknown.",
		}),
		pollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clipstudio_sync_poll_failures_total",
			Help: "Poll fetches that failed and were retried on the next tick.",
		}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "clipstudio_sync_reconnects_total",
			Help: "Event link reconnection attempts after an unexpected close.",
		}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clipstudio_sync_connected",
			Help: "1 while the event link is connected, 0 otherwise.",
		}),
	}
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventApplied(source, kind string) {
	if m == nil {
		return
	}
	m.eventsApplied.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) NotificationSent(severity string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(severity).Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.droppedFrames.Inc()
}

func (m *Metrics) PollFailed() {
	if m == nil {
		return
	}
	m.pollFailures.Inc()
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
