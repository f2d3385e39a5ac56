// Package observability collects Prometheus metrics for the relay core so
// that best-effort delivery failures are recorded events rather than silently
// swallowed faults.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters and gauges maintained by the relays.
//
// Labels: relay is "collab" or "chat"; kind is the inbound envelope kind
// ("sync", "awareness", "message", "opaque", "ping").
type Metrics struct {
	// ActiveConnections tracks currently registered connections per relay.
	ActiveConnections *prometheus.GaugeVec

	// RelayedMessages counts inbound messages accepted for fan-out.
	RelayedMessages *prometheus.CounterVec

	// SendFailures counts per-recipient delivery failures during broadcast.
	// A failure never aborts the broadcast or unregisters the connection.
	SendFailures *prometheus.CounterVec

	// DroppedMessages counts inbound payloads discarded without fan-out
	// (unrecognized chat envelopes).
	DroppedMessages *prometheus.CounterVec
}

// NewMetrics registers all relay metrics with the default Prometheus registry.
// Call once at startup; the /metrics endpoint exposes the result.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the relay metrics with the given registerer. Tests
// pass an isolated prometheus.NewRegistry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mentora_active_connections",
				Help: "Currently registered WebSocket connections per relay",
			},
			[]string{"relay"},
		),

		RelayedMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentora_relayed_messages_total",
				Help: "Inbound messages accepted for fan-out by relay and kind",
			},
			[]string{"relay", "kind"},
		),

		SendFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentora_send_failures_total",
				Help: "Per-recipient delivery failures during broadcast",
			},
			[]string{"relay"},
		),

		DroppedMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentora_dropped_messages_total",
				Help: "Inbound payloads discarded without fan-out",
			},
			[]string{"relay"},
		),
	}
}

// ConnectionOpened records a new registered connection. All helpers are
// nil-safe so the relays can run without metrics in unit tests.
func (m *Metrics) ConnectionOpened(relay string) {
	if m == nil {
		return
	}
	m.ActiveConnections.WithLabelValues(relay).Inc()
}

// ConnectionClosed records an unregistered connection.
func (m *Metrics) ConnectionClosed(relay string) {
	if m == nil {
		return
	}
	m.ActiveConnections.WithLabelValues(relay).Dec()
}

// MessageRelayed records an inbound message accepted for fan-out.
func (m *Metrics) MessageRelayed(relay, kind string) {
	if m == nil {
		return
	}
	m.RelayedMessages.WithLabelValues(relay, kind).Inc()
}

// SendFailed records one failed delivery attempt during a broadcast.
func (m *Metrics) SendFailed(relay string) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(relay).Inc()
}

// MessageDropped records an inbound payload discarded without fan-out.
func (m *Metrics) MessageDropped(relay string) {
	if m == nil {
		return
	}
	m.DroppedMessages.WithLabelValues(relay).Inc()
}
