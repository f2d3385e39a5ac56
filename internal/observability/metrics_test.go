package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHelpers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetricsWith(registry)

	m.ConnectionOpened("collab")
	m.ConnectionOpened("collab")
	m.ConnectionClosed("collab")
	m.ConnectionOpened("chat")

	expected := `
		# HELP mentora_active_connections Currently registered WebSocket connections per relay
		# TYPE mentora_active_connections gauge
		mentora_active_connections{relay="chat"} 1
		mentora_active_connections{relay="collab"} 1
	`
	if err := testutil.CollectAndCompare(m.ActiveConnections, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected gauge values: %v", err)
	}

	m.MessageRelayed("collab", "sync")
	m.MessageRelayed("collab", "sync")
	m.MessageRelayed("chat", "message")
	if count := testutil.CollectAndCount(m.RelayedMessages); count != 2 {
		t.Errorf("expected 2 relayed-message label combinations, got %d", count)
	}

	m.SendFailed("chat")
	if got := testutil.ToFloat64(m.SendFailures.WithLabelValues("chat")); got != 1 {
		t.Errorf("send failures = %v, want 1", got)
	}

	m.MessageDropped("chat")
	if got := testutil.ToFloat64(m.DroppedMessages.WithLabelValues("chat")); got != 1 {
		t.Errorf("dropped messages = %v, want 1", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics

	// Relays run without metrics in unit tests; every helper must tolerate it.
	m.ConnectionOpened("collab")
	m.ConnectionClosed("collab")
	m.MessageRelayed("collab", "sync")
	m.SendFailed("collab")
	m.MessageDropped("chat")
}
