package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.DiscoveryServer("stdio", "ok")
	m.DiscoveryServer("stdio", "cache")
	m.DiscoveryServer("http", "error")
	m.ExecutionCall("stdio", "ok")
	m.ListDuration("stdio", 250*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.discoveryServers.WithLabelValues("stdio", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.discoveryServers.WithLabelValues("stdio", "cache")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.discoveryServers.WithLabelValues("http", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.discoveryCacheHit))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.executionCalls.WithLabelValues("stdio", "ok")))
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DiscoveryServer("stdio", "ok")
		m.ListDuration("stdio", time.Second)
		m.ExecutionCall("stdio", "error")
	})
}
