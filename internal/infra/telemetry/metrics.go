// Package telemetry carries bridge metrics and the zap-backed status
// sink.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records discovery and execution counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	discoveryServers  *prometheus.CounterVec
	discoveryCacheHit prometheus.Counter
	listDuration      *prometheus.HistogramVec
	executionCalls    *prometheus.CounterVec
}

// NewMetrics registers bridge metrics with the registerer, defaulting
// to the process-global one.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		discoveryServers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpbridge_discovery_servers_total",
				Help: "Servers visited during discovery passes by outcome",
			},
			[]string{"transport", "outcome"},
		),
		discoveryCacheHit: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mcpbridge_discovery_cache_hits_total",
				Help: "Discovery passes served from the tool cache",
			},
		),
		listDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpbridge_tool_list_duration_seconds",
				Help:    "Duration of remote tool listing calls in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"transport"},
		),
		executionCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpbridge_execution_calls_total",
				Help: "Tool invocations by outcome",
			},
			[]string{"transport", "outcome"},
		),
	}
}

// DiscoveryServer counts one visited server by outcome ("ok",
// "cache", "error").
func (m *Metrics) DiscoveryServer(transport, outcome string) {
	if m == nil {
		return
	}
	m.discoveryServers.WithLabelValues(transport, outcome).Inc()
	if outcome == "cache" {
		m.discoveryCacheHit.Inc()
	}
}

// ListDuration records the duration of one tools/list round trip.
func (m *Metrics) ListDuration(transport string, d time.Duration) {
	if m == nil {
		return
	}
	m.listDuration.WithLabelValues(transport).Observe(d.Seconds())
}

// ExecutionCall counts one invocation by outcome ("ok", "error").
func (m *Metrics) ExecutionCall(transport, outcome string) {
	if m == nil {
		return
	}
	m.executionCalls.WithLabelValues(transport, outcome).Inc()
}
