// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into the transport, MCP client, and orchestrator seams.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared across a toolkit instance.
// A nil *Metrics is safe to use: every method is a no-op guard away from a
// registry.
type Metrics struct {
	registry *prometheus.Registry

	transportRequests *prometheus.CounterVec
	transportRetries  *prometheus.CounterVec
	transportErrors   *prometheus.CounterVec

	mcpRequestDuration *prometheus.HistogramVec

	orchestratorIterations *prometheus.CounterVec
	orchestratorToolCalls  *prometheus.CounterVec
}

// NewMetrics creates a fresh registry and registers all collectors. Pass the
// result to transport/mcpclient/orchestrator constructors; a nil *Metrics
// disables instrumentation entirely.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.transportRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpkit_transport_requests_total",
		Help: "Outbound transport requests by transport kind and outcome.",
	}, []string{"transport", "outcome"})

	m.transportRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpkit_transport_retries_total",
		Help: "Retry attempts issued by the remote transport.",
	}, []string{"transport"})

	m.transportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpkit_transport_errors_total",
		Help: "Terminal transport errors by kind.",
	}, []string{"transport", "kind"})

	m.mcpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mcpkit_mcp_request_duration_seconds",
		Help:    "MCP JSON-RPC request duration by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	m.orchestratorIterations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpkit_orchestrator_iterations_total",
		Help: "Agentic loop iterations by outcome.",
	}, []string{"outcome"})

	m.orchestratorToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpkit_orchestrator_tool_calls_total",
		Help: "Tool calls dispatched by the orchestrator, by tool name and outcome.",
	}, []string{"tool", "outcome"})

	m.registry.MustRegister(
		m.transportRequests,
		m.transportRetries,
		m.transportErrors,
		m.mcpRequestDuration,
		m.orchestratorIterations,
		m.orchestratorToolCalls,
	)

	return m
}

// Registry exposes the underlying Prometheus registry, e.g. for mounting
// promhttp.HandlerFor on an admin endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveTransportRequest(transport, outcome string) {
	if m == nil {
		return
	}
	m.transportRequests.WithLabelValues(transport, outcome).Inc()
}

func (m *Metrics) ObserveTransportRetry(transport string) {
	if m == nil {
		return
	}
	m.transportRetries.WithLabelValues(transport).Inc()
}

func (m *Metrics) ObserveTransportError(transport, kind string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(transport, kind).Inc()
}

func (m *Metrics) ObserveMCPRequestDuration(method string, seconds float64) {
	if m == nil {
		return
	}
	m.mcpRequestDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) ObserveOrchestratorIteration(outcome string) {
	if m == nil {
		return
	}
	m.orchestratorIterations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOrchestratorToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.orchestratorToolCalls.WithLabelValues(tool, outcome).Inc()
}
