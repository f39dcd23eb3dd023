// Package metrics provides Prometheus metrics for the find-link MCP server.
// It tracks tool calls, wiki API traffic, decode retries and pagination behaviour.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "findlink_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// WikiAPILatency measures wiki API round trips by HTTP method
	WikiAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "wiki_api_latency_seconds",
		Help:      "Wiki API call latency by HTTP method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// WikiAPIRequestsTotal counts wiki API round trips
	WikiAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_requests_total",
		Help:      "Total wiki API requests by HTTP method and status",
	}, []string{"method", "status"})

	// WikiAPIErrors counts MediaWiki error objects by error code
	WikiAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_errors_total",
		Help:      "MediaWiki API error replies by error code",
	}, []string{"code"})

	// ConnectionRetries counts connection-level retries made by the transport
	ConnectionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "connection_retries_total",
		Help:      "Connection-level retries made by the HTTP transport",
	})

	// DecodeRetries counts replies that failed to decode and were retried
	DecodeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "decode_retries_total",
		Help:      "Replies that could not be decoded and were retried",
	})

	// DecodeFailures counts decode failures surfaced to callers
	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "decode_failures_total",
		Help:      "Decode failures surfaced after the final attempt",
	})

	// PagesFetched counts result pages fetched by the pagination engine
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "pages_fetched_total",
		Help:      "Result pages fetched by continuation key",
	}, []string{"key"})

	// ContinuationsTruncated counts paginations stopped by the page ceiling
	ContinuationsTruncated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "continuations_truncated_total",
		Help:      "Paginations stopped at the continuation ceiling",
	}, []string{"key"})

	// TitleBatches counts title batches issued
	TitleBatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "title_batches_total",
		Help:      "Title batches issued by batched queries",
	})

	// Classifications counts classifier outcomes (missing, redirect, disambiguation, bad_title, protocol)
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "classifications_total",
		Help:      "Reply classification outcomes",
	}, []string{"outcome"})

	// CircuitState tracks the transport circuit breaker (0 closed, 1 open, 2 half-open)
	CircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "circuit_state",
		Help:      "Transport circuit breaker state (0 closed, 1 open, 2 half-open)",
	})

	// HTTPRequestsTotal counts requests to the streamable HTTP transport
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a wiki API round trip. status is the HTTP status text
// or "transport_error" when no response was received.
func RecordAPICall(method string, duration float64, status string) {
	WikiAPIRequestsTotal.WithLabelValues(method, status).Inc()
	WikiAPILatency.WithLabelValues(method).Observe(duration)
}

// RecordAPIError records a MediaWiki error object
func RecordAPIError(code string) {
	if code == "" {
		code = "unknown"
	}
	WikiAPIErrors.WithLabelValues(code).Inc()
}

// RecordClassification records a classifier outcome
func RecordClassification(outcome string) {
	Classifications.WithLabelValues(outcome).Inc()
}
