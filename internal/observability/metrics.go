package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatencyBuckets suit model inference latencies, ranging from 100ms to 120s.
var LatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// HTTPRequestsTotal counts served HTTP requests by route, method and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claude3_provider_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration records HTTP request duration in seconds by route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claude3_provider_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"route"},
	)

	// UpstreamRequestsTotal counts calls to Anthropic or Bedrock by outcome status code.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claude3_provider_upstream_requests_total",
			Help: "Upstream requests",
		},
		[]string{"backend", "mode", "status"},
	)

	// UpstreamLatency records upstream call latency in seconds.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claude3_provider_upstream_latency_seconds",
			Help:    "Upstream latency",
			Buckets: LatencyBuckets,
		},
		[]string{"backend", "mode"},
	)

	// UpstreamTokensTotal counts tokens reported by the upstream by direction (input/output).
	UpstreamTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claude3_provider_upstream_tokens_total",
			Help: "Token count",
		},
		[]string{"backend", "direction"},
	)

	// ToolCallsTotal counts tool calls returned to clients.
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claude3_provider_tool_calls_total",
			Help: "Tool calls returned to clients",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamLatency,
		UpstreamTokensTotal,
		ToolCallsTotal,
	)
}

// ObserveUpstream records the outcome of one upstream call.
func ObserveUpstream(backend, mode string, status int, elapsed time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(backend, mode, strconv.Itoa(status)).Inc()
	UpstreamLatency.WithLabelValues(backend, mode).Observe(elapsed.Seconds())
}

// ObserveTokens records token usage of one upstream call.
func ObserveTokens(backend string, input, output int64) {
	UpstreamTokensTotal.WithLabelValues(backend, "input").Add(float64(input))
	UpstreamTokensTotal.WithLabelValues(backend, "output").Add(float64(output))
}

// MetricsHandler serves the default registry in the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
