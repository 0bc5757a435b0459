package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Upstream metrics
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	// Surface metrics
	toolCalls        *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	analysisRuns     *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finscope_upstream_requests_total",
			Help: "Total number of upstream provider calls by outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	r.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finscope_upstream_request_duration_seconds",
			Help:    "Upstream provider call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	r.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finscope_tool_calls_total",
			Help: "Total number of MCP tool invocations",
		},
		[]string{"tool", "outcome"},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finscope_cache_lookups_total",
			Help: "Total number of response cache lookups by result",
		},
		[]string{"operation", "result"},
	)
	r.analysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finscope_analysis_runs_total",
			Help: "Total number of stock analysis workflow runs",
		},
		[]string{"status"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finscope_analysis_duration_seconds",
			Help:    "Stock analysis workflow duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	reg.MustRegister(r.upstreamRequests)
	reg.MustRegister(r.upstreamDuration)
	reg.MustRegister(r.toolCalls)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.analysisRuns)
	reg.MustRegister(r.analysisDuration)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordUpstream records one upstream provider call.
func (r *Registry) RecordUpstream(provider, operation, outcome string, duration time.Duration) {
	r.upstreamRequests.WithLabelValues(provider, operation, outcome).Inc()
	r.upstreamDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordToolCall records one MCP tool invocation.
func (r *Registry) RecordToolCall(tool, outcome string) {
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordCache records a response cache lookup, result is hit or miss.
func (r *Registry) RecordCache(operation, result string) {
	r.cacheLookups.WithLabelValues(operation, result).Inc()
}

// RecordAnalysis records a workflow run.
func (r *Registry) RecordAnalysis(status string, duration time.Duration) {
	r.analysisRuns.WithLabelValues(status).Inc()
	r.analysisDuration.Observe(duration.Seconds())
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
