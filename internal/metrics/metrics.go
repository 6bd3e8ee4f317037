// Package metrics exposes the Prometheus counters and histograms the
// pipeline, plugin runtime, and HTTP layer record against, and the
// /metrics scrape handler that serves them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eddist_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eddist_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eddist_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eddist_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eddist_db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eddist_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	streamSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eddist_stream_subscriptions",
			Help: "Number of live per-thread stream subscribers",
		},
	)

	// pipelineStageDuration records each write-path step's latency, keyed
	// by step name and outcome ("ok"/"rejected"/"error").
	pipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eddist_pipeline_stage_duration_seconds",
			Help:    "Post pipeline stage latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"stage", "outcome"},
	)

	pipelineWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eddist_pipeline_writes_total",
			Help: "Total number of post pipeline writes by outcome",
		},
		[]string{"kind", "outcome"},
	)

	pluginHookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eddist_plugin_hook_duration_seconds",
			Help:    "Plugin hook invocation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"hook", "plugin"},
	)

	pluginHookTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eddist_plugin_hook_timeouts_total",
			Help: "Total number of plugin hook invocations that timed out",
		},
		[]string{"hook", "plugin"},
	)

	rateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eddist_rate_limit_rejections_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// Handler returns the Prometheus scrape handler for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

func UpdateDBStats(open, inUse, idle int) {
	dbConnectionsOpen.Set(float64(open))
	dbConnectionsInUse.Set(float64(inUse))
	dbConnectionsIdle.Set(float64(idle))
}

func UpdateStreamSubscriptions(count int) {
	streamSubscriptions.Set(float64(count))
}

// RecordPipelineStage records a single pipeline step's latency and outcome.
func RecordPipelineStage(stage, outcome string, duration time.Duration) {
	pipelineStageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// RecordPipelineWrite records a completed write attempt's kind ("thread"
// or "response") and outcome.
func RecordPipelineWrite(kind, outcome string) {
	pipelineWritesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPluginHook records a plugin hook invocation's latency, and flags a
// timeout separately so dashboards can distinguish slow-but-ok from
// sandbox-killed.
func RecordPluginHook(hook, plugin string, duration time.Duration, timedOut bool) {
	pluginHookDuration.WithLabelValues(hook, plugin).Observe(duration.Seconds())
	if timedOut {
		pluginHookTimeouts.WithLabelValues(hook, plugin).Inc()
	}
}

// RecordRateLimitRejection records a rejection by the named limiter (e.g.
// "write-span", "activation", "per-ip").
func RecordRateLimitRejection(limiter string) {
	rateLimitRejections.WithLabelValues(limiter).Inc()
}

// NormalizePath collapses a ServeMux path pattern's {param} segments to
// ":" so high-cardinality path values don't blow up the requests-by-path
// label set.
func NormalizePath(path string) string {
	if len(path) > 100 {
		path = path[:100]
	}

	normalized := ""
	inParam := false
	for i := 0; i < len(path); i++ {
		if path[i] == '{' {
			inParam = true
			normalized += ":"
			continue
		}
		if path[i] == '}' {
			inParam = false
			continue
		}
		if !inParam {
			normalized += string(path[i])
		}
	}
	return normalized
}
