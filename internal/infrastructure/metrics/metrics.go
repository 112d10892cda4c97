package metrics

import (
	"net/http"

	"shopify-ledger-sync/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricSyncOperationsTotal  = "ledger_sync_operations_total"
	MetricTokenRefreshTotal    = "ledger_token_refresh_total"
	MetricSweepDurationSeconds = "ledger_autosync_sweep_duration_seconds"
	MetricSweepConnections     = "ledger_autosync_sweep_connections"
	MetricHTTPRequestsTotal    = "ledger_http_requests_total"
	MetricHTTPRequestDuration  = "ledger_http_request_duration_seconds"
)

// Label names
const (
	LabelEntity  = "entity"
	LabelOutcome = "outcome"
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelStatus  = "status"
)

// Recorder owns the service collectors on a private registry
type Recorder struct {
	registry *prometheus.Registry

	syncOperations *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	sweepSize      prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var _ ports.SyncMetrics = (*Recorder)(nil)

// NewRecorder creates and registers every collector. Go runtime and process collectors are included.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		syncOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSyncOperationsTotal,
				Help: "Order and product sync attempts by outcome",
			},
			[]string{LabelEntity, LabelOutcome},
		),
		tokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTokenRefreshTotal,
				Help: "Ledger access token refreshes by outcome",
			},
			[]string{LabelOutcome},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricSweepDurationSeconds,
				Help:    "Duration of auto-sync sweeps",
				Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
			},
		),
		sweepSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricSweepConnections,
				Help: "Connections processed by the last auto-sync sweep",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "HTTP requests served",
			},
			[]string{LabelMethod, LabelRoute, LabelStatus},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{LabelMethod, LabelRoute},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.syncOperations,
		r.tokenRefreshes,
		r.sweepDuration,
		r.sweepSize,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// ObserveSync counts one order or product sync attempt
func (r *Recorder) ObserveSync(entity, outcome string) {
	r.syncOperations.WithLabelValues(entity, outcome).Inc()
}

// ObserveTokenRefresh counts one token refresh attempt
func (r *Recorder) ObserveTokenRefresh(outcome string) {
	r.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// ObserveSweep records a finished sweep
func (r *Recorder) ObserveSweep(connections int, seconds float64) {
	r.sweepDuration.Observe(seconds)
	r.sweepSize.Set(float64(connections))
}

// Registry exposes the registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
