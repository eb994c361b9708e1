// Package metrics exports pipeline, cache and HTTP events as Prometheus
// metrics.
//
// Runs are short-lived batch jobs, so metrics are not served. After each
// command the registry is written in text exposition format to a file
// that a node exporter textfile collector can pick up.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/skillpkgs/pkg/observability"
)

// Hooks implements the observability hook interfaces on a private
// registry.
type Hooks struct {
	reg *prometheus.Registry

	resolves         *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec
	snapshots        *prometheus.CounterVec
	snapshotDuration prometheus.Histogram
	locates          *prometheus.CounterVec
	outcomes         *prometheus.CounterVec
	pipelineFailures prometheus.Counter
	cacheEvents      *prometheus.CounterVec
	cacheBytes       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	lastRun          prometheus.Gauge
}

// New creates the metrics and registers them on a new registry.
func New() *Hooks {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Hooks{
		reg: reg,
		resolves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_resolve_total",
			Help: "Revision resolution attempts by strategy and result",
		}, []string{"strategy", "result"}),
		resolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillpkgs_resolve_duration_seconds",
			Help:    "Revision resolution duration in seconds",
			Buckets: []float64{0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"strategy"}),
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_snapshot_total",
			Help: "Snapshot fetches by result (fetched, cached, failed)",
		}, []string{"result"}),
		snapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillpkgs_snapshot_duration_seconds",
			Help:    "Snapshot fetch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		locates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_locate_total",
			Help: "Manifest lookups by matching phase",
		}, []string{"phase"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_package_outcome_total",
			Help: "Per-package sync outcomes",
		}, []string{"kind"}),
		pipelineFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "skillpkgs_pipeline_failed_total",
			Help: "Repository pipelines aborted by a transport error",
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_cache_events_total",
			Help: "Cache hits, misses and writes by key type",
		}, []string{"type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_http_requests_total",
			Help: "HTTP responses by host and status code",
		}, []string{"host", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillpkgs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpkgs_http_errors_total",
			Help: "HTTP requests that failed without a response",
		}, []string{"host"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "skillpkgs_last_run_timestamp",
			Help: "Unix timestamp of when the last command finished",
		}),
	}
}

// Register installs h as the process-wide sync, cache and HTTP hooks.
func (h *Hooks) Register() {
	observability.SetSyncHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// Registry returns the underlying registry.
func (h *Hooks) Registry() *prometheus.Registry { return h.reg }

// WriteTextfile stamps the run time and writes all metrics to path.
func (h *Hooks) WriteTextfile(path string) error {
	h.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, h.reg)
}

func (h *Hooks) OnResolve(_ context.Context, _, strategy string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.resolves.WithLabelValues(strategy, result).Inc()
	h.resolveDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (h *Hooks) OnSnapshot(_ context.Context, _ string, cached bool, d time.Duration, err error) {
	switch {
	case err != nil:
		h.snapshots.WithLabelValues("failed").Inc()
	case cached:
		h.snapshots.WithLabelValues("cached").Inc()
	default:
		h.snapshots.WithLabelValues("fetched").Inc()
	}
	h.snapshotDuration.Observe(d.Seconds())
}

func (h *Hooks) OnLocate(_ context.Context, _, _, phase string) {
	if phase == "" {
		phase = "none"
	}
	h.locates.WithLabelValues(phase).Inc()
}

func (h *Hooks) OnOutcome(_ context.Context, kind string) {
	h.outcomes.WithLabelValues(kind).Inc()
}

func (h *Hooks) OnPipelineFailure(context.Context, string, error) {
	h.pipelineFailures.Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(host, statusLabel(code)).Inc()
	h.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(host).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	_ observability.SyncHooks  = (*Hooks)(nil)
	_ observability.CacheHooks = (*Hooks)(nil)
	_ observability.HTTPHooks  = (*Hooks)(nil)
)
