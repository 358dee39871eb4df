package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stochfold/pkg/observability"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

const namespace = "stochfold"

// Metrics records observability events as Prometheus metrics. It
// implements the fold, sampling, cache and HTTP hook interfaces.
type Metrics struct {
	gatherer prometheus.Gatherer

	// foldDuration measures partition function fills.
	// Labels: kind (single, comparative), status (ok, error)
	foldDuration *prometheus.HistogramVec

	// foldLength tracks the length of folded inputs.
	foldLength prometheus.Histogram

	// draws counts sampling draws.
	// Labels: kind, mode (one_shot, non_redundant), status (ok, failed)
	draws *prometheus.CounterVec

	// drawDuration measures single draws.
	// Labels: mode
	drawDuration *prometheus.HistogramVec

	// exhausted counts sessions that ran out of structures.
	exhausted *prometheus.CounterVec

	// trackerNodes tracks the tracker size after each non-redundant draw.
	trackerNodes prometheus.Histogram

	// cacheEvents counts cache lookups and stores.
	// Labels: kind (ensemble), event (hit, miss, set)
	cacheEvents *prometheus.CounterVec

	// requests counts HTTP requests.
	// Labels: method, route, status
	requests *prometheus.CounterVec

	// requestDuration measures HTTP request latency.
	// Labels: method, route
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the metrics with reg. A nil reg uses a fresh
// registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		foldDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fold",
			Name:      "duration_seconds",
			Help:      "Partition function fill time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind", "status"}),
		foldLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fold",
			Name:      "length",
			Help:      "Number of positions of folded inputs",
			Buckets:   []float64{10, 25, 50, 100, 200, 400, 800, 1600},
		}),
		draws: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "draws_total",
			Help:      "Total sampling draws",
		}, []string{"kind", "mode", "status"}),
		drawDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "draw_duration_seconds",
			Help:      "Time to draw one structure in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"mode"}),
		exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "exhausted_total",
			Help:      "Non-redundant sessions that drew every structure",
		}, []string{"kind"}),
		trackerNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "tracker_nodes",
			Help:      "Redundancy tracker size after each draw",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 9),
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache hits, misses and stores",
		}, []string{"kind", "event"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install makes m the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetFoldHooks(m)
	observability.SetSamplingHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) OnFoldStart(context.Context, string, int) {}

func (m *Metrics) OnFoldComplete(_ context.Context, kind string, length int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.foldDuration.WithLabelValues(kind, status).Observe(d.Seconds())
	m.foldLength.Observe(float64(length))
}

func (m *Metrics) OnDraw(_ context.Context, kind string, nonRedundant, ok bool, d time.Duration) {
	mode := "one_shot"
	if nonRedundant {
		mode = "non_redundant"
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.draws.WithLabelValues(kind, mode, status).Inc()
	m.drawDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) OnExhausted(_ context.Context, kind string, _ int) {
	m.exhausted.WithLabelValues(kind).Inc()
}

func (m *Metrics) OnTrackerSize(_ context.Context, nodes int) {
	m.trackerNodes.Observe(float64(nodes))
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, _ int) {
	m.cacheEvents.WithLabelValues(kind, "set").Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
