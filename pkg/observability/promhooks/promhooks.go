// Package promhooks records observability events as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := promhooks.New(reg)
//	observability.SetLayoutHooks(m)
//	observability.SetCacheHooks(m)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package promhooks

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/orgchart/pkg/observability"
)

const namespace = "orgchart"

// Metrics implements the layout, viewport, cache and HTTP hooks of package
// observability. Pipeline events go through [Metrics.Pipeline].
type Metrics struct {
	// Layout
	Layouts      prometheus.Counter
	Nodes        prometheus.Gauge
	Links        prometheus.Gauge
	Ticks        prometheus.Counter
	Alpha        prometheus.Gauge
	Issues       *prometheus.CounterVec
	PackDuration prometheus.Histogram
	SettleTicks  prometheus.Histogram
	SettleTime   prometheus.Histogram

	// Viewport
	Focus      *prometheus.CounterVec
	Highlights prometheus.Counter

	// Pipeline
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec

	// Cache
	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	// Outgoing HTTP
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec

	// Served HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSClients       prometheus.Gauge
	FramesSent      prometheus.Counter
}

var (
	_ observability.LayoutHooks   = (*Metrics)(nil)
	_ observability.ViewportHooks = (*Metrics)(nil)
	_ observability.PipelineHooks = pipelineHooks{}
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// New registers the metrics with reg. Registering twice with the same
// registry panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Layouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "layouts_total",
			Help: "Number of data loads",
		}),
		Nodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "layout_nodes",
			Help: "Top-level nodes in the current layout",
		}),
		Links: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "layout_links",
			Help: "Resolved links in the current layout",
		}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Outer simulation ticks",
		}),
		Alpha: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "alpha",
			Help: "Current simulation alpha",
		}),
		Issues: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "issues_total",
			Help: "Recoverable data problems by code",
		}, []string{"code"}),
		PackDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "team_pack_seconds",
			Help:    "Time to pack one team",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		SettleTicks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "settle_ticks",
			Help:    "Ticks until quiescence",
			Buckets: prometheus.LinearBuckets(50, 50, 8),
		}),
		SettleTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "settle_seconds",
			Help:    "Wall time until quiescence",
			Buckets: prometheus.DefBuckets,
		}),
		Focus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "focus_total",
			Help: "Focus requests",
		}, []string{"action"}),
		Highlights: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "highlights_total",
			Help: "Highlight changes",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_stage_seconds",
			Help:    "Pipeline stage duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_errors_total",
			Help: "Failed pipeline stages",
		}, []string{"stage"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}, []string{"type"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "fetch_seconds",
			Help:    "Outgoing HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"host", "status"}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_errors_total",
			Help: "Outgoing HTTP failures",
		}, []string{"host"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Served HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_seconds",
			Help:    "Served HTTP latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_clients",
			Help: "Connected websocket clients",
		}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_frames_total",
			Help: "Frames broadcast to websocket clients",
		}),
	}
}

// Register installs m as the global hooks of every category.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetViewportHooks(m)
	observability.SetPipelineHooks(m.Pipeline())
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Layout

func (m *Metrics) OnLayoutStart(_ context.Context, nodes, links int) {
	m.Layouts.Inc()
	m.Nodes.Set(float64(nodes))
	m.Links.Set(float64(links))
}

func (m *Metrics) OnPack(_ context.Context, _ string, _ int, _ float64, d time.Duration) {
	m.PackDuration.Observe(d.Seconds())
}

func (m *Metrics) OnIssue(_ context.Context, code, _, _ string) {
	m.Issues.WithLabelValues(code).Inc()
}

func (m *Metrics) OnTick(_ context.Context, _ int, alpha float64) {
	m.Ticks.Inc()
	m.Alpha.Set(alpha)
}

func (m *Metrics) OnQuiescent(_ context.Context, ticks int, d time.Duration) {
	m.SettleTicks.Observe(float64(ticks))
	m.SettleTime.Observe(d.Seconds())
}

func (m *Metrics) OnDispose(context.Context) {
	m.Alpha.Set(0)
}

// Viewport

func (m *Metrics) OnFocus(_ context.Context, id string) {
	if id == "" {
		m.Focus.WithLabelValues("clear").Inc()
		return
	}
	m.Focus.WithLabelValues("set").Inc()
}

func (m *Metrics) OnHighlight(context.Context, string, int) {
	m.Highlights.Inc()
}

// Pipeline returns hooks recording pipeline stage durations.
func (m *Metrics) Pipeline() observability.PipelineHooks { return pipelineHooks{m} }

type pipelineHooks struct{ m *Metrics }

func (pipelineHooks) OnParseStart(context.Context, string) {}

func (h pipelineHooks) OnParseComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.m.stage("parse", d, err)
}

func (pipelineHooks) OnLayoutStart(context.Context, int) {}

func (h pipelineHooks) OnLayoutComplete(_ context.Context, _ int, d time.Duration, err error) {
	h.m.stage("layout", d, err)
}

func (pipelineHooks) OnRenderStart(context.Context, []string) {}

func (h pipelineHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.m.stage("render", d, err)
}

func (m *Metrics) stage(name string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(name).Inc()
	}
}

// Cache

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// HTTP

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.FetchDuration.WithLabelValues(host, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.FetchErrors.WithLabelValues(host).Inc()
}
