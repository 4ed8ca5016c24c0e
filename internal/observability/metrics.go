// Package observability holds the Prometheus metrics of the dashboard server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dashboard"

// Metrics holds the Prometheus collectors of the dashboard server.
type Metrics struct {
	PageRenders    *prometheus.CounterVec   // labels: dashboard, layout
	ThemeToggles   *prometheus.CounterVec   // labels: theme (the theme switched to)
	FilterChanges  *prometheus.CounterVec   // labels: dashboard
	ChartRender    *prometheus.HistogramVec // labels: chart
	RequestLatency *prometheus.HistogramVec // labels: method, route, status
	ReportReloads  *prometheus.CounterVec   // labels: result

	// Registry is where the collectors live; /metrics serves it.
	Registry *prometheus.Registry
}

func newMetrics() *Metrics {
	return &Metrics{
		PageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Dashboard pages rendered, by dashboard and layout.",
		}, []string{"dashboard", "layout"}),
		ThemeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_toggles_total",
			Help:      "Theme toggles, by the theme switched to.",
		}, []string{"theme"}),
		FilterChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_changes_total",
			Help:      "Year or month filter selections, by dashboard.",
		}, []string{"dashboard"}),
		ChartRender: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_seconds",
			Help:      "Time to draw and encode one chart image.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"chart"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ReportReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_reloads_total",
			Help:      "Scheduled model report reloads, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.PageRenders, m.ThemeToggles, m.FilterChanges, m.ChartRender, m.RequestLatency, m.ReportReloads}
}

// NewMetrics creates the collectors and registers them with the default
// Prometheus registry, next to the Go and process collectors.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	if reg, ok := prometheus.DefaultRegisterer.(*prometheus.Registry); ok {
		m.Registry = reg
	}
	return m
}

// NewMetricsForTesting registers the collectors on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.Registry = prometheus.NewRegistry()
	m.Registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry /metrics should expose.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.Registry != nil {
		return m.Registry
	}
	return prometheus.DefaultGatherer
}
