package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fooddiary"

// Metrics is a prometheus.Collector with every metric the service exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	rateLimited    prometheus.Counter
	exports        *prometheus.CounterVec
	exportBytes    *prometheus.HistogramVec
	exportDuration *prometheus.HistogramVec
	exportJobs     *prometheus.CounterVec
}

// New returns Metrics registered on a private registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "The number of HTTP requests served.",
			}, []string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "The time taken to serve an HTTP request.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "The number of requests rejected by the rate limiter.",
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "The number of generated exports.",
			}, []string{"format", "result"},
		),
		exportBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_size_bytes",
				Help:      "The size of generated export files.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			}, []string{"format"},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "The time taken to generate an export.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			}, []string{"format"},
		),
		exportJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_jobs_total",
				Help:      "The number of export jobs by final outcome.",
			}, []string{"outcome"},
		),
	}
	m.registry.MustRegister(
		m,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequests.Describe(ch)
	m.httpDuration.Describe(ch)
	m.rateLimited.Describe(ch)
	m.exports.Describe(ch)
	m.exportBytes.Describe(ch)
	m.exportDuration.Describe(ch)
	m.exportJobs.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequests.Collect(ch)
	m.httpDuration.Collect(ch)
	m.rateLimited.Collect(ch)
	m.exports.Collect(ch)
	m.exportBytes.Collect(ch)
	m.exportDuration.Collect(ch)
	m.exportJobs.Collect(ch)
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// ObserveExport records one export attempt. Size and duration are only
// recorded for successful exports.
func (m *Metrics) ObserveExport(format string, size int, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.exports.WithLabelValues(format, "error").Inc()
		return
	}
	m.exports.WithLabelValues(format, "ok").Inc()
	m.exportBytes.WithLabelValues(format).Observe(float64(size))
	m.exportDuration.WithLabelValues(format).Observe(d.Seconds())
}

// ExportJobFinished counts a job reaching outcome ("done", "retry" or "failed").
func (m *Metrics) ExportJobFinished(outcome string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(outcome).Inc()
}
