// Package metrics exposes Prometheus counters and histograms for fits and HTTP requests on a
// registry owned by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "regress"

// Sources of a fit.
const (
	SourceJSON    = "json"
	SourceChart   = "chart"
	SourceExcel   = "excel"
	SourceReuse   = "excel_reuse"
	SourceLibrary = "library"
)

// Metrics groups the service collectors
type Metrics struct {
	registry *prometheus.Registry

	fits          *prometheus.CounterVec
	fitDuration   *prometheus.HistogramVec
	invalidInputs *prometheus.CounterVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the collectors, including the Go runtime and process collectors, on a fresh
// registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Completed regression fits by source and inversion strategy.",
		}, []string{"source", "solver"}),
		fitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent building the design matrix and fitting.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		}, []string{"source"}),
		invalidInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_inputs_total",
			Help:      "Fit requests rejected before any linear algebra ran.",
		}, []string{"source"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fits,
		m.fitDuration,
		m.invalidInputs,
		m.requests,
		m.latency,
	)
	return m
}

// ObserveFit records a completed fit.
func (m *Metrics) ObserveFit(source, solver string, elapsed time.Duration) {
	m.fits.WithLabelValues(source, solver).Inc()
	m.fitDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveInvalidInput records a fit request rejected by validation.
func (m *Metrics) ObserveInvalidInput(source string) {
	m.invalidInputs.WithLabelValues(source).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by their chi route pattern so path parameters do not explode
// label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
