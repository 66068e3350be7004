// Package metrics exposes Prometheus collectors for the portal.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	totals         *prometheus.GaugeVec
	reconcileFixed prometheus.Counter
	reconcileRuns  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "portal",
			Name:      "work_totals",
			Help:      "Global work totals from the most recent full rescan.",
		}, []string{"kind"}),
		reconcileFixed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "reconcile_repaired_works_total",
			Help:      "Works whose stored counts were repaired by the reconciler.",
		}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "reconcile_runs_total",
			Help:      "Reconciler runs by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.totals,
		m.reconcileFixed,
		m.reconcileRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request counts and latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
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
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveTotals publishes the latest global totals.
func (m *Metrics) ObserveTotals(t work.Totals) {
	if m == nil {
		return
	}
	m.totals.WithLabelValues("works").Set(float64(t.TotalWorks))
	m.totals.WithLabelValues("completed").Set(float64(t.Completed))
	m.totals.WithLabelValues("doing").Set(float64(t.Doing))
	m.totals.WithLabelValues("not_yet_started").Set(float64(t.NotYetStarted))
}

// ObserveReconcile records one reconciler run.
func (m *Metrics) ObserveReconcile(fixed int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reconcileRuns.WithLabelValues("error").Inc()
	} else {
		m.reconcileRuns.WithLabelValues("ok").Inc()
	}
	m.reconcileFixed.Add(float64(fixed))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
