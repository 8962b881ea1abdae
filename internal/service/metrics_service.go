package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the solver pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	solveDuration *prometheus.HistogramVec
	solveAttempts *prometheus.CounterVec
	solveFallback prometheus.Counter
	unfilledGauge prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Duration of allocation solves",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"policy", "outcome"})

	solveAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solve_attempts_total",
		Help: "Solve attempts by policy and outcome",
	}, []string{"policy", "outcome"})

	solveFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solve_fallbacks_total",
		Help: "Solves that retried under the relaxed fallback policy",
	})

	unfilledGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rotation_unfilled_sessions",
		Help: "Unfilled sessions in the latest rotation",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveAttempts, solveFallback, unfilledGauge, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveAttempts:   solveAttempts,
		solveFallback:   solveFallback,
		unfilledGauge:   unfilledGauge,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveSolve records one solve attempt with its policy and outcome.
func (m *MetricsService) ObserveSolve(policy, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(policy, outcome).Observe(duration.Seconds())
	m.solveAttempts.WithLabelValues(policy, outcome).Inc()
}

// RecordFallback counts a retry under the relaxed policy.
func (m *MetricsService) RecordFallback() {
	if m == nil {
		return
	}
	m.solveFallback.Inc()
}

// SetUnfilled publishes the latest rotation's unfilled session count.
func (m *MetricsService) SetUnfilled(count int) {
	if m == nil {
		return
	}
	m.unfilledGauge.Set(float64(count))
}
