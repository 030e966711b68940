package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the plan API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	plansGenerated  *prometheus.CounterVec
	conflictsFound  prometheus.Counter
	aiRetries       prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the core collectors on an isolated registry.
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

	plansGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_generated_total",
		Help: "Total study plans generated, by source",
	}, []string{"source"})

	conflictsFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_conflicts_detected_total",
		Help: "Total schedule conflicts surfaced to users",
	})

	aiRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_generation_retries_total",
		Help: "Total retried AI generation attempts",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, plansGenerated, conflictsFound, aiRetries, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		plansGenerated:  plansGenerated,
		conflictsFound:  conflictsFound,
		aiRetries:       aiRetries,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records per-request latency and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// IncPlanGenerated counts a produced plan by source ("ai" or "fallback").
func (m *MetricsService) IncPlanGenerated(source string) {
	if m == nil {
		return
	}
	m.plansGenerated.WithLabelValues(source).Inc()
}

// AddConflictsDetected counts conflicts surfaced in one detection pass.
func (m *MetricsService) AddConflictsDetected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflictsFound.Add(float64(n))
}

// IncAIRetry counts a retried AI generation attempt.
func (m *MetricsService) IncAIRetry() {
	if m == nil {
		return
	}
	m.aiRetries.Inc()
}

// IncCacheHit counts a cache hit.
func (m *MetricsService) IncCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a cache miss.
func (m *MetricsService) IncCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
