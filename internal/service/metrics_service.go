package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// assignment engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	assignTotal     *prometheus.CounterVec
	conflictTotal   *prometheus.CounterVec
	dayResolutions  *prometheus.CounterVec
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total catalog cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	})

	assignTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_created_total",
		Help: "Assignments created, by type",
	}, []string{"type"})

	conflictTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_conflicts_total",
		Help: "Assignment requests rejected by the conflict rules, by type",
	}, []string{"type"})

	dayResolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "day_resolutions_total",
		Help: "Daily availability resolutions, by resulting kind",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, assignTotal, conflictTotal, dayResolutions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		assignTotal:     assignTotal,
		conflictTotal:   conflictTotal,
		dayResolutions:  dayResolutions,
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

// RecordCacheOperation records a catalog cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordAssignment counts a successfully created assignment.
func (m *MetricsService) RecordAssignment(kind models.AssignmentKind) {
	if m == nil {
		return
	}
	m.assignTotal.WithLabelValues(string(kind)).Inc()
}

// RecordConflict counts an assignment request rejected by the conflict rules.
func (m *MetricsService) RecordConflict(kind models.AssignmentKind) {
	if m == nil {
		return
	}
	m.conflictTotal.WithLabelValues(string(kind)).Inc()
}

// RecordDayResolution counts a daily resolution by its outcome.
func (m *MetricsService) RecordDayResolution(kind models.AssignmentKind) {
	if m == nil {
		return
	}
	m.dayResolutions.WithLabelValues(string(kind)).Inc()
}
