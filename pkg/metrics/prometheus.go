// Package metrics provides Prometheus metrics for the SkillSwap recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the recommendation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Engine
	recommendationsServed *prometheus.CounterVec
	recommendationsEmpty  prometheus.Counter
	candidatesScored      prometheus.Counter
	trendingServed        prometheus.Counter
	engineLatency         *prometheus.HistogramVec

	// Fact provider
	providerErrors  *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	breakerChanges  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Process and store
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	storeRecords      *prometheus.GaugeVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillswap",
		subsystem:        "recommendations",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.recommendationsServed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "served_total",
		Help:      "Recommendations returned to callers, by match type",
	}, []string{"match_type"})

	m.recommendationsEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "empty_total",
		Help:      "Recommendation calls that produced no candidates",
	})

	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Candidate declarations scored by the engine",
	})

	m.trendingServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trending_served_total",
		Help:      "Trending skill lists returned to callers",
	})

	m.engineLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "engine_latency_milliseconds",
		Help:      "Engine operation latency in milliseconds, provider calls included",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.providerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_errors_total",
		Help:      "Fact provider failures by operation",
	}, []string{"operation"})

	m.providerLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_latency_milliseconds",
		Help:      "Fact provider query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_state",
		Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"breaker"})

	m.breakerChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_transitions_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"breaker", "from", "to"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors returned by endpoint and error code",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})

	m.storeRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "records",
		Help:      "Records held by the in-memory fact store, by kind",
	}, []string{"kind"})
}

// RecordRecommendationServed increments the served counter for one match.
func RecordRecommendationServed(matchType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendationsServed.WithLabelValues(matchType).Inc()
}

// RecordRecommendationEmpty counts a call that returned nothing.
func RecordRecommendationEmpty() {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendationsEmpty.Inc()
}

// RecordCandidatesScored adds n scored declarations.
func RecordCandidatesScored(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.candidatesScored.Add(float64(n))
}

// RecordTrendingServed counts a trending response.
func RecordTrendingServed() {
	if !globalManager.enabled {
		return
	}
	globalManager.trendingServed.Inc()
}

// RecordEngineLatency records engine latency in milliseconds.
func RecordEngineLatency(operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.engineLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordProviderError counts a failed provider call.
func RecordProviderError(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.providerErrors.WithLabelValues(operation).Inc()
}

// RecordProviderLatency records provider query latency in milliseconds.
func RecordProviderLatency(operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.providerLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateBreakerState sets the current state code of a named breaker.
func UpdateBreakerState(breaker string, state int) {
	if !globalManager.enabled {
		return
	}
	globalManager.breakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordBreakerTransition counts a breaker state change.
func RecordBreakerTransition(breaker, from, to string) {
	if !globalManager.enabled {
		return
	}
	globalManager.breakerChanges.WithLabelValues(breaker, from, to).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutines.Set(float64(n))
}

// UpdateStoreRecords sets the record count of one kind in the memory store.
func UpdateStoreRecords(kind string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
