// Package metrics provides Prometheus metrics for the CFS contest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// Contest lifecycle
	contestOperations    *prometheus.CounterVec
	contestTransitions   *prometheus.CounterVec
	validationRejections *prometheus.CounterVec

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec
	fallbackReads     *prometheus.CounterVec
	storeUnavailable  prometheus.Gauge
	writesRejected    *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec

	// Scheduler
	sweeperRuns   *prometheus.CounterVec
	sweeperLocked prometheus.Counter

	// System
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPauseTime prometheus.Histogram
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
		namespace:        "cfs",
		subsystem:        "contests",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of error responses by endpoint and error kind", "endpoint", "method", "error_type")
	m.rateLimited = m.counterVec("rate_limited_total",
		"Requests rejected by the write rate limiter", "endpoint")

	m.contestOperations = m.counterVec("operations_total",
		"Contest lifecycle operations by kind and outcome", "operation", "outcome")
	m.contestTransitions = m.counterVec("transitions_total",
		"Successful contest status transitions", "from", "to")
	m.validationRejections = m.counterVec("validation_rejections_total",
		"Payloads rejected by the validation layer", "operation")

	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds",
		"Repository operation latency in milliseconds", "operation", "source")
	m.repositoryErrors = m.counterVec("repository_errors_total",
		"Repository errors by operation and classification", "operation", "kind")
	m.fallbackReads = m.counterVec("fallback_reads_total",
		"Reads answered by the fallback data provider", "operation")
	m.storeUnavailable = m.gauge("store_unavailable",
		"1 once the primary store has been marked unavailable for this process")
	m.writesRejected = m.counterVec("writes_rejected_total",
		"Writes refused because the primary store is unavailable", "operation")
	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Sport catalog cache lookups by result", "result")

	m.sweeperRuns = m.counterVec("lock_sweeper_runs_total",
		"Lock sweeper executions by outcome", "outcome")
	m.sweeperLocked = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "lock_sweeper_locked_total",
		Help:        "Contests moved to LOCKED by the sweeper",
		ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutines = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordContestOperation counts a lifecycle operation with its outcome ("ok" or an error kind).
func RecordContestOperation(operation, outcome string) {
	globalManager.contestOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordContestTransition counts a successful status transition.
func RecordContestTransition(from, to string) {
	globalManager.contestTransitions.WithLabelValues(from, to).Inc()
}

// RecordValidationRejection counts a rejected payload.
func RecordValidationRejection(operation string) {
	globalManager.validationRejections.WithLabelValues(operation).Inc()
}

// RecordRepositoryLatency records repository latency; source is "primary" or "fallback".
func RecordRepositoryLatency(operation, source string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation, source).Observe(latencyMs)
}

// RecordRepositoryError counts a classified repository error.
func RecordRepositoryError(operation, kind string) {
	globalManager.repositoryErrors.WithLabelValues(operation, kind).Inc()
}

// RecordFallbackRead counts a read served by the fallback provider.
func RecordFallbackRead(operation string) {
	globalManager.fallbackReads.WithLabelValues(operation).Inc()
}

// SetStoreUnavailable flips the store availability gauge.
func SetStoreUnavailable(unavailable bool) {
	if unavailable {
		globalManager.storeUnavailable.Set(1)
		return
	}
	globalManager.storeUnavailable.Set(0)
}

// RecordWriteRejected counts a write refused with ServiceUnavailable.
func RecordWriteRejected(operation string) {
	globalManager.writesRejected.WithLabelValues(operation).Inc()
}

// RecordCacheLookup counts a cache lookup; result is "hit", "miss" or "error".
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordSweeperRun counts a lock sweeper execution.
func RecordSweeperRun(outcome string) {
	globalManager.sweeperRuns.WithLabelValues(outcome).Inc()
}

// RecordSweeperLocked adds n contests locked by the sweeper.
func RecordSweeperLocked(n int) {
	globalManager.sweeperLocked.Add(float64(n))
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
