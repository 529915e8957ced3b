// Package metrics provides Prometheus metrics for the roster lifecycle service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval    = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Manager manages all Prometheus metrics for the roster service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Roster ingestion
	rostersLoaded      prometheus.Counter
	rosterLoadFailures *prometheus.CounterVec
	rowsRejected       prometheus.Counter
	datesCoerced       prometheus.Counter
	rosterSize         prometheus.Gauge

	// Lifecycle state
	engagements        *prometheus.GaugeVec
	renewals           *prometheus.CounterVec
	engagementsRenewed prometheus.Counter
	exports            prometheus.Counter
	operationLatency   *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "roster",
		subsystem:        "lifecycle",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.rostersLoaded = auto.NewCounter(m.counterOpts(
		"rosters_loaded_total", "Total number of rosters successfully loaded"))
	m.rosterLoadFailures = auto.NewCounterVec(m.counterOpts(
		"roster_load_failures_total", "Total number of roster loads that failed, by reason"),
		[]string{"reason"})
	m.rowsRejected = auto.NewCounter(m.counterOpts(
		"rows_rejected_total", "Rows dropped at load because a date cell did not parse"))
	m.datesCoerced = auto.NewCounter(m.counterOpts(
		"dates_coerced_total", "Date cells that did not parse and were kept as unknown"))
	m.rosterSize = auto.NewGauge(m.gaugeOpts(
		"roster_engagements", "Number of engagements in the current roster"))

	m.engagements = auto.NewGaugeVec(m.gaugeOpts(
		"engagements", "Engagements in the current roster by lifecycle bucket"),
		[]string{"bucket"})
	m.renewals = auto.NewCounterVec(m.counterOpts(
		"renewals_total", "Renewal operations applied, by mode"),
		[]string{"mode"})
	m.engagementsRenewed = auto.NewCounter(m.counterOpts(
		"engagements_renewed_total", "Engagements whose end date was extended"))
	m.exports = auto.NewCounter(m.counterOpts(
		"exports_total", "Rosters exported as CSV"))
	m.operationLatency = auto.NewHistogramVec(m.histogramOpts(
		"operation_latency_milliseconds", "Latency of roster operations in milliseconds", m.histogramBuckets),
		[]string{"operation"})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Errors by component and error type"),
		[]string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Errors by HTTP endpoint, method, and error type"),
		[]string{"endpoint", "method", "error_type"})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordRosterLoaded records a successful load with its row accounting.
func (m *Manager) RecordRosterLoaded(rows, rejected, coerced int) {
	m.rostersLoaded.Inc()
	m.rowsRejected.Add(float64(rejected))
	m.datesCoerced.Add(float64(coerced))
	m.rosterSize.Set(float64(rows))
}

// RecordRosterLoadFailure records a failed load; reason is schema, date or read.
func (m *Manager) RecordRosterLoadFailure(reason string) {
	m.rosterLoadFailures.WithLabelValues(reason).Inc()
}

// UpdateEngagements sets the gauge for one lifecycle bucket.
func (m *Manager) UpdateEngagements(bucket string, count int) {
	m.engagements.WithLabelValues(bucket).Set(float64(count))
}

// RecordRenewal records one renewal operation and how many engagements it extended.
func (m *Manager) RecordRenewal(mode string, renewed int) {
	m.renewals.WithLabelValues(mode).Inc()
	m.engagementsRenewed.Add(float64(renewed))
}

// RecordExport increments the export counter.
func (m *Manager) RecordExport() {
	m.exports.Inc()
}

// RecordOperationLatency records the latency of a named roster operation.
func (m *Manager) RecordOperationLatency(operation string, latencyMs float64) {
	m.operationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordRosterLoaded records a successful load on the global manager.
func RecordRosterLoaded(rows, rejected, coerced int) {
	globalManager.RecordRosterLoaded(rows, rejected, coerced)
}

// RecordRosterLoadFailure records a failed load on the global manager.
func RecordRosterLoadFailure(reason string) {
	globalManager.RecordRosterLoadFailure(reason)
}

// UpdateEngagements sets a bucket gauge on the global manager.
func UpdateEngagements(bucket string, count int) {
	globalManager.UpdateEngagements(bucket, count)
}

// RecordRenewal records a renewal on the global manager.
func RecordRenewal(mode string, renewed int) {
	globalManager.RecordRenewal(mode, renewed)
}

// RecordExport increments the global export counter.
func RecordExport() {
	globalManager.RecordExport()
}

// RecordOperationLatency records an operation latency on the global manager.
func RecordOperationLatency(operation string, latencyMs float64) {
	globalManager.RecordOperationLatency(operation, latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SampleRuntime reads runtime statistics into the system gauges.
func SampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.Alloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		avgPauseMs := float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
		RecordSystemGCPauseTime(avgPauseMs)
	}
}

// RunRuntimeSampler samples runtime statistics every refresh interval until ctx is done.
func RunRuntimeSampler(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SampleRuntime()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
