// Package metrics provides Prometheus metrics for the netrisk scoring service.
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
	scoreBuckets     []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Decisions
	evaluations      *prometheus.CounterVec
	finalScore       prometheus.Histogram
	ruleTriggers     *prometheus.CounterVec
	evaluateLatency  prometheus.Histogram
	validationErrors *prometheus.CounterVec
	duplicates       prometheus.Counter

	// Providers
	providerCalls     *prometheus.CounterVec
	providerFallbacks *prometheus.CounterVec
	providerLatency   *prometheus.HistogramVec
	breakerState      *prometheus.GaugeVec
	gatewayLatency    prometheus.Histogram
	simulatedSignals  prometheus.Histogram

	// Audit log
	auditAppends       *prometheus.CounterVec
	auditAppendLatency prometheus.Histogram
	auditRecords       prometheus.Gauge
	auditQueryLatency  prometheus.Histogram

	// Writer queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueRejected    prometheus.Counter
	writerCount      prometheus.Gauge
	writerJobLatency prometheus.Histogram

	// Country list and alerts
	countryListSize  *prometheus.GaugeVec
	countryRefreshes *prometheus.CounterVec
	alertsPublished  *prometheus.CounterVec
	summaryRuns      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "netrisk",
		subsystem:        "fraud",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		scoreBuckets:     []float64{10, 20, 35, 50, 70, 85, 100},
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.evaluations = m.counterVec("evaluations_total", "Evaluations by decision", "decision")
	m.finalScore = m.histogram("final_score", "Distribution of fused final risk scores (0-100)", m.scoreBuckets)
	m.ruleTriggers = m.counterVec("rule_triggers_total", "Condition rules fired by rule id", "rule")
	m.evaluateLatency = m.histogram("evaluate_latency_milliseconds", "End-to-end evaluation latency in milliseconds", m.histogramBuckets)
	m.validationErrors = m.counterVec("validation_errors_total", "Rejected evaluation requests by field", "field")
	m.duplicates = m.counter("duplicate_requests_total", "Evaluation requests rejected as replays")

	m.providerCalls = m.counterVec("provider_calls_total", "Provider signals by kind and provenance", "provider", "provenance")
	m.providerFallbacks = m.counterVec("provider_fallbacks_total", "Provider fallbacks to simulation by reason", "provider", "reason")
	m.providerLatency = m.histogramVec("provider_latency_milliseconds", "Provider fetch latency in milliseconds", m.histogramBuckets, "provider", "provenance")
	m.breakerState = m.gaugeVec("provider_breaker_state", "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)", "provider")
	m.gatewayLatency = m.histogram("gateway_latency_milliseconds", "Signal collection latency in milliseconds", m.histogramBuckets)
	m.simulatedSignals = m.histogram("gateway_simulated_signals", "Simulated signals per collected bundle", []float64{0, 1, 2, 3, 4})

	m.auditAppends = m.counterVec("audit_appends_total", "Audit appends by result", "result")
	m.auditAppendLatency = m.histogram("audit_append_latency_milliseconds", "Audit append latency in milliseconds", m.histogramBuckets)
	m.auditRecords = m.gauge("audit_records", "Records held by the audit log")
	m.auditQueryLatency = m.histogram("audit_query_latency_milliseconds", "Audit history query latency in milliseconds", m.histogramBuckets)

	m.queueSize = m.gauge("writer_queue_size", "Pending audit append jobs")
	m.queueCapacity = m.gauge("writer_queue_capacity", "Audit append queue capacity")
	m.queueEnqueue = m.counter("writer_queue_enqueue_total", "Audit append jobs enqueued")
	m.queueRejected = m.counter("writer_queue_rejected_total", "Audit append jobs rejected by a full queue")
	m.writerCount = m.gauge("writer_count", "Running audit writers")
	m.writerJobLatency = m.histogram("writer_job_latency_milliseconds", "Time from enqueue to append completion in milliseconds", m.histogramBuckets)

	m.countryListSize = m.gaugeVec("country_list_size", "Country list entries by level", "level")
	m.countryRefreshes = m.counterVec("country_list_refresh_total", "Country list refreshes by result", "result")
	m.alertsPublished = m.counterVec("alerts_published_total", "High-risk alerts by result", "result")
	m.summaryRuns = m.counter("summary_runs_total", "Scheduled summary runs")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEvaluation counts a decision and observes its final score.
func RecordEvaluation(decision string, finalScore float64) {
	globalManager.evaluations.WithLabelValues(decision).Inc()
	globalManager.finalScore.Observe(finalScore)
}

// RecordRuleTrigger counts a fired condition rule.
func RecordRuleTrigger(rule string) {
	globalManager.ruleTriggers.WithLabelValues(rule).Inc()
}

// RecordEvaluateLatency records end-to-end evaluation latency.
func RecordEvaluateLatency(latencyMs float64) {
	globalManager.evaluateLatency.Observe(latencyMs)
}

// RecordValidationError counts a rejected request.
func RecordValidationError(field string) {
	globalManager.validationErrors.WithLabelValues(field).Inc()
}

// RecordDuplicateRequest counts a replayed request id.
func RecordDuplicateRequest() {
	globalManager.duplicates.Inc()
}

// RecordProviderCall counts one signal produced by a provider adapter.
func RecordProviderCall(provider, provenance string, latencyMs float64) {
	globalManager.providerCalls.WithLabelValues(provider, provenance).Inc()
	globalManager.providerLatency.WithLabelValues(provider, provenance).Observe(latencyMs)
}

// RecordProviderFallback counts a fallback to the simulated strategy.
func RecordProviderFallback(provider, reason string) {
	globalManager.providerFallbacks.WithLabelValues(provider, reason).Inc()
}

// UpdateBreakerState sets the breaker state gauge for a provider.
func UpdateBreakerState(provider string, state int) {
	globalManager.breakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordGatewayCollection records one gateway fan-out.
func RecordGatewayCollection(latencyMs float64, simulated int) {
	globalManager.gatewayLatency.Observe(latencyMs)
	globalManager.simulatedSignals.Observe(float64(simulated))
}

// RecordAuditAppend records an audit append outcome ("ok", "error" or
// "abandoned").
func RecordAuditAppend(result string, latencyMs float64) {
	globalManager.auditAppends.WithLabelValues(result).Inc()
	globalManager.auditAppendLatency.Observe(latencyMs)
}

// UpdateAuditRecords sets the audit log size.
func UpdateAuditRecords(count int) {
	globalManager.auditRecords.Set(float64(count))
}

// RecordAuditQueryLatency records a history query.
func RecordAuditQueryLatency(latencyMs float64) {
	globalManager.auditQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current writer queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the writer queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueRejected increments the full-queue counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// UpdateWriterCount sets the number of running audit writers.
func UpdateWriterCount(count int) {
	globalManager.writerCount.Set(float64(count))
}

// RecordWriterJobLatency records enqueue-to-completion latency.
func RecordWriterJobLatency(latencyMs float64) {
	globalManager.writerJobLatency.Observe(latencyMs)
}

// UpdateCountryListSize sets the entry count for a country risk level.
func UpdateCountryListSize(level string, count int) {
	globalManager.countryListSize.WithLabelValues(level).Set(float64(count))
}

// RecordCountryListRefresh counts a refresh attempt ("ok" or "error").
func RecordCountryListRefresh(result string) {
	globalManager.countryRefreshes.WithLabelValues(result).Inc()
}

// RecordAlert counts an alert publish attempt ("ok" or "error").
func RecordAlert(result string) {
	globalManager.alertsPublished.WithLabelValues(result).Inc()
}

// RecordSummaryRun counts a scheduled summary.
func RecordSummaryRun() {
	globalManager.summaryRuns.Inc()
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
