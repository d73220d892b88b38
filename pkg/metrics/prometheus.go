// Package metrics provides Prometheus metrics for the analysis dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the dashboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Report ingestion
	reportsUploaded *prometheus.CounterVec
	uploadErrors    *prometheus.CounterVec
	issuesParsed    *prometheus.CounterVec
	duplicateIssues *prometheus.CounterVec
	reportsStored   prometheus.Gauge
	issuesStored    prometheus.Gauge

	// Page widgets
	chartsRendered   *prometheus.CounterVec
	chartFetchFailed *prometheus.CounterVec
	gridLoads        *prometheus.CounterVec
	backendFetchMs   *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the helper functions

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dashboard",
		subsystem:        "analysis",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
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

func (m *Manager) initializeMetrics() {
	m.reportsUploaded = m.counterVec("reports_uploaded_total", "Reports accepted through the upload endpoint", "tool")
	m.uploadErrors = m.counterVec("upload_errors_total", "Rejected uploads by reason", "reason")
	m.issuesParsed = m.counterVec("issues_parsed_total", "Issues parsed from uploaded reports", "tool")
	m.duplicateIssues = m.counterVec("duplicate_issues_total", "Repeated issues dropped from uploaded reports", "tool")
	m.reportsStored = m.gauge("reports_stored", "Reports currently held by the store")
	m.issuesStored = m.gauge("issues_stored", "Issues currently held by the store")

	m.chartsRendered = m.counterVec("charts_rendered_total", "Bar charts mounted on the details page", "chart")
	m.chartFetchFailed = m.counterVec("chart_fetch_failed_total", "Chart dataset fetches that failed silently", "chart")
	m.gridLoads = m.counterVec("grid_loads_total", "Grid data source loads by outcome", "status")
	m.backendFetchMs = m.histogramVec("backend_fetch_milliseconds", "Latency of page widget backend fetches", "endpoint")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that ended in an error", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		ConstLabels: m.constLabels,
	})
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordReportUploaded counts an accepted report.
func RecordReportUploaded(tool string) {
	globalManager.reportsUploaded.WithLabelValues(tool).Inc()
}

// RecordUploadError counts a rejected upload.
func RecordUploadError(reason string) {
	globalManager.uploadErrors.WithLabelValues(reason).Inc()
}

// RecordIssuesParsed adds n parsed issues for tool.
func RecordIssuesParsed(tool string, n int) {
	if n <= 0 {
		return
	}
	globalManager.issuesParsed.WithLabelValues(tool).Add(float64(n))
}

// RecordDuplicateIssues adds n dropped repeats for tool.
func RecordDuplicateIssues(tool string, n int) {
	if n <= 0 {
		return
	}
	globalManager.duplicateIssues.WithLabelValues(tool).Add(float64(n))
}

// UpdateReportsStored sets the stored reports gauge.
func UpdateReportsStored(n int) {
	globalManager.reportsStored.Set(float64(n))
}

// UpdateIssuesStored sets the stored issues gauge.
func UpdateIssuesStored(n int) {
	globalManager.issuesStored.Set(float64(n))
}

// RecordChartRendered counts a mounted chart.
func RecordChartRendered(chart string) {
	globalManager.chartsRendered.WithLabelValues(chart).Inc()
}

// RecordChartFetchFailed counts a chart that was skipped because its dataset fetch failed.
func RecordChartFetchFailed(chart string) {
	globalManager.chartFetchFailed.WithLabelValues(chart).Inc()
}

// RecordGridLoad counts a grid data source load; status is "ok" or "error".
func RecordGridLoad(status string) {
	globalManager.gridLoads.WithLabelValues(status).Inc()
}

// RecordBackendFetch observes the latency of a widget fetch.
func RecordBackendFetch(endpoint string, durationMs float64) {
	globalManager.backendFetchMs.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes a served request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorLatency observes how long a failed operation took.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}
