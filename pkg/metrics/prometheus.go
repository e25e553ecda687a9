// Package metrics provides Prometheus metrics for the pragati analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingest
	eventsAccepted  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsRejected  *prometheus.CounterVec
	eventsProcessed *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
	eventLatency    prometheus.Histogram

	// Analytics
	refreshLatency  *prometheus.HistogramVec
	refreshErrors   *prometheus.CounterVec
	activitiesTotal *prometheus.CounterVec
	milestonesTotal prometheus.Counter

	// Notifications
	notifications *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter
	workerCount   prometheus.Gauge
	workerBusy    prometheus.Gauge
	dedupeSize    prometheus.Gauge

	// Storage
	dbQueryLatency prometheus.Histogram
	dbErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Jobs and errors
	jobRuns              *prometheus.CounterVec
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// latencyBuckets are milliseconds, sized for database bound work.
var latencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pragati",
		subsystem:        "analytics",
		histogramBuckets: latencyBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsAccepted = auto.NewCounterVec(m.counter("events_accepted_total", "Events accepted for processing"), []string{"kind"})
	m.eventsDuplicate = auto.NewCounter(m.counter("events_duplicate_total", "Events dropped as duplicates"))
	m.eventsRejected = auto.NewCounterVec(m.counter("events_rejected_total", "Events rejected before queueing"), []string{"reason"})
	m.eventsProcessed = auto.NewCounterVec(m.counter("events_processed_total", "Events applied successfully"), []string{"kind"})
	m.eventsFailed = auto.NewCounterVec(m.counter("events_failed_total", "Events that failed to apply"), []string{"kind"})
	m.eventLatency = auto.NewHistogram(m.histogram("event_processing_duration_milliseconds", "Time to apply one event"))

	m.refreshLatency = auto.NewHistogramVec(m.histogram("refresh_duration_milliseconds", "Time to recompute one aggregate"), []string{"aggregate"})
	m.refreshErrors = auto.NewCounterVec(m.counter("refresh_errors_total", "Aggregate recomputations that failed"), []string{"aggregate"})
	m.activitiesTotal = auto.NewCounterVec(m.counter("activities_logged_total", "Activity log entries appended"), []string{"type"})
	m.milestonesTotal = auto.NewCounter(m.counter("streak_milestones_total", "Streak milestones reached"))

	m.notifications = auto.NewCounterVec(m.counter("notifications_total", "Parent notifications by type and outcome"), []string{"type", "outcome"})

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Events waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueued_total", "Events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeued_total", "Events dequeued"))
	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Ingest workers running"))
	m.workerBusy = auto.NewGauge(m.gauge("worker_busy", "Ingest workers applying an event"))
	m.dedupeSize = auto.NewGauge(m.gauge("dedupe_size", "Event ids remembered by the in-memory deduper"))

	m.dbQueryLatency = auto.NewHistogram(m.histogram("db_query_duration_milliseconds", "SQL statement latency"))
	m.dbErrors = auto.NewCounter(m.counter("db_errors_total", "SQL statements that returned an error"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by route, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration"), []string{"endpoint", "method", "status_code"})

	m.jobRuns = auto.NewCounterVec(m.counter("job_runs_total", "Batch job runs by job and result"), []string{"job", "result"})
	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutines", "Goroutines running"))
}

func on() bool { return globalManager != nil && globalManager.enabled }

// Ingest.

func RecordEventAccepted(kind string) {
	if on() {
		globalManager.eventsAccepted.WithLabelValues(kind).Inc()
	}
}

func RecordEventDuplicate() {
	if on() {
		globalManager.eventsDuplicate.Inc()
	}
}

func RecordEventRejected(reason string) {
	if on() {
		globalManager.eventsRejected.WithLabelValues(reason).Inc()
	}
}

func RecordEventProcessed(kind string, latencyMs float64) {
	if on() {
		globalManager.eventsProcessed.WithLabelValues(kind).Inc()
		globalManager.eventLatency.Observe(latencyMs)
	}
}

func RecordEventFailed(kind string) {
	if on() {
		globalManager.eventsFailed.WithLabelValues(kind).Inc()
	}
}

// Analytics.

func RecordRefresh(aggregate string, latencyMs float64, err error) {
	if !on() {
		return
	}
	globalManager.refreshLatency.WithLabelValues(aggregate).Observe(latencyMs)
	if err != nil {
		globalManager.refreshErrors.WithLabelValues(aggregate).Inc()
	}
}

func RecordActivity(activityType string) {
	if on() {
		globalManager.activitiesTotal.WithLabelValues(activityType).Inc()
	}
}

func RecordStreakMilestone() {
	if on() {
		globalManager.milestonesTotal.Inc()
	}
}

// RecordNotification counts a notification outcome: sent, pending, suppressed, failed.
func RecordNotification(notificationType, outcome string) {
	if on() {
		globalManager.notifications.WithLabelValues(notificationType, outcome).Inc()
	}
}

// Queue and workers.

func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

func WorkerBusy(delta int) {
	if on() {
		globalManager.workerBusy.Add(float64(delta))
	}
}

func UpdateDedupeSize(size int64) {
	if on() {
		globalManager.dedupeSize.Set(float64(size))
	}
}

// Storage.

func RecordDBQuery(latencyMs float64, err error) {
	if !on() {
		return
	}
	globalManager.dbQueryLatency.Observe(latencyMs)
	if err != nil {
		globalManager.dbErrors.Inc()
	}
}

// HTTP.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Jobs and errors.

func RecordJobRun(job string, err error) {
	if !on() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	globalManager.jobRuns.WithLabelValues(job, result).Inc()
}

func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// System.

func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
