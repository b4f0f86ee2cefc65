// Package metrics provides Prometheus metrics for the rivalry service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval    = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ranking engine
	contestsResolved    prometheus.Counter
	contestsUndone      prometheus.Counter
	resolutionLatency   prometheus.Histogram
	slotMoves           *prometheus.CounterVec
	placements          *prometheus.CounterVec
	samplerPicks        *prometheus.CounterVec
	standingChanges     *prometheus.CounterVec
	integrityViolations *prometheus.CounterVec

	// Auditor
	auditRuns    prometheus.Counter
	auditRepairs *prometheus.CounterVec

	// Batch writes
	batchWrites   prometheus.Counter
	batchItems    prometheus.Counter
	batchFailures prometheus.Counter

	// Operational
	rivalriesTotal prometheus.Gauge
	queueSize      prometheus.Gauge
	workerCount    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryRecords       *prometheus.GaugeVec
	repositoryUpdateLatency *prometheus.HistogramVec
	repositoryQueryLatency  *prometheus.HistogramVec

	// Queue
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager; options override the defaults.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rivalry",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Collectors still exist so recorders never nil-panic, they just are not exposed.
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.contestsResolved = auto.NewCounter(m.counterOpts("contests_resolved_total", "Contests resolved"))
	m.contestsUndone = auto.NewCounter(m.counterOpts("contests_undone_total", "Contests reverted by undo"))
	m.resolutionLatency = auto.NewHistogram(m.histogramOpts("resolution_latency_milliseconds", "End to end contest resolution latency in milliseconds"))
	m.slotMoves = auto.NewCounterVec(m.counterOpts("slot_moves_total", "Adjuster moves by ordering mode"), []string{"mode"})
	m.placements = auto.NewCounterVec(m.counterOpts("placements_total", "Unknown-slot placements by reason"), []string{"reason"})
	m.samplerPicks = auto.NewCounterVec(m.counterOpts("sampler_picks_total", "Sampler picks by ladder rung"), []string{"rung"})
	m.standingChanges = auto.NewCounterVec(m.counterOpts("standing_changes_total", "Tier standing changes by direction"), []string{"direction"})
	m.integrityViolations = auto.NewCounterVec(m.counterOpts("integrity_violations_total", "Integrity violations by component"), []string{"component"})

	m.auditRuns = auto.NewCounter(m.counterOpts("audit_runs_total", "Integrity audits executed"))
	m.auditRepairs = auto.NewCounterVec(m.counterOpts("audit_repairs_total", "Slots repaired by the auditor"), []string{"kind"})

	m.batchWrites = auto.NewCounter(m.counterOpts("batch_writes_total", "Write batches issued"))
	m.batchItems = auto.NewCounter(m.counterOpts("batch_items_total", "Items written through batches"))
	m.batchFailures = auto.NewCounter(m.counterOpts("batch_failures_total", "Batch items that failed"))

	m.rivalriesTotal = auto.NewGauge(m.gaugeOpts("rivalries_total", "Rivalries known to the service"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the job queue"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.repositoryRecords = auto.NewGaugeVec(m.gaugeOpts("repository_records", "Stored records by entity"), []string{"entity"})
	m.repositoryUpdateLatency = auto.NewHistogramVec(m.histogramOpts("repository_update_latency_milliseconds", "Repository write latency in milliseconds"), []string{"entity"})
	m.repositoryQueryLatency = auto.NewHistogramVec(m.histogramOpts("repository_query_latency_milliseconds", "Repository read latency in milliseconds"), []string{"entity"})

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Jobs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Enqueue failures"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds", "Time between enqueue and dequeue in milliseconds"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Job processing latency in milliseconds"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Jobs that returned an error"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// RunSystemCollector samples runtime stats every refresh interval until ctx is done.
func (m *Manager) RunSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectSystem()
		}
	}
}

func (m *Manager) collectSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		m.systemGCPauseTime.Observe(float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond)
	}
}

// Default returns the manager backing the package-level recorders.
func Default() *Manager { return globalManager }

// Ranking engine.

// RecordContestResolved counts a resolved contest and its latency.
func RecordContestResolved(latencyMs float64) {
	globalManager.contestsResolved.Inc()
	globalManager.resolutionLatency.Observe(latencyMs)
}

// RecordContestUndone counts an undone contest.
func RecordContestUndone() { globalManager.contestsUndone.Inc() }

// RecordSlotMove counts an adjuster move; mode is "dense" or "sparse".
func RecordSlotMove(mode string) { globalManager.slotMoves.WithLabelValues(mode).Inc() }

// RecordPlacement counts a placer insertion.
func RecordPlacement(reason string) { globalManager.placements.WithLabelValues(reason).Inc() }

// RecordSamplerPick counts a sampler pick by the rung that produced it.
func RecordSamplerPick(rung string) { globalManager.samplerPicks.WithLabelValues(rung).Inc() }

// RecordStandingChange counts a promote or demote.
func RecordStandingChange(direction string) {
	globalManager.standingChanges.WithLabelValues(direction).Inc()
}

// RecordIntegrityViolation counts an integrity violation detected by component.
func RecordIntegrityViolation(component string) {
	globalManager.integrityViolations.WithLabelValues(component).Inc()
}

// RecordAudit counts an audit run and the repairs it produced.
func RecordAudit(deleted, created int) {
	globalManager.auditRuns.Inc()
	globalManager.auditRepairs.WithLabelValues("deleted").Add(float64(deleted))
	globalManager.auditRepairs.WithLabelValues("created").Add(float64(created))
}

// RecordBatch counts a write batch of total items with failed failures.
func RecordBatch(total, failed int) {
	globalManager.batchWrites.Inc()
	globalManager.batchItems.Add(float64(total))
	globalManager.batchFailures.Add(float64(failed))
}

// Operational.

// UpdateRivalriesTotal sets the number of rivalries.
func UpdateRivalriesTotal(n int) { globalManager.rivalriesTotal.Set(float64(n)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Repository.

// UpdateRepositoryRecords sets the stored record count of an entity.
func UpdateRepositoryRecords(entity string, count int) {
	globalManager.repositoryRecords.WithLabelValues(entity).Set(float64(count))
}

// RecordRepositoryUpdateLatency records a write latency.
func RecordRepositoryUpdateLatency(entity string, latencyMs float64) {
	globalManager.repositoryUpdateLatency.WithLabelValues(entity).Observe(latencyMs)
}

// RecordRepositoryQueryLatency records a read latency.
func RecordRepositoryQueryLatency(entity string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(entity).Observe(latencyMs)
}

// Queue.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records queue wait latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records a job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
