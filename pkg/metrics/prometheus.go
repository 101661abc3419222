// Package metrics provides Prometheus metrics for the spraycam service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default histogram buckets.
var (
	defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}     //nolint:gochecknoglobals // read-only defaults
	defaultActionBuckets  = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120} //nolint:gochecknoglobals // read-only defaults
)

// Manager manages all Prometheus metrics for the spraycam service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64 // milliseconds
	actionBuckets  []float64 // seconds
	constLabels    prometheus.Labels
	metricPrefix   string
	registry       prometheus.Registerer

	// Control loop
	framesProcessed       prometheus.Counter
	framesSkipped         prometheus.Counter
	tickLatency           prometheus.Histogram
	effectiveRate         prometheus.Gauge
	appliedRate           prometheus.Gauge
	windowCapacity        *prometheus.GaugeVec
	windowResizes         prometheus.Counter
	windowResizesDeferred prometheus.Counter
	detectionRatio        prometheus.Gauge
	lifecycleState        prometheus.Gauge
	eventsTriggered       prometheus.Counter
	countdown             prometheus.Gauge

	// Actions
	actuatorActivations prometheus.Counter
	actuatorRefused     prometheus.Counter
	actuatorErrors      prometheus.Counter
	actuatorActive      prometheus.Gauge
	actuatorDuration    prometheus.Histogram
	capturesDispatched  prometheus.Counter
	captureErrors       prometheus.Counter
	captureDuration     prometheus.Histogram
	deliveries          *prometheus.CounterVec
	eventRecords        *prometheus.CounterVec
	actionsDuplicate    *prometheus.CounterVec

	// Record queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueueRate        prometheus.Counter
	queueDequeueRate        prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemMemoryPercent  prometheus.Gauge
	systemCPUPercent     prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "spraycam",
		subsystem:      "loop",
		latencyBuckets: defaultLatencyBuckets,
		actionBuckets:  defaultActionBuckets,
		constLabels:    prometheus.Labels{},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.framesProcessed = m.counter("frames_processed_total", "Total number of frames that completed a tick")
	m.framesSkipped = m.counter("frames_skipped_total", "Total number of ticks skipped because no frame was available")
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Duration of one control loop tick in milliseconds",
		m.latencyBuckets)
	m.effectiveRate = m.gauge("effective_rate_fps", "Smoothed effective sampling rate in frames per second")
	m.appliedRate = m.gauge("applied_rate_fps", "Rounded rate the window capacities are currently derived from")
	m.windowCapacity = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("window_capacity"),
		Help:        "Capacity of each sliding window in frames",
		ConstLabels: m.constLabels,
	}, []string{"window"})
	m.windowResizes = m.counter("window_resizes_total", "Total number of rate changes applied to the windows")
	m.windowResizesDeferred = m.counter("window_resizes_deferred_total",
		"Total number of ticks on which a rate change was held back by an in-flight event")
	m.detectionRatio = m.gauge("detection_ratio", "Ratio of positive frames in the detection window")
	m.lifecycleState = m.gauge("lifecycle_state", "Event lifecycle state (0 idle, 1 triggered)")
	m.eventsTriggered = m.counter("events_triggered_total", "Total number of events triggered")
	m.countdown = m.gauge("capture_countdown_ticks", "Ticks left until the clip capture of the in-flight event")

	m.actuatorActivations = m.counter("actuator_activations_total", "Total number of actuator activations started")
	m.actuatorRefused = m.counter("actuator_refused_total",
		"Total number of actuator activations refused because one was still running")
	m.actuatorErrors = m.counter("actuator_errors_total", "Total number of failed actuator activations")
	m.actuatorActive = m.gauge("actuator_active", "Whether an actuator activation is running (1) or not (0)")
	m.actuatorDuration = m.histogram("actuator_duration_seconds", "Duration of actuator activations in seconds", m.actionBuckets)
	m.capturesDispatched = m.counter("captures_dispatched_total", "Total number of clip captures started")
	m.captureErrors = m.counter("capture_errors_total", "Total number of failed clip encodes")
	m.captureDuration = m.histogram("capture_duration_seconds", "Duration of clip encode and delivery in seconds", m.actionBuckets)
	m.deliveries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("deliveries_total"),
		Help:        "Clip notifications by result (sent, fallback, failed)",
		ConstLabels: m.constLabels,
	}, []string{"result"})
	m.eventRecords = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("event_records_total"),
		Help:        "Event records by result (stored, published, dropped, failed)",
		ConstLabels: m.constLabels,
	}, []string{"result"})
	m.actionsDuplicate = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("actions_duplicate_total"),
		Help:        "Actions refused because they already ran for the same event",
		ConstLabels: m.constLabels,
	}, []string{"action"})

	m.queueSize = m.gauge("queue_size", "Current number of event records waiting to be stored")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum record queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Record queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of records enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of records dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of records rejected by the queue")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running record workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to store and publish one record in milliseconds", m.latencyBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of record worker errors")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Total number of errors by component",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Go heap memory in use in bytes")
	m.systemMemoryPercent = m.gauge("system_memory_used_percent", "Host memory used in percent")
	m.systemCPUPercent = m.gauge("system_cpu_percent", "Host CPU utilization in percent")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Control loop.

// RecordFrameProcessed increments the processed frames counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordFrameSkipped increments the skipped frames counter.
func RecordFrameSkipped() {
	globalManager.framesSkipped.Inc()
}

// RecordTickLatency records the duration of one tick in milliseconds.
func RecordTickLatency(latencyMs float64) {
	globalManager.tickLatency.Observe(latencyMs)
}

// UpdateEffectiveRate sets the smoothed sampling rate.
func UpdateEffectiveRate(rate float64) {
	globalManager.effectiveRate.Set(rate)
}

// UpdateAppliedRate sets the rate the window capacities derive from.
func UpdateAppliedRate(rate int) {
	globalManager.appliedRate.Set(float64(rate))
}

// UpdateWindowCapacity sets the capacity of a named window.
func UpdateWindowCapacity(window string, capacity int) {
	globalManager.windowCapacity.WithLabelValues(window).Set(float64(capacity))
}

// RecordWindowResize increments the applied resizes counter.
func RecordWindowResize() {
	globalManager.windowResizes.Inc()
}

// RecordWindowResizeDeferred increments the deferred resizes counter.
func RecordWindowResizeDeferred() {
	globalManager.windowResizesDeferred.Inc()
}

// UpdateDetectionRatio sets the current detection ratio.
func UpdateDetectionRatio(ratio float64) {
	globalManager.detectionRatio.Set(ratio)
}

// UpdateLifecycleState sets the lifecycle state gauge.
func UpdateLifecycleState(state int) {
	globalManager.lifecycleState.Set(float64(state))
}

// RecordEventTriggered increments the triggered events counter.
func RecordEventTriggered() {
	globalManager.eventsTriggered.Inc()
}

// UpdateCountdown sets the capture countdown gauge.
func UpdateCountdown(ticks int) {
	globalManager.countdown.Set(float64(ticks))
}

// Actions.

// RecordActuatorActivation increments the activations counter.
func RecordActuatorActivation() {
	globalManager.actuatorActivations.Inc()
}

// RecordActuatorRefused increments the refused activations counter.
func RecordActuatorRefused() {
	globalManager.actuatorRefused.Inc()
}

// RecordActuatorError increments the actuator error counter.
func RecordActuatorError() {
	globalManager.actuatorErrors.Inc()
}

// UpdateActuatorActive sets the actuator liveness gauge.
func UpdateActuatorActive(active bool) {
	if active {
		globalManager.actuatorActive.Set(1)
		return
	}
	globalManager.actuatorActive.Set(0)
}

// RecordActuatorDuration records how long an activation ran.
func RecordActuatorDuration(d time.Duration) {
	globalManager.actuatorDuration.Observe(d.Seconds())
}

// RecordCaptureDispatched increments the started captures counter.
func RecordCaptureDispatched() {
	globalManager.capturesDispatched.Inc()
}

// RecordCaptureError increments the failed captures counter.
func RecordCaptureError() {
	globalManager.captureErrors.Inc()
}

// RecordCaptureDuration records how long encode and delivery took.
func RecordCaptureDuration(d time.Duration) {
	globalManager.captureDuration.Observe(d.Seconds())
}

// RecordDelivery counts a clip notification by result.
func RecordDelivery(result string) {
	globalManager.deliveries.WithLabelValues(result).Inc()
}

// RecordEventRecord counts an event record by result.
func RecordEventRecord(result string) {
	globalManager.eventRecords.WithLabelValues(result).Inc()
}

// RecordActionDuplicate counts an action refused for an event that already ran it.
func RecordActionDuplicate(action string) {
	globalManager.actionsDuplicate.WithLabelValues(action).Inc()
}

// Queue and workers.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP.

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

// System.

// UpdateSystemMemoryUsage sets the Go heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemMemoryPercent sets the host memory utilization.
func UpdateSystemMemoryPercent(percent float64) {
	globalManager.systemMemoryPercent.Set(percent)
}

// UpdateSystemCPUPercent sets the host CPU utilization.
func UpdateSystemCPUPercent(percent float64) {
	globalManager.systemCPUPercent.Set(percent)
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
