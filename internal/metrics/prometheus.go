package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the tracker
type PrometheusMetrics struct {
	// Poll cycle metrics
	PollCyclesTotal   prometheus.Counter
	PollCycleDuration prometheus.Histogram
	PollErrorsTotal   *prometheus.CounterVec

	// Transaction processing metrics
	SignaturesProcessedTotal prometheus.Counter
	TransfersDetectedTotal   *prometheus.CounterVec

	// Alert delivery metrics
	AlertsSentTotal    prometheus.Counter
	AlertFailuresTotal *prometheus.CounterVec
	AlertDuration      prometheus.Histogram

	// Subscriber metrics
	SubscribersActive prometheus.Gauge
	SubscribersPruned prometheus.Counter

	// RPC metrics
	RPCRequestsTotal *prometheus.CounterVec

	// State persistence metrics
	StateWritesTotal *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		PollCyclesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "revstracker_poll_cycles_total",
				Help: "Total number of completed poll cycles",
			},
		),

		PollCycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "revstracker_poll_cycle_duration_seconds",
				Help:    "Time spent running a full poll cycle",
				Buckets: prometheus.DefBuckets,
			},
		),

		PollErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_poll_errors_total",
				Help: "Total number of poll cycle errors by stage",
			},
			[]string{"stage"},
		),

		SignaturesProcessedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "revstracker_signatures_processed_total",
				Help: "Total number of new transaction signatures processed",
			},
		),

		TransfersDetectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_transfers_detected_total",
				Help: "Total number of transfer events reconstructed from balance deltas",
			},
			[]string{"direction"},
		),

		AlertsSentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "revstracker_alerts_sent_total",
				Help: "Total number of alerts delivered to subscribers",
			},
		),

		AlertFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_alert_failures_total",
				Help: "Total number of failed alert deliveries by reason",
			},
			[]string{"reason"},
		),

		AlertDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "revstracker_alert_duration_seconds",
				Help:    "Duration of alert delivery attempts",
				Buckets: prometheus.DefBuckets,
			},
		),

		SubscribersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "revstracker_subscribers_active",
				Help: "Number of currently subscribed chats",
			},
		),

		SubscribersPruned: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "revstracker_subscribers_pruned_total",
				Help: "Total number of subscribers removed after permanent delivery failures",
			},
		),

		RPCRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_rpc_requests_total",
				Help: "Total number of JSON-RPC requests made to the Solana endpoint",
			},
			[]string{"method", "status"},
		),

		StateWritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_state_writes_total",
				Help: "Total number of persisted state writes",
			},
			[]string{"status"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revstracker_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revstracker_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "revstracker_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "revstracker_component_health",
				Help: "Health of application components (1 healthy, 0 unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "revstracker_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "revstracker_goroutines",
				Help: "Current number of goroutines",
			},
		),
	}
}

// RecordPollCycle records a completed poll cycle
func (m *PrometheusMetrics) RecordPollCycle(duration time.Duration) {
	m.PollCyclesTotal.Inc()
	m.PollCycleDuration.Observe(duration.Seconds())
}

// RecordPollError records a poll cycle error at the given stage
func (m *PrometheusMetrics) RecordPollError(stage string) {
	m.PollErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordSignatureProcessed records one processed signature
func (m *PrometheusMetrics) RecordSignatureProcessed() {
	m.SignaturesProcessedTotal.Inc()
}

// RecordTransferDetected records a reconstructed transfer event
func (m *PrometheusMetrics) RecordTransferDetected(direction string) {
	m.TransfersDetectedTotal.WithLabelValues(direction).Inc()
}

// RecordAlertSent records a delivered alert
func (m *PrometheusMetrics) RecordAlertSent(duration time.Duration) {
	m.AlertsSentTotal.Inc()
	m.AlertDuration.Observe(duration.Seconds())
}

// RecordAlertFailure records a failed alert delivery
func (m *PrometheusMetrics) RecordAlertFailure(reason string) {
	m.AlertFailuresTotal.WithLabelValues(reason).Inc()
}

// UpdateSubscriberCount updates the active subscriber gauge
func (m *PrometheusMetrics) UpdateSubscriberCount(count int) {
	m.SubscribersActive.Set(float64(count))
}

// RecordSubscriberPruned records a subscriber removed for unreachability
func (m *PrometheusMetrics) RecordSubscriberPruned() {
	m.SubscribersPruned.Inc()
}

// RecordRPCRequest records a JSON-RPC request
func (m *PrometheusMetrics) RecordRPCRequest(method, status string) {
	m.RPCRequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordStateWrite records a persisted state write
func (m *PrometheusMetrics) RecordStateWrite(status string) {
	m.StateWritesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP API request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateComponentHealth updates a component health gauge
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateApplicationUptime updates the uptime gauge
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateMemoryUsage updates the memory usage gauge
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine gauge
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
