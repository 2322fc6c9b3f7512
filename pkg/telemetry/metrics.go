package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
)

// Validation kinds.
const (
	KindField = "field"
	KindCheck = "check"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "xform").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for validation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "xform",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the xform collectors.
type Collector struct {
	ValidationsTotal     *prometheus.CounterVec
	ValidationDuration   *prometheus.HistogramVec
	SubmitsTotal         *prometheus.CounterVec
	AsyncEvaluations     *prometheus.CounterVec
	StaleOperationsTotal *prometheus.CounterVec
}

var (
	globalMetrics   *Collector
	globalMetricsMu sync.RWMutex
)

func initMetrics(config MetricsConfig) *Collector {
	factory := promauto.With(config.Registry)

	return &Collector{
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validations_total",
			Help:        "Total number of field and check validations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "outcome"}),

		ValidationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validation_duration_seconds",
			Help:        "Validation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		SubmitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submits_total",
			Help:        "Total number of form submissions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		AsyncEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_evaluations_total",
			Help:        "Total number of async value evaluations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		StaleOperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stale_operations_total",
			Help:        "Total number of ignored stale operations by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// Prometheus registers the xform collectors and starts recording.
// Calling it again replaces the installed collectors; the new registry must
// not already hold them.
//
// Metrics collected:
//   - xform_validations_total: validations by kind and outcome
//   - xform_validation_duration_seconds: validation duration by kind
//   - xform_submits_total: submissions by outcome
//   - xform_async_evaluations_total: async value evaluations by outcome
//   - xform_stale_operations_total: ignored stale operations by code
func Prometheus(opts ...MetricsOption) *Collector {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := initMetrics(config)
	globalMetricsMu.Lock()
	globalMetrics = m
	globalMetricsMu.Unlock()
	return m
}

// Disable stops recording. Registered collectors keep their values.
func Disable() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

// GetMetrics returns the installed collectors, or nil.
func GetMetrics() *Collector {
	globalMetricsMu.RLock()
	defer globalMetricsMu.RUnlock()
	return globalMetrics
}

// =============================================================================
// Recording Functions
// =============================================================================

// RecordValidation records one settled validation.
func RecordValidation(kind, outcome string, d time.Duration) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.ValidationDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// RecordSubmit records one submission.
func RecordSubmit(outcome string) {
	if m := GetMetrics(); m != nil {
		m.SubmitsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordAsyncEvaluation records one async value evaluation.
func RecordAsyncEvaluation(outcome string) {
	if m := GetMetrics(); m != nil {
		m.AsyncEvaluations.WithLabelValues(outcome).Inc()
	}
}

// RecordStale records one ignored stale operation.
func RecordStale(code string) {
	if m := GetMetrics(); m != nil {
		m.StaleOperationsTotal.WithLabelValues(code).Inc()
	}
}
