package observe

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
	"github.com/j20-dev/j20/pkg/scheduler"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "j20").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
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
		Namespace: "j20",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records runtime events as Prometheus metrics.
type Metrics struct {
	flushes           prometheus.Counter
	effectRuns        prometheus.Counter
	flushDuration     prometheus.Histogram
	failures          *prometheus.CounterVec
	budgetExceeded    prometheus.Counter
	deferredEffects   prometheus.Counter
	reconciles        prometheus.Counter
	listOps           *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	duplicateKeys     prometheus.Counter
	tasks             *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	reactions         prometheus.Gauge
	trackedCells      prometheus.Gauge
	pendingEffects    prometheus.Gauge

	stats atomic.Pointer[reactive.Stats]
}

// NewMetrics creates and registers the metrics. Registering twice on the same
// registry panics, like every promauto constructor.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		})
	}

	return &Metrics{
		flushes:         counter("flushes_total", "Total number of effect flushes"),
		effectRuns:      counter("effect_runs_total", "Total number of effect executions inside flushes"),
		flushDuration:   histogram("flush_duration_seconds", "Effect flush duration in seconds"),
		budgetExceeded:  counter("budget_exceeded_total", "Total number of flushes cut short by the effect budget"),
		deferredEffects: counter("deferred_effects_total", "Total number of effects deferred past the effect budget"),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "failures_total",
			Help:        "Total number of isolated panics by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		reconciles:        counter("reconciles_total", "Total number of keyed list reconciliations"),
		reconcileDuration: histogram("reconcile_duration_seconds", "Keyed list reconciliation duration in seconds"),
		duplicateKeys:     counter("duplicate_keys_total", "Total number of duplicate keys seen by reconciliations"),

		listOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "list_ops_total",
			Help:        "Total number of keyed list operations by op",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_total",
			Help:        "Total number of scheduler tasks by priority and status",
			ConstLabels: config.ConstLabels,
		}, []string{"priority", "status"}),

		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_duration_seconds",
			Help:        "Scheduler task duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"priority"}),

		reactions:      gauge("reactions", "Number of live derived values and effects"),
		trackedCells:   gauge("tracked_cells", "Number of cells with at least one dependent"),
		pendingEffects: gauge("pending_effects", "Number of effects waiting for a flush"),
	}
}

// FlushCompleted implements reactive.Observer.
func (m *Metrics) FlushCompleted(ran int, elapsed time.Duration) {
	m.flushes.Inc()
	m.effectRuns.Add(float64(ran))
	m.flushDuration.Observe(elapsed.Seconds())
}

// EffectFailed implements reactive.Observer.
func (m *Metrics) EffectFailed(string, error) {
	m.failures.WithLabelValues("effect").Inc()
}

// CleanupFailed implements reactive.Observer.
func (m *Metrics) CleanupFailed(string, error) {
	m.failures.WithLabelValues("cleanup").Inc()
}

// BudgetExceeded implements reactive.Observer.
func (m *Metrics) BudgetExceeded(deferred int) {
	m.budgetExceeded.Inc()
	m.deferredEffects.Add(float64(deferred))
}

// ReconcileCompleted implements list.Observer.
func (m *Metrics) ReconcileCompleted(s list.Stats, elapsed time.Duration) {
	m.reconciles.Inc()
	m.listOps.WithLabelValues("create").Add(float64(s.Created))
	m.listOps.WithLabelValues("move").Add(float64(s.Moved))
	m.listOps.WithLabelValues("remove").Add(float64(s.Removed))
	m.reconcileDuration.Observe(elapsed.Seconds())
}

// DuplicateKeys implements list.Observer.
func (m *Metrics) DuplicateKeys(n int) {
	m.duplicateKeys.Add(float64(n))
}

// TaskCompleted implements scheduler.Observer.
func (m *Metrics) TaskCompleted(p scheduler.Priority, elapsed time.Duration) {
	m.tasks.WithLabelValues(p.String(), "success").Inc()
	m.taskDuration.WithLabelValues(p.String()).Observe(elapsed.Seconds())
}

// TaskFailed implements scheduler.Observer.
func (m *Metrics) TaskFailed(p scheduler.Priority, _ error) {
	m.tasks.WithLabelValues(p.String(), "error").Inc()
	m.failures.WithLabelValues("task").Inc()
}

// RecordStats publishes a snapshot of the runtime's graph. Call it from the
// runtime goroutine.
func (m *Metrics) RecordStats(s reactive.Stats) {
	m.reactions.Set(float64(s.Reactions))
	m.trackedCells.Set(float64(s.TrackedCells))
	m.pendingEffects.Set(float64(s.PendingEffects))
	m.stats.Store(&s)
}

// LastStats returns the last snapshot passed to RecordStats.
func (m *Metrics) LastStats() (reactive.Stats, bool) {
	s := m.stats.Load()
	if s == nil {
		return reactive.Stats{}, false
	}
	return *s, true
}

var (
	_ reactive.Observer  = (*Metrics)(nil)
	_ list.Observer      = (*Metrics)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
)
