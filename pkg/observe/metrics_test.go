package observe

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
	"github.com/j20-dev/j20/pkg/rtest"
	"github.com/j20-dev/j20/pkg/scheduler"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRuntimeEvents(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := reactive.New(reactive.Config{
		Mode:     reactive.ModeSync,
		Logger:   rtest.Logger(t),
		Observer: m,
	})

	count := reactive.NewCell(rt, 0)
	reactive.NewEffect(rt, func() reactive.Cleanup {
		if count.Get() == 2 {
			panic("two")
		}
		return nil
	}, reactive.Named("watch"))

	count.Set(1)
	count.Set(2)

	if got := metricCounterValue(t, m.flushes); got != 2 {
		t.Errorf("flushes_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.effectRuns); got != 2 {
		t.Errorf("effect_runs_total=%v, want 2", got)
	}
	if got := metricHistogramCount(t, m.flushDuration); got != 2 {
		t.Errorf("flush_duration_seconds count=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.failures.WithLabelValues("effect")); got != 1 {
		t.Errorf("failures_total(effect)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.failures.WithLabelValues("cleanup")); got != 0 {
		t.Errorf("failures_total(cleanup)=%v, want 0", got)
	}
}

func TestMetricsBudgetExceeded(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m.BudgetExceeded(3)
	m.BudgetExceeded(1)

	if got := metricCounterValue(t, m.budgetExceeded); got != 2 {
		t.Errorf("budget_exceeded_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.deferredEffects); got != 4 {
		t.Errorf("deferred_effects_total=%v, want 4", got)
	}
}

func TestMetricsListEvents(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := rtest.NewRuntime(t, reactive.ModeSync)
	host := rtest.NewHost[int, int]()
	source := reactive.NewCell(rt, []int{1, 2, 3})

	list.For(rt, source.Get, list.Reconciler[int, int]{
		Key:      func(v int) any { return v },
		Render:   func(v int, _ *reactive.Cell[int]) int { return v },
		Host:     host,
		Observer: m,
	})
	source.Set([]int{3, 4, 1, 1})

	if got := metricCounterValue(t, m.reconciles); got != 2 {
		t.Errorf("reconciles_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.listOps.WithLabelValues("create")); got != 5 {
		t.Errorf("list_ops_total(create)=%v, want 5", got)
	}
	if got := metricCounterValue(t, m.listOps.WithLabelValues("remove")); got != 1 {
		t.Errorf("list_ops_total(remove)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.duplicateKeys); got != 1 {
		t.Errorf("duplicate_keys_total=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.reconcileDuration); got != 2 {
		t.Errorf("reconcile_duration_seconds count=%v, want 2", got)
	}
}

func TestMetricsSchedulerEvents(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	s := scheduler.New(scheduler.Config{Logger: rtest.Logger(t), Observer: m})

	s.AddTask(func() {}, scheduler.PriorityHigh)
	s.AddTask(func() { panic("boom") }, scheduler.PriorityLow)
	s.Flush()

	high := scheduler.PriorityHigh.String()
	low := scheduler.PriorityLow.String()
	if got := metricCounterValue(t, m.tasks.WithLabelValues(high, "success")); got != 1 {
		t.Errorf("tasks_total(%s, success)=%v, want 1", high, got)
	}
	if got := metricCounterValue(t, m.tasks.WithLabelValues(low, "error")); got != 1 {
		t.Errorf("tasks_total(%s, error)=%v, want 1", low, got)
	}
	if got := metricCounterValue(t, m.failures.WithLabelValues("task")); got != 1 {
		t.Errorf("failures_total(task)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.taskDuration.WithLabelValues(high)); got != 1 {
		t.Errorf("task_duration_seconds(%s) count=%v, want 1", high, got)
	}
}

func TestMetricsRecordStats(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	if _, ok := m.LastStats(); ok {
		t.Fatal("expected no snapshot before RecordStats")
	}

	m.RecordStats(reactive.Stats{Mode: "sync", Reactions: 4, TrackedCells: 3, PendingEffects: 1})

	if got := metricGaugeValue(t, m.reactions); got != 4 {
		t.Errorf("reactions=%v, want 4", got)
	}
	if got := metricGaugeValue(t, m.trackedCells); got != 3 {
		t.Errorf("tracked_cells=%v, want 3", got)
	}
	if got := metricGaugeValue(t, m.pendingEffects); got != 1 {
		t.Errorf("pending_effects=%v, want 1", got)
	}
	s, ok := m.LastStats()
	if !ok || s.Mode != "sync" || s.Reactions != 4 {
		t.Errorf("LastStats()=%+v, %v", s, ok)
	}
}

func TestMetricsOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"instance": "a"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	m.FlushCompleted(1, time.Millisecond)
	m.TaskFailed(scheduler.PriorityNormal, errors.New("boom"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := map[string]*dto.MetricFamily{}
	for _, f := range families {
		found[f.GetName()] = f
	}

	f, ok := found["app_ui_flushes_total"]
	if !ok {
		t.Fatalf("expected app_ui_flushes_total, got %v", keys(found))
	}
	labels := f.GetMetric()[0].GetLabel()
	if len(labels) != 1 || labels[0].GetName() != "instance" || labels[0].GetValue() != "a" {
		t.Errorf("unexpected labels %v", labels)
	}

	h, ok := found["app_ui_flush_duration_seconds"]
	if !ok {
		t.Fatal("expected app_ui_flush_duration_seconds")
	}
	if got := len(h.GetMetric()[0].GetHistogram().GetBucket()); got != 2 {
		t.Errorf("expected 2 buckets, got %d", got)
	}
	if _, ok := found["app_ui_failures_total"]; !ok {
		t.Error("expected app_ui_failures_total")
	}
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected second registration to panic")
		}
	}()
	NewMetrics(WithRegistry(reg))
}

func keys(m map[string]*dto.MetricFamily) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
