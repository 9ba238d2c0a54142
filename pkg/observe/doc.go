// Package observe exports reactive runtime, list and scheduler events to
// Prometheus and OpenTelemetry, and serves them over HTTP.
//
// Metrics and Tracer implement reactive.Observer, list.Observer and
// scheduler.Observer, so one value can be handed to all three:
//
//	m := observe.NewMetrics(observe.WithNamespace("myapp"))
//	sched := scheduler.New(scheduler.Config{Observer: m})
//	rt := reactive.New(reactive.Config{Scheduler: sched, Observer: m})
//	rows := list.For(rt, source, list.Reconciler[Row, *Node]{..., Observer: m})
//
// Both are safe to call from the runtime goroutine while an HTTP server
// scrapes them from another. The runtime itself is not: call RecordStats from
// the runtime goroutine to publish a snapshot of rt.Stats() that Handler can
// serve.
//
//	go http.ListenAndServe(":9090", observe.Handler(m, prometheus.DefaultGatherer))
//
// Metrics collected (with the default namespace "j20"):
//   - j20_flushes_total: Counter of effect flushes
//   - j20_effect_runs_total: Counter of effect executions inside flushes
//   - j20_flush_duration_seconds: Histogram of flush duration
//   - j20_failures_total: Counter of isolated panics by kind (effect, cleanup, task)
//   - j20_budget_exceeded_total: Counter of flushes cut short by the effect budget
//   - j20_deferred_effects_total: Counter of effects deferred past the budget
//   - j20_reconciles_total: Counter of keyed list reconciliations
//   - j20_list_ops_total: Counter of list operations by op (create, move, remove)
//   - j20_reconcile_duration_seconds: Histogram of reconciliation duration
//   - j20_duplicate_keys_total: Counter of duplicate keys seen by reconciliations
//   - j20_tasks_total: Counter of scheduler tasks by priority and status
//   - j20_task_duration_seconds: Histogram of task duration by priority
//   - j20_reactions, j20_tracked_cells, j20_pending_effects: Gauges set by RecordStats
package observe
