package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
	"github.com/j20-dev/j20/pkg/scheduler"
)

// Default tracer name for j20 runtimes.
const defaultTracerName = "j20"

// TracerConfig configures the span exporter.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "j20").
	TracerName string

	// Provider supplies the tracer. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// TraceTasks emits a span per scheduler task. Disabled by default since
	// deferred flushes already produce one span each.
	TraceTasks bool
}

// TracerOption configures the span exporter.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithTaskSpans enables a span per scheduler task.
func WithTaskSpans(enabled bool) TracerOption {
	return func(c *TracerConfig) {
		c.TraceTasks = enabled
	}
}

// Tracer records runtime events as OpenTelemetry spans. Observer callbacks
// report completed work, so spans are opened retroactively with a start
// timestamp of now minus the elapsed time.
//
// Failures without a duration (effect and cleanup panics, budget overruns)
// become zero-length spans with an error status.
type Tracer struct {
	tracer     trace.Tracer
	attrs      []attribute.KeyValue
	traceTasks bool
	now        func() time.Time
}

// NewTracer creates a Tracer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.Provider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer:     tp.Tracer(config.TracerName),
		attrs:      config.Attributes,
		traceTasks: config.TraceTasks,
		now:        time.Now,
	}
}

func (t *Tracer) span(name string, elapsed time.Duration, attrs ...attribute.KeyValue) trace.Span {
	end := t.now()
	_, span := t.tracer.Start(context.Background(), name,
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attrs...),
		trace.WithAttributes(attrs...),
	)
	return span
}

func (t *Tracer) finish(span trace.Span) {
	span.End(trace.WithTimestamp(t.now()))
}

func (t *Tracer) fail(name string, err error, attrs ...attribute.KeyValue) {
	span := t.span(name, 0, attrs...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	t.finish(span)
}

// FlushCompleted implements reactive.Observer.
func (t *Tracer) FlushCompleted(ran int, elapsed time.Duration) {
	span := t.span("j20.flush", elapsed, attribute.Int("j20.effects.ran", ran))
	span.SetStatus(codes.Ok, "")
	t.finish(span)
}

// EffectFailed implements reactive.Observer.
func (t *Tracer) EffectFailed(name string, err error) {
	t.fail("j20.effect", err, attribute.String("j20.effect.name", name))
}

// CleanupFailed implements reactive.Observer.
func (t *Tracer) CleanupFailed(name string, err error) {
	t.fail("j20.cleanup", err, attribute.String("j20.cleanup.name", name))
}

// BudgetExceeded implements reactive.Observer.
func (t *Tracer) BudgetExceeded(deferred int) {
	span := t.span("j20.flush.budget", 0, attribute.Int("j20.effects.deferred", deferred))
	span.AddEvent("budget exceeded")
	t.finish(span)
}

// ReconcileCompleted implements list.Observer.
func (t *Tracer) ReconcileCompleted(s list.Stats, elapsed time.Duration) {
	span := t.span("j20.reconcile", elapsed,
		attribute.Int("j20.list.created", s.Created),
		attribute.Int("j20.list.moved", s.Moved),
		attribute.Int("j20.list.removed", s.Removed),
		attribute.Int("j20.list.retained", s.Retained),
	)
	if s.Duplicates > 0 {
		span.SetAttributes(attribute.Int("j20.list.duplicates", s.Duplicates))
	}
	span.SetStatus(codes.Ok, "")
	t.finish(span)
}

// DuplicateKeys implements list.Observer. The count is already carried on
// the reconcile span.
func (t *Tracer) DuplicateKeys(int) {}

// TaskCompleted implements scheduler.Observer.
func (t *Tracer) TaskCompleted(p scheduler.Priority, elapsed time.Duration) {
	if !t.traceTasks {
		return
	}
	span := t.span("j20.task", elapsed, attribute.String("j20.task.priority", p.String()))
	span.SetStatus(codes.Ok, "")
	t.finish(span)
}

// TaskFailed implements scheduler.Observer.
func (t *Tracer) TaskFailed(p scheduler.Priority, err error) {
	t.fail("j20.task", err, attribute.String("j20.task.priority", p.String()))
}

var (
	_ reactive.Observer  = (*Tracer)(nil)
	_ list.Observer      = (*Tracer)(nil)
	_ scheduler.Observer = (*Tracer)(nil)
)
