package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/scheduler"
)

func newTestTracer(t *testing.T, opts ...TracerOption) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tr := NewTracer(append([]TracerOption{WithTracerProvider(tp)}, opts...)...)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, sr
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracerFlushSpan(t *testing.T) {
	tr, sr := newTestTracer(t, WithAttributes(attribute.String("service", "todo")))

	tr.FlushCompleted(3, 40*time.Millisecond)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "j20.flush" {
		t.Errorf("name=%q, want j20.flush", span.Name())
	}
	if got := span.EndTime().Sub(span.StartTime()); got != 40*time.Millisecond {
		t.Errorf("span duration=%v, want 40ms", got)
	}
	if v, ok := attr(span, "j20.effects.ran"); !ok || v.AsInt64() != 3 {
		t.Errorf("j20.effects.ran=%v, %v", v.Emit(), ok)
	}
	if v, ok := attr(span, "service"); !ok || v.AsString() != "todo" {
		t.Errorf("service=%v, %v", v.Emit(), ok)
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status=%v, want Ok", span.Status().Code)
	}
	if got := span.InstrumentationScope().Name; got != "j20" {
		t.Errorf("tracer name=%q, want j20", got)
	}
}

func TestTracerFailures(t *testing.T) {
	tr, sr := newTestTracer(t)

	tr.EffectFailed("effect title", errors.New("boom"))
	tr.CleanupFailed("effect title", errors.New("cleanup boom"))
	tr.TaskFailed(scheduler.PriorityHigh, errors.New("task boom"))

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	wantNames := []string{"j20.effect", "j20.cleanup", "j20.task"}
	for i, span := range spans {
		if span.Name() != wantNames[i] {
			t.Errorf("span %d name=%q, want %q", i, span.Name(), wantNames[i])
		}
		if span.Status().Code != codes.Error {
			t.Errorf("span %q status=%v, want Error", span.Name(), span.Status().Code)
		}
		events := span.Events()
		if len(events) != 1 || events[0].Name != "exception" {
			t.Errorf("span %q expected one exception event, got %v", span.Name(), events)
		}
	}
	if v, _ := attr(spans[0], "j20.effect.name"); v.AsString() != "effect title" {
		t.Errorf("j20.effect.name=%q", v.AsString())
	}
	if v, _ := attr(spans[2], "j20.task.priority"); v.AsString() != scheduler.PriorityHigh.String() {
		t.Errorf("j20.task.priority=%q", v.AsString())
	}
}

func TestTracerReconcileSpan(t *testing.T) {
	tr, sr := newTestTracer(t)

	tr.ReconcileCompleted(list.Stats{Created: 2, Moved: 1, Retained: 5}, time.Millisecond)
	tr.ReconcileCompleted(list.Stats{Duplicates: 2}, 0)
	tr.DuplicateKeys(2)

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if v, _ := attr(spans[0], "j20.list.created"); v.AsInt64() != 2 {
		t.Errorf("j20.list.created=%v", v.AsInt64())
	}
	if _, ok := attr(spans[0], "j20.list.duplicates"); ok {
		t.Error("expected no duplicates attribute without duplicates")
	}
	if v, ok := attr(spans[1], "j20.list.duplicates"); !ok || v.AsInt64() != 2 {
		t.Errorf("j20.list.duplicates=%v, %v", v.AsInt64(), ok)
	}
}

func TestTracerTaskSpansOptIn(t *testing.T) {
	tr, sr := newTestTracer(t)
	tr.TaskCompleted(scheduler.PriorityNormal, time.Millisecond)
	if got := len(sr.Ended()); got != 0 {
		t.Fatalf("expected no task spans by default, got %d", got)
	}

	tr, sr = newTestTracer(t, WithTaskSpans(true), WithTracerName("app"))
	tr.TaskCompleted(scheduler.PriorityNormal, time.Millisecond)
	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Name() != "j20.task" {
		t.Fatalf("expected one j20.task span, got %d", len(spans))
	}
	if got := spans[0].InstrumentationScope().Name; got != "app" {
		t.Errorf("tracer name=%q, want app", got)
	}
}

func TestTracerBudgetSpan(t *testing.T) {
	tr, sr := newTestTracer(t)
	tr.BudgetExceeded(7)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if v, _ := attr(spans[0], "j20.effects.deferred"); v.AsInt64() != 7 {
		t.Errorf("j20.effects.deferred=%v", v.AsInt64())
	}
	if events := spans[0].Events(); len(events) != 1 || events[0].Name != "budget exceeded" {
		t.Errorf("unexpected events %v", events)
	}
}
