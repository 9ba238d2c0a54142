package reactive

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEffectDeferredMode(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := NewCell(env.rt, 0)
	var seen []int
	e := NewEffect(env.rt, func() Cleanup {
		seen = append(seen, c.Get())
		return nil
	})

	c.Set(1)
	c.Set(2)
	if e.Runs() != 1 {
		t.Errorf("expected deferred re-run, got %d runs", e.Runs())
	}
	if !e.Scheduled() || env.rt.Pending() != 1 {
		t.Errorf("expected one pending effect, got %d", env.rt.Pending())
	}
	if env.rt.Scheduler().Len() != 1 {
		t.Errorf("expected a single flush task, got %d", env.rt.Scheduler().Len())
	}

	env.rt.Scheduler().Flush()
	if diff := cmp.Diff([]int{0, 2}, seen); diff != "" {
		t.Errorf("unexpected runs (-want +got):\n%s", diff)
	}
	if env.rt.Stats().Flushes != 1 {
		t.Errorf("expected 1 flush, got %d", env.rt.Stats().Flushes)
	}
}

func TestEffectSyncMode(t *testing.T) {
	env := newTestEnv(t, Config{Mode: ModeSync})
	c := NewCell(env.rt, 0)
	var seen []int
	NewEffect(env.rt, func() Cleanup {
		seen = append(seen, c.Get())
		return nil
	})

	c.Set(1)
	c.Set(2)
	if diff := cmp.Diff([]int{0, 1, 2}, seen); diff != "" {
		t.Errorf("unexpected runs (-want +got):\n%s", diff)
	}
	if env.rt.Scheduler().Len() != 0 {
		t.Errorf("expected sync mode not to use the scheduler")
	}
}

func TestEffectGlitchFree(t *testing.T) {
	for _, mode := range []Mode{ModeDeferred, ModeSync} {
		t.Run(mode.String(), func(t *testing.T) {
			env := newTestEnv(t, Config{Mode: mode})
			a := NewCell(env.rt, 1)
			b := NewCell(env.rt, 2)
			sum := NewDerived(env.rt, func() int { return a.Get() + b.Get() })
			doubled := NewDerived(env.rt, func() int { return a.Get() * 2 })

			var seen [][2]int
			NewEffect(env.rt, func() Cleanup {
				seen = append(seen, [2]int{sum.Get(), doubled.Get()})
				return nil
			})

			env.rt.Batch(func() {
				a.Set(10)
				b.Set(20)
			})
			want := [][2]int{{3, 2}, {30, 20}}
			if diff := cmp.Diff(want, seen); diff != "" {
				t.Errorf("unexpected observations (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEffectDiamondRunsOnce(t *testing.T) {
	env := newTestEnv(t, Config{Mode: ModeSync})
	a := NewCell(env.rt, 1)
	left := NewDerived(env.rt, func() int { return a.Get() + 1 })
	right := NewDerived(env.rt, func() int { return a.Get() * 2 })

	var seen []int
	NewEffect(env.rt, func() Cleanup {
		seen = append(seen, left.Get()+right.Get())
		return nil
	})
	a.Set(5)
	if diff := cmp.Diff([]int{4, 16}, seen); diff != "" {
		t.Errorf("unexpected observations (-want +got):\n%s", diff)
	}
}

func TestEffectOrder(t *testing.T) {
	env := newTestEnv(t, Config{})
	a := NewCell(env.rt, 0)
	b := NewCell(env.rt, 0)
	var order []string
	NewEffect(env.rt, func() Cleanup {
		a.Get()
		order = append(order, "a")
		return nil
	})
	NewEffect(env.rt, func() Cleanup {
		b.Get()
		order = append(order, "b")
		return nil
	})

	order = nil
	b.Set(1)
	a.Set(1)
	env.rt.Flush()
	if diff := cmp.Diff([]string{"b", "a"}, order); diff != "" {
		t.Errorf("expected scheduling order (-want +got):\n%s", diff)
	}
}

func TestEffectCleanup(t *testing.T) {
	env := newTestEnv(t, Config{Mode: ModeSync})
	c := NewCell(env.rt, 0)
	var events []string
	e := NewEffect(env.rt, func() Cleanup {
		v := c.Get()
		events = append(events, "run")
		return func() {
			events = append(events, "cleanup")
			_ = v
		}
	})

	c.Set(1)
	e.Dispose()
	e.Dispose()
	want := []string{"run", "cleanup", "run", "cleanup"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("unexpected lifecycle (-want +got):\n%s", diff)
	}

	c.Set(2)
	if len(events) != 4 {
		t.Errorf("expected disposed effect to stay inert")
	}
	if c.Dependents() != 0 {
		t.Errorf("expected disposal to sever edges, got %d dependents", c.Dependents())
	}
}

func TestEffectCleanupPanic(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := NewCell(env.rt, 0)
	e := NewEffect(env.rt, func() Cleanup {
		if c.Get() == 0 {
			return func() { panic("cleanup boom") }
		}
		return nil
	}, Named("flaky"))

	c.Set(1)
	env.rt.Flush()
	if e.Runs() != 2 {
		t.Errorf("expected body to run after a failing cleanup, got %d runs", e.Runs())
	}
	if diff := cmp.Diff([]string{"effect flaky"}, env.obs.cleanupFailed); diff != "" {
		t.Errorf("unexpected cleanup failures (-want +got):\n%s", diff)
	}
	if !errors.Is(env.obs.errs[0], ErrCleanupPanic) {
		t.Errorf("expected ErrCleanupPanic, got %v", env.obs.errs[0])
	}
	if !strings.Contains(env.logs.String(), "effect cleanup panicked") {
		t.Errorf("expected cleanup failure to be logged")
	}
}

func TestEffectPanicIsolated(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := NewCell(env.rt, 0)
	NewEffect(env.rt, func() Cleanup {
		if c.Get() > 0 {
			panic("render failed")
		}
		return nil
	}, Named("broken"))
	var seen []int
	NewEffect(env.rt, func() Cleanup {
		seen = append(seen, c.Get())
		return nil
	})

	c.Set(1)
	env.rt.Flush()
	if diff := cmp.Diff([]int{0, 1}, seen); diff != "" {
		t.Errorf("expected sibling effect to run (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"effect broken"}, env.obs.effectFailed); diff != "" {
		t.Errorf("unexpected effect failures (-want +got):\n%s", diff)
	}
	if !errors.Is(env.obs.errs[0], ErrEffectPanic) {
		t.Errorf("expected ErrEffectPanic, got %v", env.obs.errs[0])
	}
	if c.Dependents() != 2 {
		t.Errorf("expected failed effect to keep the sources it read, got %d", c.Dependents())
	}
	if env.rt.Tracking() {
		t.Errorf("expected tracking context restored")
	}

	c.Set(2)
	env.rt.Flush()
	if len(env.obs.effectFailed) != 2 {
		t.Errorf("expected failed effect to be re-run on the next change")
	}
}

func TestEffectInitialPanic(t *testing.T) {
	env := newTestEnv(t, Config{})
	e := NewEffect(env.rt, func() Cleanup {
		panic(errors.New("boom"))
	})
	if e.Runs() != 1 || e.Disposed() {
		t.Errorf("expected effect created despite a failing first run")
	}
	if len(env.obs.effectFailed) != 1 {
		t.Errorf("expected first-run failure to be reported")
	}
}

func TestEffectDisposedMidFlush(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := NewCell(env.rt, 0)
	var second *Effect
	NewEffect(env.rt, func() Cleanup {
		if c.Get() > 0 && second != nil {
			second.Dispose()
		}
		return nil
	})
	second = NewEffect(env.rt, func() Cleanup {
		c.Get()
		return nil
	})

	c.Set(1)
	env.rt.Flush()
	if second.Runs() != 1 {
		t.Errorf("expected effect disposed mid-flush to be skipped, got %d runs", second.Runs())
	}
	checkEdges(t, env.rt)
}

func TestEffectWritesDuringFlush(t *testing.T) {
	env := newTestEnv(t, Config{})
	src := NewCell(env.rt, 1)
	mirror := NewCell(env.rt, 0)
	NewEffect(env.rt, func() Cleanup {
		mirror.Set(src.Get() * 100)
		return nil
	})
	var seen []int
	NewEffect(env.rt, func() Cleanup {
		seen = append(seen, mirror.Get())
		return nil
	})

	src.Set(2)
	env.rt.Flush()
	if diff := cmp.Diff([]int{100, 200}, seen); diff != "" {
		t.Errorf("expected cascade in one flush (-want +got):\n%s", diff)
	}
	if env.rt.Scheduler().Len() != 0 {
		t.Errorf("expected no leftover flush task")
	}
}

func TestEffectBudget(t *testing.T) {
	env := newTestEnv(t, Config{MaxEffectRunsPerFlush: 5})
	x := NewCell(env.rt, 0)
	e := NewEffect(env.rt, func() Cleanup {
		x.Set(x.Get() + 1)
		return nil
	}, Named("loop"))

	env.rt.Flush()
	if e.Runs() != 6 {
		t.Errorf("expected 1 initial run and 5 flushed runs, got %d", e.Runs())
	}
	if diff := cmp.Diff([]int{1}, env.obs.budgetExceeded); diff != "" {
		t.Errorf("unexpected budget events (-want +got):\n%s", diff)
	}
	if env.rt.Scheduler().Len() != 1 {
		t.Errorf("expected the remainder deferred to a new turn")
	}
	if !strings.Contains(env.logs.String(), "effect budget exceeded") {
		t.Errorf("expected budget warning in logs")
	}

	e.Dispose()
	env.rt.Scheduler().Flush()
	if e.Runs() != 6 {
		t.Errorf("expected disposed effect not to run again")
	}
}

func TestEffectNestedScope(t *testing.T) {
	env := newTestEnv(t, Config{})
	outer := NewCell(env.rt, 0)
	inner := NewCell(env.rt, 0)
	innerRuns := 0
	NewEffect(env.rt, func() Cleanup {
		outer.Get()
		NewEffect(env.rt, func() Cleanup {
			inner.Get()
			innerRuns++
			return nil
		})
		return nil
	})

	outer.Set(1)
	env.rt.Flush()
	if got := env.rt.Stats().Reactions; got != 2 {
		t.Errorf("expected inner effect of the previous run disposed, got %d reactions", got)
	}
	if inner.Dependents() != 1 {
		t.Errorf("expected one live inner effect, got %d", inner.Dependents())
	}

	inner.Set(1)
	env.rt.Flush()
	if innerRuns != 3 {
		t.Errorf("expected 3 inner runs, got %d", innerRuns)
	}
}

func TestEffectDisposedWithOwner(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := NewCell(env.rt, 0)
	owner := NewOwner(env.rt, nil)
	var e *Effect
	env.rt.RunWithOwner(owner, func() {
		e = NewEffect(env.rt, func() Cleanup {
			c.Get()
			return nil
		})
	})

	owner.Dispose()
	if !e.Disposed() {
		t.Errorf("expected effect disposed with its owner")
	}
	if c.Dependents() != 0 {
		t.Errorf("expected edges severed")
	}
}

func TestEffectDefaultBudget(t *testing.T) {
	env := newTestEnv(t, Config{})
	x := NewCell(env.rt, 0)
	e := NewEffect(env.rt, func() Cleanup {
		x.Set(x.Get() + 1)
		return nil
	})

	env.rt.Flush()
	if e.Runs() != 1+DefaultMaxEffectRunsPerFlush {
		t.Errorf("expected the default budget to stop the loop, got %d runs", e.Runs())
	}
	if len(env.obs.budgetExceeded) != 1 {
		t.Errorf("expected one budget event, got %v", env.obs.budgetExceeded)
	}
	e.Dispose()
}

func TestEffectBudgetDisabled(t *testing.T) {
	env := newTestEnv(t, Config{MaxEffectRunsPerFlush: -1})
	const limit = 2 * DefaultMaxEffectRunsPerFlush
	x := NewCell(env.rt, 0)
	e := NewEffect(env.rt, func() Cleanup {
		if v := x.Get(); v < limit {
			x.Set(v + 1)
		}
		return nil
	})

	env.rt.Flush()
	if x.Peek() != limit {
		t.Errorf("expected the loop to run to %d, got %d", limit, x.Peek())
	}
	if len(env.obs.budgetExceeded) != 0 {
		t.Errorf("expected no budget events, got %v", env.obs.budgetExceeded)
	}
	e.Dispose()
}

func TestEffectSelfDisposeRunsCleanup(t *testing.T) {
	env := newTestEnv(t, Config{Mode: ModeSync})
	c := NewCell(env.rt, 0)
	var cleanups []int
	var e *Effect
	e = NewEffect(env.rt, func() Cleanup {
		v := c.Get()
		if v == 1 {
			e.Dispose()
		}
		return func() { cleanups = append(cleanups, v) }
	})

	c.Set(1)
	if !e.Disposed() {
		t.Fatalf("expected effect disposed by its own body")
	}
	if diff := cmp.Diff([]int{0, 1}, cleanups); diff != "" {
		t.Errorf("unexpected cleanups (-want +got):\n%s", diff)
	}
	c.Set(2)
	if len(cleanups) != 2 {
		t.Errorf("expected no run after dispose, got cleanups %v", cleanups)
	}
	checkEdges(t, env.rt)
}
