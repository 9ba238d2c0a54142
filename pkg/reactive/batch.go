package reactive

import (
	"time"

	"github.com/j20-dev/j20/pkg/scheduler"
)

// Batch runs fn and defers effect execution until the outermost batch
// returns, then flushes synchronously. Effects invalidated several times in
// the batch run once, with the final values.
//
// If fn panics, effects collected so far are still flushed before the panic
// propagates to the caller.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 && rt.writeDepth == 0 {
			rt.Flush()
		}
	}()
	fn()
}

// BatchValue is Batch for a function returning a value.
func BatchValue[T any](rt *Runtime, fn func() T) T {
	var v T
	rt.Batch(func() { v = fn() })
	return v
}

// Untracked runs fn with the tracking context cleared, so reads inside fn
// create no dependencies. The previous context is restored even if fn panics.
func (rt *Runtime) Untracked(fn func()) {
	prev := rt.setActive(Handle{})
	defer rt.setActive(prev)
	fn()
}

// Untrack is Untracked for a function returning a value.
func Untrack[T any](rt *Runtime, fn func() T) T {
	var v T
	rt.Untracked(func() { v = fn() })
	return v
}

// enqueue appends an effect to the pending list. Effects keep the order in
// which they were first scheduled.
func (rt *Runtime) enqueue(e *Effect) {
	rt.pending = append(rt.pending, e)
}

// afterWrite runs once every dependent of a top-level write was invalidated.
func (rt *Runtime) afterWrite() {
	if len(rt.pending) == 0 || rt.flushing {
		return
	}
	if rt.cfg.Mode == ModeSync {
		rt.Flush()
		return
	}
	rt.scheduleFlush()
}

// scheduleFlush submits one deferred flush to the scheduler.
func (rt *Runtime) scheduleFlush() {
	if rt.flushScheduled {
		return
	}
	rt.flushScheduled = true
	rt.flushTask = rt.sched.AddTask(func() {
		rt.flushScheduled = false
		rt.flushTask = ""
		rt.Flush()
	}, scheduler.PriorityImmediate)
}

// Flush runs every pending effect now, including effects scheduled by the
// effects it runs. It cancels a deferred flush that has not run yet. Calls
// made while a flush is in progress return immediately.
func (rt *Runtime) Flush() {
	if rt.flushing {
		return
	}
	if rt.flushScheduled {
		rt.sched.RemoveTask(rt.flushTask)
		rt.flushScheduled = false
		rt.flushTask = ""
	}
	if len(rt.pending) == 0 {
		return
	}

	rt.flushing = true
	start := time.Now()
	ran := 0
	budget := rt.cfg.MaxEffectRunsPerFlush
	exceeded := false

	for len(rt.pending) > 0 && !exceeded {
		queue := rt.pending
		rt.pending = nil

		for i, e := range queue {
			if e.state != effectScheduled {
				continue
			}
			if budget > 0 && ran >= budget {
				rt.pending = append(queue[i:len(queue):len(queue)], rt.pending...)
				exceeded = true
				break
			}
			e.run()
			ran++
		}
	}

	rt.flushing = false
	rt.flushes++
	rt.observer.FlushCompleted(ran, time.Since(start))

	if exceeded {
		deferred := 0
		for _, e := range rt.pending {
			if e.state == effectScheduled {
				deferred++
			}
		}
		err := ErrBudgetExceeded.WithDetailf("%d effects ran, %d deferred", ran, deferred)
		rt.logger.Warn("reactive: effect budget exceeded", "ran", ran, "deferred", deferred, "error", err)
		rt.observer.BudgetExceeded(deferred)
		rt.scheduleFlush()
	}
}

// Pending returns the number of effects waiting for a flush.
func (rt *Runtime) Pending() int {
	n := 0
	for _, e := range rt.pending {
		if e.state == effectScheduled {
			n++
		}
	}
	return n
}
