package reactive

import (
	jerrors "github.com/j20-dev/j20/internal/errors"
)

// Cleanup is returned by an effect body. It runs before the next execution
// of the effect and when the effect is disposed.
type Cleanup func()

type effectState uint8

const (
	effectActive effectState = iota
	effectScheduled
	effectDisposed
)

// Effect is a terminal subscriber: it runs a side effect and re-runs after any
// cell or derived value it read changes. Nothing can depend on an Effect.
//
// Effects and owners created while the body runs belong to the run and are
// disposed before the next run.
type Effect struct {
	rt      *Runtime
	h       Handle
	fn      func() Cleanup
	cleanup Cleanup
	state   effectState
	owner   *Owner
	scope   *Owner
	name    string
	runs    uint64
}

// NewEffect creates an effect and runs it once immediately to collect its
// dependencies. If an owner is current, disposing the owner disposes the
// effect.
//
// A panic in the body, on this first run or later, is recovered, logged and
// reported to the runtime's Observer; the effect stays subscribed to the
// sources it read before panicking.
func NewEffect(rt *Runtime, fn func() Cleanup, opts ...Option) *Effect {
	o := applyOptions(opts)
	e := &Effect{
		rt:    rt,
		fn:    fn,
		owner: rt.owner,
		name:  o.name,
	}
	h, n := rt.graph.alloc(kindEffect)
	n.target = e
	e.h = h

	if e.owner != nil {
		e.owner.OnCleanup(e.Dispose)
	}

	e.run()
	return e
}

// Dispose removes every edge of the effect, runs its final cleanup and makes
// it inert: later notifications are ignored. It is idempotent.
func (e *Effect) Dispose() {
	if e.state == effectDisposed {
		return
	}
	e.state = effectDisposed
	e.rt.graph.detach(e.h)
	e.rt.graph.release(e.h)
	if e.scope != nil {
		e.scope.Dispose()
		e.scope = nil
	}
	e.runCleanup()
	e.fn = nil
}

// Disposed reports whether Dispose was called.
func (e *Effect) Disposed() bool {
	return e.state == effectDisposed
}

// Scheduled reports whether the effect is waiting for a flush.
func (e *Effect) Scheduled() bool {
	return e.state == effectScheduled
}

// Runs returns how many times the body has been executed.
func (e *Effect) Runs() uint64 {
	return e.runs
}

// invalidate schedules the effect. Scheduling an already scheduled or
// disposed effect is a no-op.
func (e *Effect) invalidate() {
	if e.state != effectActive {
		return
	}
	e.state = effectScheduled
	e.rt.enqueue(e)
}

// run executes the body in a fresh tracking pass.
func (e *Effect) run() {
	if e.state == effectDisposed {
		return
	}
	e.state = effectActive

	e.runCleanup()
	if e.scope != nil {
		e.scope.Dispose()
		e.scope = nil
	}
	if e.state == effectDisposed {
		return
	}

	rt := e.rt
	e.scope = NewOwner(rt, e.owner)
	rt.graph.beginPass(e.h)
	prev := rt.setActive(e.h)
	prevOwner := rt.setOwner(e.scope)

	defer func() {
		rt.setOwner(prevOwner)
		rt.setActive(prev)
		rt.graph.endPass(e.h)
		if r := recover(); r != nil {
			err := errorFromPanic(jerrors.CodeEffectPanic, r).WithDetail(e.label())
			rt.logger.Error("reactive: effect panicked", "effect", e.label(), "error", err)
			rt.observer.EffectFailed(e.label(), err)
		}
		// The body disposed its own effect after Dispose ran the old cleanup.
		if e.state == effectDisposed {
			e.runCleanup()
		}
	}()

	e.runs++
	e.cleanup = e.fn()
}

// runCleanup calls the pending cleanup once, isolating panics.
func (e *Effect) runCleanup() {
	c := e.cleanup
	if c == nil {
		return
	}
	e.cleanup = nil

	defer func() {
		if r := recover(); r != nil {
			err := errorFromPanic(jerrors.CodeCleanupPanic, r).WithDetail(e.label())
			e.rt.logger.Error("reactive: effect cleanup panicked", "effect", e.label(), "error", err)
			e.rt.observer.CleanupFailed(e.label(), err)
		}
	}()
	c()
}

func (e *Effect) label() string {
	if e.name != "" {
		return "effect " + e.name
	}
	return "effect " + e.h.String()
}

var _ reaction = (*Effect)(nil)
