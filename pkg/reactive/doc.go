// Package reactive implements fine-grained reactive state propagation:
// cells, derived values and effects connected by an automatically tracked
// dependency graph.
//
// # Primitives
//
//   - Cell: a mutable value. Writing an equal value is a no-op.
//   - Derived: a lazy, memoized computation. A change in a source marks it
//     dirty; it recomputes on the next read.
//   - Effect: a side effect that re-runs when something it read changes.
//
// Dependencies are collected while a derived value or effect runs: every Get
// records an edge from the cell or derived value read to the running
// reaction. Edges are rebuilt on each run, so sources that are no longer read
// stop notifying.
//
//	rt := reactive.New(reactive.Config{})
//	a := reactive.NewCell(rt, 1)
//	b := reactive.NewCell(rt, 2)
//	sum := reactive.NewDerived(rt, func() int { return a.Get() + b.Get() })
//
//	reactive.NewEffect(rt, func() reactive.Cleanup {
//	    fmt.Println("sum:", sum.Get())
//	    return nil
//	})
//
//	rt.Batch(func() {
//	    a.Set(10)
//	    b.Set(20)
//	})
//	// prints "sum: 30" once
//
// # Scheduling
//
// In the default ModeDeferred, effects invalidated by writes are collected and
// re-run together in one flush, submitted to the runtime's scheduler after the
// current turn. Drive the scheduler (Flush or Run) to execute it, or call
// Runtime.Flush directly. Batch flushes synchronously when the outermost batch
// returns. ModeSync re-runs effects at the end of every top-level write.
//
// # Ownership
//
// Owners group effects, derived values and cleanup hooks so a rendering layer
// can tear a subtree down as a unit. Owners also carry Context values.
//
// # Errors
//
// Reading a disposed derived value and circular dependencies between derived
// values are programming errors: Derived.Get panics with an error matching
// ErrDisposed or ErrCircular (Derived.Value returns it instead). Panics in
// effect bodies and cleanups are recovered, logged and reported to the
// Observer, so one failing effect never stops the others.
//
// A Runtime is single-threaded: use it from one goroutine.
package reactive
