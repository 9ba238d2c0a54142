// Package rtest provides testing helpers for reactive code and keyed lists.
//
// # Runtime
//
// NewRuntime creates a runtime whose log output goes to the test log:
//
//	rt := rtest.NewRuntime(t, reactive.ModeSync)
//
// # Recording Host
//
// Host is a list.Host that keeps the attached instances in order and records
// every call, so tests can assert both on the final order and on the work
// done to get there:
//
//	host := rtest.NewHost[Todo, string]()
//	rows := list.For(rt, todos.Get, list.Reconciler[Todo, string]{
//	    Key:    func(t Todo) any { return t.ID },
//	    Render: renderTodo,
//	    Host:   host,
//	})
//	todos.Set(reordered)
//	rtest.ExpectKeys(t, host, 3, 1, 2)
//	rtest.ExpectConsistent(t, host, rows.Entries())
//
// Host flags misuse it can observe: moving or removing an instance that is
// not attached, inserting one twice, anchoring on a detached instance, and
// removing an instance whose owner was not disposed first.
package rtest
