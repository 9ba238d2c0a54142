// Package scheduler is a priority task queue for cooperative, single-goroutine
// runtimes.
//
// Tasks are submitted with a Priority. Priorities form a strict total order:
//
//	PrioritySync > PriorityBatchSync > PriorityImmediate > PriorityHigh > PriorityNormal > PriorityLow
//
// PrioritySync tasks run inside AddTask. PriorityBatchSync tasks wait for
// FlushSync. All other priorities are asynchronous and run on Flush or on the
// goroutine running Run, highest priority first and in creation order within a
// priority.
//
// AddTask and RemoveTask may be called from any goroutine. Callbacks only run
// on the goroutine that calls Flush, FlushSync or Run, which makes the
// scheduler suitable as the event loop of a reactive runtime:
//
//	s := scheduler.New(scheduler.Config{})
//	s.AddTask(func() { fmt.Println("later") }, scheduler.PriorityNormal)
//	s.AddTask(func() { fmt.Println("first") }, scheduler.PriorityImmediate)
//	s.Flush() // prints "first", then "later"
package scheduler
