package reactive

import "github.com/j20-dev/j20/pkg/scheduler"

// OnMount runs fn after the current synchronous turn, once the rendering layer
// has attached the current owner's nodes. It is submitted to the scheduler at
// PriorityHigh, behind the deferred effect flush.
//
// The cleanup fn returns runs when the owner is disposed. If the owner is
// disposed before fn ran, fn never runs.
func (rt *Runtime) OnMount(fn func() Cleanup) {
	owner := rt.owner
	var (
		cleanup  Cleanup
		mounted  bool
		disposed bool
	)

	id := rt.sched.AddTask(func() {
		if disposed {
			return
		}
		mounted = true
		prev := rt.setOwner(owner)
		defer rt.setOwner(prev)
		rt.Untracked(func() { cleanup = fn() })
	}, scheduler.PriorityHigh)

	if owner == nil {
		return
	}
	owner.OnCleanup(func() {
		disposed = true
		if !mounted {
			rt.sched.RemoveTask(id)
			return
		}
		if cleanup != nil {
			cleanup()
		}
	})
}
