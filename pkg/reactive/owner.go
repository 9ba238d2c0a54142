package reactive

import (
	jerrors "github.com/j20-dev/j20/internal/errors"
)

// Owner is a disposal scope: a node of the rendering layer's instance tree
// that owns effects, derived values, cleanup hooks and child owners.
// Disposing an Owner tears all of them down as a unit, bottom-up.
//
// Effects and derived values created while an Owner is current (see
// RunWithOwner) register themselves on it.
type Owner struct {
	id     uint64
	rt     *Runtime
	parent *Owner

	children []*Owner
	cleanups []func()
	values   map[any]any

	disposed bool
}

// NewOwner creates an owner. If parent is non-nil the owner is registered as
// its child and is disposed with it.
func NewOwner(rt *Runtime, parent *Owner) *Owner {
	rt.ownerSeq++
	o := &Owner{
		id:     rt.ownerSeq,
		rt:     rt,
		parent: parent,
	}
	if parent != nil {
		if parent.disposed {
			o.disposed = true
			return o
		}
		parent.children = append(parent.children, o)
	}
	return o
}

// ID returns the owner's identifier.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// Children returns a copy of the owner's children in creation order.
func (o *Owner) Children() []*Owner {
	out := make([]*Owner, len(o.children))
	copy(out, o.children)
	return out
}

// Disposed reports whether the owner has been disposed.
func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup registers fn to run when the owner is disposed.
// If the owner is already disposed fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		o.runHook(fn)
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// Dispose tears the owner down: children first (last created first, each of
// them bottom-up), then the owner's own hooks in reverse registration order.
// A panicking hook is logged and reported and does not stop the others.
// Dispose is idempotent.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		// Detach first so the child does not edit the slice we iterate.
		children[i].parent = nil
		children[i].Dispose()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		o.runHook(cleanups[i])
	}

	o.values = nil
}

func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Owner) runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := errorFromPanic(jerrors.CodeOwnerHookPanic, r).WithDetailf("owner %d", o.id)
			o.rt.logger.Error("reactive: owner cleanup panicked", "owner", o.id, "error", err)
			o.rt.observer.CleanupFailed("owner", err)
		}
	}()
	fn()
}

// setOwner installs o as the current owner and returns the previous one.
func (rt *Runtime) setOwner(o *Owner) *Owner {
	old := rt.owner
	rt.owner = o
	return old
}

// Owner returns the current owner, or nil.
func (rt *Runtime) Owner() *Owner {
	return rt.owner
}

// RunWithOwner runs fn with o as the current owner.
func (rt *Runtime) RunWithOwner(o *Owner, fn func()) {
	prev := rt.setOwner(o)
	defer rt.setOwner(prev)
	fn()
}

// OnCleanup registers fn on the current owner. Without a current owner fn
// is never called.
func (rt *Runtime) OnCleanup(fn func()) {
	if rt.owner != nil {
		rt.owner.OnCleanup(fn)
	}
}
