// Package control provides conditional rendering constructs built on keyed
// lists: If, Switch, Some and Replace.
//
// Each construct is a list of at most one entry whose key names the branch
// being shown. When the branch changes, the old branch's owner is disposed
// and its instance detached before the new branch is rendered in its place.
// When it does not, nothing is re-rendered.
package control

import (
	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
)

// Host receives the branch instances. Entry keys are branch numbers.
type Host[I any] = list.Host[int, I]

// View is a rendered conditional construct.
type View[I any] struct {
	l       *list.List[int, I]
	renders int
}

func newView[I any](rt *reactive.Runtime, name string, source func() []int, render func(branch int) I, host Host[I]) *View[I] {
	v := &View[I]{}
	v.l = list.For(rt, source, list.Reconciler[int, I]{
		Render: func(branch int, _ *reactive.Cell[int]) I {
			v.renders++
			return render(branch)
		},
		Host: host,
		Name: name,
	})
	return v
}

// Current returns the instance shown, if any.
func (v *View[I]) Current() (I, bool) {
	entries := v.l.Entries()
	if len(entries) == 0 {
		var zero I
		return zero, false
	}
	return entries[0].Instance, true
}

// Branch returns the key of the branch shown, or -1.
func (v *View[I]) Branch() int {
	entries := v.l.Entries()
	if len(entries) == 0 {
		return -1
	}
	return entries[0].Key.(int)
}

// Renders returns how many times a branch was rendered.
func (v *View[I]) Renders() int {
	return v.renders
}

// Owner returns the construct's owner.
func (v *View[I]) Owner() *reactive.Owner {
	return v.l.Owner()
}

// Dispose disposes the shown branch and stops tracking the condition.
func (v *View[I]) Dispose() {
	v.l.Dispose()
}
