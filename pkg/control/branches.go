package control

import (
	"github.com/j20-dev/j20/pkg/reactive"
)

// Branch keys used by If and Some.
const (
	BranchElse = 0
	BranchThen = 1
)

// If shows then while cond holds and otherwise when it does not. Either
// render function may be nil to show nothing. Only cond is tracked; the
// branch is re-rendered only when cond flips.
func If[I any](rt *reactive.Runtime, cond func() bool, then, otherwise func() I, host Host[I]) *View[I] {
	source := func() []int {
		if cond() {
			if then == nil {
				return nil
			}
			return []int{BranchThen}
		}
		if otherwise == nil {
			return nil
		}
		return []int{BranchElse}
	}
	return newView(rt, "if", source, func(branch int) I {
		if branch == BranchThen {
			return then()
		}
		return otherwise()
	}, host)
}

// Case is one branch of a Switch.
type Case[I any] struct {
	When   func() bool
	Render func() I
}

// Switch shows the first case whose When holds, or fallback when none does.
// The branch key is the case's position; fallback uses len(cases).
//
// Conditions are evaluated in order and stop at the first match, so only the
// conditions up to the match are tracked.
func Switch[I any](rt *reactive.Runtime, cases []Case[I], fallback func() I, host Host[I]) *View[I] {
	source := func() []int {
		for i, c := range cases {
			if c.When() {
				return []int{i}
			}
		}
		if fallback != nil {
			return []int{len(cases)}
		}
		return nil
	}
	return newView(rt, "switch", source, func(branch int) I {
		if branch == len(cases) {
			return fallback()
		}
		return cases[branch].Render()
	}, host)
}

// Some shows render while value reports a value and none otherwise. render
// receives a derived value tracking the current value, so it is called once
// per transition from absent to present rather than on every change.
func Some[V, I any](rt *reactive.Runtime, value func() (V, bool), render func(v *reactive.Derived[V]) I, none func() I, host Host[I]) *View[I] {
	present := reactive.NewDerived(rt, func() bool {
		_, ok := value()
		return ok
	})
	source := func() []int {
		if present.Get() {
			return []int{BranchThen}
		}
		if none == nil {
			return nil
		}
		return []int{BranchElse}
	}
	v := newView(rt, "some", source, func(branch int) I {
		if branch == BranchElse {
			return none()
		}
		current := reactive.NewDerived(rt, func() V {
			v, _ := value()
			return v
		})
		return render(current)
	}, host)
	v.Owner().OnCleanup(present.Dispose)
	return v
}

// Replace renders value and renders it again from scratch, disposing the
// previous instance, every time value changes.
func Replace[V, I any](rt *reactive.Runtime, value func() V, render func(v V) I, host Host[I]) *View[I] {
	var (
		latest V
		turn   int
	)
	source := func() []int {
		latest = value()
		turn ^= 1
		return []int{turn}
	}
	return newView(rt, "replace", source, func(int) I {
		return render(latest)
	}, host)
}
