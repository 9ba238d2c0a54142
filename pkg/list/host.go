package list

import (
	"time"

	"github.com/j20-dev/j20/pkg/reactive"
)

// Host applies reconciliation to the rendering layer's tree. A nil before
// means the end of the list.
//
// Remove is called after the entry's owner was disposed, so nothing owned by
// the instance can run against a detached node.
type Host[T, I any] interface {
	Insert(e *Entry[T, I], before *Entry[T, I])
	Move(e *Entry[T, I], before *Entry[T, I])
	Remove(e *Entry[T, I])
}

// Entry is one rendered item of a list.
type Entry[T, I any] struct {
	Key  any
	Item T

	// Index holds the entry's current position. Render functions read it to
	// react to moves.
	Index *reactive.Cell[int]

	Instance I

	// Owner holds the effects and child owners created by the render function.
	Owner *reactive.Owner
}

// Stats counts the work done by one reconciliation.
type Stats struct {
	Created    int `json:"created"`
	Removed    int `json:"removed"`
	Moved      int `json:"moved"`
	Retained   int `json:"retained"`
	Duplicates int `json:"duplicates"`
}

// Observer receives reconciliation events.
type Observer interface {
	ReconcileCompleted(stats Stats, elapsed time.Duration)

	// DuplicateKeys is called when the new sequence repeats keys.
	// n is the number of distinct keys seen more than once.
	DuplicateKeys(n int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ReconcileCompleted(Stats, time.Duration) {}
func (NopObserver) DuplicateKeys(int)                       {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) ReconcileCompleted(stats Stats, elapsed time.Duration) {
	for _, o := range m {
		o.ReconcileCompleted(stats, elapsed)
	}
}

func (m multiObserver) DuplicateKeys(n int) {
	for _, o := range m {
		o.DuplicateKeys(n)
	}
}
