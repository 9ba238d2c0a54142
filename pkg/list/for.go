package list

import (
	"github.com/j20-dev/j20/pkg/reactive"
)

// List is a keyed list kept in sync with a reactive source.
type List[T, I any] struct {
	rt      *reactive.Runtime
	r       Reconciler[T, I]
	owner   *reactive.Owner
	effect  *reactive.Effect
	entries []*Entry[T, I]
	last    Stats
	passes  int
}

// For renders the sequence returned by source and reconciles it again every
// time a cell or derived value read by source changes. Only source is
// tracked: reads made by key and render functions do not re-run the list.
//
// The list owns an Owner, a child of r.Owner (or of the current owner), that
// holds the list's effect and every entry's owner. Disposing it, directly or
// through a parent, disposes the entries bottom-up and then detaches their
// instances from the host.
func For[T, I any](rt *reactive.Runtime, source func() []T, r Reconciler[T, I]) *List[T, I] {
	parent := r.Owner
	if parent == nil {
		parent = rt.Owner()
	}
	l := &List[T, I]{
		rt:    rt,
		owner: reactive.NewOwner(rt, parent),
	}
	r.Owner = l.owner
	l.r = r
	l.owner.OnCleanup(l.detach)

	var opts []reactive.Option
	if r.Name != "" {
		opts = append(opts, reactive.Named("list "+r.Name))
	}
	rt.RunWithOwner(l.owner, func() {
		l.effect = reactive.NewEffect(rt, func() reactive.Cleanup {
			items := source()
			rt.Untracked(func() {
				res := l.r.Reconcile(rt, l.entries, items)
				l.entries = res.Entries
				l.last = res.Stats
				l.passes++
			})
			return nil
		}, opts...)
	})
	return l
}

// Entries returns a copy of the current entries in list order.
func (l *List[T, I]) Entries() []*Entry[T, I] {
	out := make([]*Entry[T, I], len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *List[T, I]) Len() int {
	return len(l.entries)
}

// Owner returns the list's owner.
func (l *List[T, I]) Owner() *reactive.Owner {
	return l.owner
}

// LastStats returns the stats of the most recent reconciliation.
func (l *List[T, I]) LastStats() Stats {
	return l.last
}

// Passes returns the number of reconciliations run so far.
func (l *List[T, I]) Passes() int {
	return l.passes
}

// Dispose disposes the list and all of its entries. It is idempotent.
func (l *List[T, I]) Dispose() {
	l.owner.Dispose()
}

// detach runs after the entries' owners were disposed.
func (l *List[T, I]) detach() {
	entries := l.entries
	l.entries = nil
	if l.r.Host == nil {
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		l.r.Host.Remove(entries[i])
	}
}
