package list

import (
	"fmt"
	"time"

	jerrors "github.com/j20-dev/j20/internal/errors"
	"github.com/j20-dev/j20/pkg/reactive"
)

// KeyFunc extracts the key identifying an item across reconciliations.
type KeyFunc[T any] func(item T) any

// RenderFunc renders a new item. index holds the item's position and is
// updated whenever the item moves.
type RenderFunc[T, I any] func(item T, index *reactive.Cell[int]) I

// Reconciler holds the functions and collaborators of one keyed list.
type Reconciler[T, I any] struct {
	// Key extracts item keys. If nil, the item itself is the key.
	Key KeyFunc[T]

	Render RenderFunc[T, I]

	// Host receives inserts, moves and removals. Optional.
	Host Host[T, I]

	// Owner is the parent of every entry's owner. If nil, the runtime's
	// current owner is used.
	Owner *reactive.Owner

	// Observer receives reconciliation events. Optional.
	Observer Observer

	// Name identifies the list in log records.
	Name string
}

// Result is the outcome of one reconciliation.
type Result[T, I any] struct {
	// Entries follow the order of the new sequence.
	Entries []*Entry[T, I]

	// Ops lists the changes in the order they were applied.
	Ops []Op

	Stats

	// DuplicateKeys lists the keys the new sequence repeats, in order of
	// first occurrence.
	DuplicateKeys []any

	// Err is set when items without a Key function could not act as their
	// own key. Those items are rendered again on every pass.
	Err error
}

// Reconcile reconciles old against next with the given key and render
// functions. See Reconciler.Reconcile.
func Reconcile[T, I any](rt *reactive.Runtime, old []*Entry[T, I], next []T, key KeyFunc[T], render RenderFunc[T, I]) Result[T, I] {
	r := Reconciler[T, I]{Key: key, Render: render}
	return r.Reconcile(rt, old, next)
}

// Reconcile turns the entries rendered for the previous sequence into entries
// for next. Entries whose key is still present are reused with their
// instance; the others are disposed and detached. Items without an entry are
// rendered untracked, under a new child owner, with a fresh index cell.
//
// Keys shared by several items are reported but never fatal: every item is
// rendered, and old entries are matched to the repeated slots in order.
//
// Without a Key function, comparable items are their own key and slices,
// maps and funcs are keyed by reference (see Ref).
//
// If Render panics, the entries rendered so far are disposed and the panic
// propagates. The host and the old entries are left as they were, so the
// next pass can start from old again.
func (r *Reconciler[T, I]) Reconcile(rt *reactive.Runtime, old []*Entry[T, I], next []T) Result[T, I] {
	start := time.Now()

	p := &pass[T, I]{
		r:       r,
		rt:      rt,
		parent:  r.Owner,
		next:    next,
		keys:    make([]any, len(next)),
		entries: make([]*Entry[T, I], len(next)),
	}
	if p.parent == nil {
		p.parent = rt.Owner()
	}
	var unkeyedType any
	unkeyedCount := 0
	for i, item := range next {
		raw := r.keyOf(item)
		k, ok := identityKey(raw)
		if !ok {
			if unkeyedCount == 0 {
				unkeyedType = raw
			}
			unkeyedCount++
			k = &unkeyed{pos: i}
		}
		p.keys[i] = k
	}
	if unkeyedCount > 0 {
		p.res.Err = jerrors.New(jerrors.CodeUnkeyedItem).
			WithDetailf("%d items of type %T", unkeyedCount, unkeyedType)
		rt.Logger().Error("list: items without identity",
			"list", r.Name,
			"count", unkeyedCount,
			"error", p.res.Err)
	}

	if dups := duplicateKeys(p.keys); len(dups) > 0 {
		p.res.DuplicateKeys = dups
		p.res.Duplicates = len(dups)
		err := jerrors.New(jerrors.CodeDuplicateKeys).WithDetailf("keys %v", dups)
		rt.Logger().Warn("list: duplicate keys",
			"list", r.Name,
			"count", len(dups),
			"error", err)
		r.observer().DuplicateKeys(len(dups))
	}

	p.run(old)

	refresh := func() {
		for i, e := range p.entries {
			e.Index.Set(i)
		}
	}
	// A sync runtime would otherwise flush after every index write.
	if rt.Mode() == reactive.ModeSync {
		rt.Batch(refresh)
	} else {
		refresh()
	}

	p.res.Entries = p.entries
	p.res.Retained = len(p.entries) - p.res.Created
	r.observer().ReconcileCompleted(p.res.Stats, time.Since(start))
	return p.res
}

func (r *Reconciler[T, I]) keyOf(item T) any {
	if r.Key == nil {
		return any(item)
	}
	return r.Key(item)
}

func (r *Reconciler[T, I]) observer() Observer {
	if r.Observer == nil {
		return NopObserver{}
	}
	return r.Observer
}

// pass is the state of one reconciliation.
type pass[T, I any] struct {
	r      *Reconciler[T, I]
	rt     *reactive.Runtime
	parent *reactive.Owner

	next    []T
	keys    []any
	entries []*Entry[T, I]
	res     Result[T, I]

	// Host changes wait until every new item rendered.
	steps   []step[T, I]
	created []*Entry[T, I]
}

// step is one host change of a pass.
type step[T, I any] struct {
	kind   OpKind
	e      *Entry[T, I]
	before *Entry[T, I]
}

// run plans the pass, then applies it. Only planning calls Render; a panic
// there rolls the pass back before any old entry or the host was touched.
func (p *pass[T, I]) run(old []*Entry[T, I]) {
	planned := false
	defer func() {
		if !planned {
			p.rollback()
		}
	}()
	p.plan(old)
	planned = true
	p.commit()
}

func (p *pass[T, I]) rollback() {
	for i := len(p.created) - 1; i >= 0; i-- {
		p.created[i].Owner.Dispose()
	}
	p.rt.Logger().Warn("list: render panicked, pass rolled back",
		"list", p.r.Name,
		"disposed", len(p.created))
}

// commit applies the planned steps in order. Removed entries are disposed
// before they are detached.
func (p *pass[T, I]) commit() {
	host := p.r.Host
	for _, s := range p.steps {
		switch s.kind {
		case OpCreate:
			if host != nil {
				host.Insert(s.e, s.before)
			}
		case OpMove:
			if host != nil {
				host.Move(s.e, s.before)
			}
		case OpRemove:
			if s.e.Owner != nil {
				s.e.Owner.Dispose()
			}
			if host != nil {
				host.Remove(s.e)
			}
		}
	}
	for n, e := range p.entries {
		e.Item = p.next[n]
	}
}

func (p *pass[T, I]) plan(old []*Entry[T, I]) {
	i := 0
	e1 := len(old) - 1
	e2 := len(p.next) - 1

	// Common prefix.
	for i <= e1 && i <= e2 && old[i].Key == p.keys[i] {
		p.retain(i, old[i])
		i++
	}

	// Common suffix.
	for i <= e1 && i <= e2 && old[e1].Key == p.keys[e2] {
		p.retain(e2, old[e1])
		e1--
		e2--
	}

	switch {
	case i > e1:
		// Only insertions left, all in front of the first suffix entry.
		before := p.at(e2 + 1)
		for k := i; k <= e2; k++ {
			p.create(k, before)
		}
	case i > e2:
		// Only removals left.
		for k := i; k <= e1; k++ {
			p.remove(k, old[k])
		}
	default:
		p.reorder(old, i, e1, e2)
	}
}

// reorder handles the unknown middle range old[s:e1+1] against next[s:e2+1].
func (p *pass[T, I]) reorder(old []*Entry[T, I], s, e1, e2 int) {
	toPatch := e2 - s + 1

	// Repeated keys map to several slots, claimed in order.
	slots := make(map[any][]int, toPatch)
	for k := s; k <= e2; k++ {
		slots[p.keys[k]] = append(slots[p.keys[k]], k)
	}

	// sources[k] is the old index + 1 of the entry reused at slot s+k,
	// or 0 if the slot needs a new entry.
	sources := make([]int, toPatch)
	patched := 0
	moved := false
	maxSoFar := 0

	for k := s; k <= e1; k++ {
		e := old[k]
		if patched >= toPatch {
			p.remove(k, e)
			continue
		}
		free := slots[e.Key]
		if len(free) == 0 {
			p.remove(k, e)
			continue
		}
		n := free[0]
		slots[e.Key] = free[1:]

		sources[n-s] = k + 1
		if n >= maxSoFar {
			maxSoFar = n
		} else {
			moved = true
		}
		p.retain(n, e)
		patched++
	}

	var stable []int
	if moved {
		stable = increasingSubsequence(sources)
	}
	j := len(stable) - 1

	// Back to front, so every anchor is already in its final place.
	for k := toPatch - 1; k >= 0; k-- {
		n := s + k
		before := p.at(n + 1)
		switch {
		case sources[k] == 0:
			p.create(n, before)
		case moved:
			if j < 0 || k != stable[j] {
				p.move(n, before)
			} else {
				j--
			}
		}
	}
}

// at returns the entry at position n of the new sequence, or nil past the end.
func (p *pass[T, I]) at(n int) *Entry[T, I] {
	if n >= len(p.entries) {
		return nil
	}
	return p.entries[n]
}

// retain reuses e at position n. Its item is replaced on commit.
func (p *pass[T, I]) retain(n int, e *Entry[T, I]) {
	p.entries[n] = e
}

func (p *pass[T, I]) create(n int, before *Entry[T, I]) {
	item := p.next[n]
	e := &Entry[T, I]{
		Key:   p.keys[n],
		Item:  item,
		Index: reactive.NewCell(p.rt, n),
		Owner: reactive.NewOwner(p.rt, p.parent),
	}
	p.created = append(p.created, e)
	p.rt.RunWithOwner(e.Owner, func() {
		p.rt.Untracked(func() {
			e.Instance = p.r.Render(item, e.Index)
		})
	})
	p.entries[n] = e

	p.steps = append(p.steps, step[T, I]{kind: OpCreate, e: e, before: before})
	p.res.Ops = append(p.res.Ops, placement(OpCreate, e.Key, n, before))
	p.res.Created++
}

func (p *pass[T, I]) move(n int, before *Entry[T, I]) {
	e := p.entries[n]
	p.steps = append(p.steps, step[T, I]{kind: OpMove, e: e, before: before})
	p.res.Ops = append(p.res.Ops, placement(OpMove, e.Key, n, before))
	p.res.Moved++
}

func (p *pass[T, I]) remove(k int, e *Entry[T, I]) {
	p.steps = append(p.steps, step[T, I]{kind: OpRemove, e: e})
	p.res.Ops = append(p.res.Ops, Op{Kind: OpRemove, Key: e.Key, Index: k})
	p.res.Removed++
}

func placement[T, I any](kind OpKind, key any, n int, before *Entry[T, I]) Op {
	op := Op{Kind: kind, Key: key, Index: n}
	if before == nil {
		op.AtEnd = true
	} else {
		op.Before = before.Key
	}
	return op
}

// duplicateKeys returns the keys occurring more than once, in order of first
// occurrence.
func duplicateKeys(keys []any) []any {
	seen := make(map[any]int, len(keys))
	var dups []any
	for _, k := range keys {
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// String summarizes the stats.
func (s Stats) String() string {
	return fmt.Sprintf("created=%d removed=%d moved=%d retained=%d duplicates=%d",
		s.Created, s.Removed, s.Moved, s.Retained, s.Duplicates)
}
