// Package list reconciles keyed sequences of rendered items.
//
// Reconcile compares the entries rendered for the previous sequence with a
// new sequence of raw items and reuses, creates, moves and removes entries so
// that the result follows the new order. Entries whose key survives keep their
// rendered instance; only the minimum number of instances is moved, computed
// from the longest increasing subsequence of their old positions.
//
// Every change is recorded as an Op and, if a Host is configured, applied to
// it. Each entry owns a reactive.Owner holding whatever its render function
// created, and an index cell kept equal to the entry's position.
//
//	rows := list.For(rt, todos.Get, list.Reconciler[Todo, *Row]{
//	    Key:    func(t Todo) any { return t.ID },
//	    Render: newRow,
//	    Host:   table,
//	})
//	defer rows.Dispose()
//
// Keys must be comparable. Without a Key function the item itself is the key.
package list
