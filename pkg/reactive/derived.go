package reactive

import "fmt"

// Derived is a memoized computation over cells and other derived values.
//
// A Derived is lazy: compute runs on the first read, and again only on a read
// after one of its sources changed. Invalidation is pushed through the graph
// (the value is marked dirty), recomputation is pulled by readers.
type Derived[T any] struct {
	rt       *Runtime
	h        Handle
	compute  func() T
	value    T
	version  uint64
	dirty    bool
	disposed bool
	name     string
}

// NewDerived creates a derived value. compute does not run until the first read.
// If an owner is current, disposing the owner disposes the derived value.
func NewDerived[T any](rt *Runtime, compute func() T, opts ...Option) *Derived[T] {
	o := applyOptions(opts)
	d := &Derived[T]{
		rt:      rt,
		compute: compute,
		dirty:   true,
		name:    o.name,
	}
	h, n := rt.graph.alloc(kindDerived)
	n.target = d
	d.h = h

	if owner := rt.owner; owner != nil {
		owner.OnCleanup(d.Dispose)
	}
	return d
}

// Get returns the value, recomputing it first if it is dirty, and records a
// dependency of the active reaction on d.
//
// Get panics with an error matching ErrDisposed if d was disposed, and with
// one matching ErrCircular if d is read while it is being computed. A panic
// raised by compute propagates after d is marked dirty again. Use Value to
// receive these as errors.
func (d *Derived[T]) Get() T {
	if d.disposed {
		panic(ErrDisposed.WithDetail(d.label()))
	}
	if d.rt.isComputing(d.h) {
		panic(d.rt.cycleError(d.h))
	}
	if d.dirty {
		d.recompute()
	}
	if d.rt.Tracking() && d.rt.activeLive() {
		d.rt.track(d.h)
	}
	return d.value
}

// Value is Get with graph errors and compute panics returned as an error.
func (d *Derived[T]) Value() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("reactive: %s panicked: %v", d.label(), r)
		}
	}()
	return d.Get(), nil
}

// Peek returns the value without recording a dependency. It still
// recomputes a dirty value.
func (d *Derived[T]) Peek() T {
	var v T
	d.rt.Untracked(func() { v = d.Get() })
	return v
}

// Version returns the number of successful computations.
func (d *Derived[T]) Version() uint64 {
	return d.version
}

// Dirty reports whether the next read will recompute.
func (d *Derived[T]) Dirty() bool {
	return d.dirty
}

// Disposed reports whether Dispose was called.
func (d *Derived[T]) Disposed() bool {
	return d.disposed
}

// Dispose removes d from the graph and releases its computation and cached
// value. It is idempotent. Reading d afterwards panics with ErrDisposed.
func (d *Derived[T]) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	d.rt.graph.detach(d.h)
	d.rt.graph.release(d.h)
	d.compute = nil
	var zero T
	d.value = zero
}

// recompute runs compute inside a fresh tracking pass. On panic the value
// stays dirty, the previous cached value is kept, and the panic propagates
// after the tracking context and computation stack are restored.
func (d *Derived[T]) recompute() {
	if err := d.rt.pushComputing(d.h); err != nil {
		panic(err)
	}
	d.dirty = false
	d.rt.graph.beginPass(d.h)
	prev := d.rt.setActive(d.h)

	ok := false
	defer func() {
		d.rt.setActive(prev)
		d.rt.graph.endPass(d.h)
		d.rt.popComputing(d.h)
		if !ok {
			d.dirty = true
		}
	}()

	value := d.compute()
	d.value = value
	d.version++
	ok = true
}

// invalidate marks d dirty and propagates to its dependents.
func (d *Derived[T]) invalidate() {
	if d.disposed || d.dirty {
		return
	}
	d.dirty = true
	d.rt.propagate(d.h)
}

func (d *Derived[T]) label() string {
	if d.name != "" {
		return "derived " + d.name
	}
	return "derived " + d.h.String()
}

var _ reaction = (*Derived[int])(nil)

