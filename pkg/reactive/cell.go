package reactive

// Cell is a versioned, mutable reactive value: the leaf of the dependency
// graph. Reading a Cell with Get while a derived value or effect is running
// makes that reaction depend on the Cell.
//
// A Cell only occupies an arena slot while some reaction depends on it, so a
// Cell nobody reads is an ordinary Go value reclaimed by the garbage collector.
type Cell[T any] struct {
	rt      *Runtime
	h       Handle
	value   T
	version uint64
	equal   func(T, T) bool
	name    string
}

// NewCell creates a cell holding initial.
func NewCell[T any](rt *Runtime, initial T, opts ...Option) *Cell[T] {
	o := applyOptions(opts)
	return &Cell[T]{
		rt:    rt,
		value: initial,
		name:  o.name,
	}
}

// Get returns the current value and, inside a tracking context, records a
// dependency of the active reaction on this cell.
func (c *Cell[T]) Get() T {
	if c.rt.Tracking() && c.rt.activeLive() {
		c.rt.track(c.handle())
	}
	return c.value
}

// Peek returns the current value without recording a dependency.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores value. If it equals the current value nothing happens;
// otherwise the version is bumped and every dependent is notified.
func (c *Cell[T]) Set(value T) {
	if c.equals(c.value, value) {
		return
	}
	c.value = value
	c.version++
	if c.rt.graph.get(c.h) != nil {
		c.rt.propagate(c.h)
	}
}

// Update sets the value to fn applied to the current value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Version returns the number of effective writes so far.
func (c *Cell[T]) Version() uint64 {
	return c.version
}

// WithEquals configures the equality used to detect no-op writes.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Dependents returns the number of reactions currently depending on the cell.
func (c *Cell[T]) Dependents() int {
	n := c.rt.graph.get(c.h)
	if n == nil {
		return 0
	}
	return len(n.dependents)
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// handle returns the cell's arena slot, allocating one on first tracked read.
func (c *Cell[T]) handle() Handle {
	if c.rt.graph.get(c.h) != nil {
		return c.h
	}
	h, n := c.rt.graph.alloc(kindCell)
	n.cell = c
	c.h = h
	return h
}

// release is called by the graph when the last dependent edge is dropped.
func (c *Cell[T]) release() {
	c.h = Handle{}
}
