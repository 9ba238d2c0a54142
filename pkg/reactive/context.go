package reactive

// Context passes a value down the owner tree without threading it through
// every render function.
//
//	var Theme = reactive.NewContext("light")
//
//	rt.RunWithOwner(page, func() {
//	    Theme.Provide(rt, "dark")
//	    // ... descendants created here see "dark"
//	})
//	theme := Theme.Use(rt)
type Context[T any] struct {
	defaultValue T
}

type contextKey[T any] struct {
	ctx *Context[T]
}

// NewContext creates a context whose Use returns defaultValue when no owner
// up the tree provides a value.
func NewContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{defaultValue: defaultValue}
}

// Provide stores value on the current owner. It reports false when there is
// no current owner.
func (c *Context[T]) Provide(rt *Runtime, value T) bool {
	if rt.owner == nil {
		return false
	}
	c.ProvideOn(rt.owner, value)
	return true
}

// ProvideOn stores value on owner o.
func (c *Context[T]) ProvideOn(o *Owner, value T) {
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[contextKey[T]{ctx: c}] = value
}

// Use returns the value provided by the nearest owner, starting at the
// current one, or the default value.
func (c *Context[T]) Use(rt *Runtime) T {
	return c.Lookup(rt.owner)
}

// Lookup returns the value provided by o or its nearest ancestor, or the
// default value.
func (c *Context[T]) Lookup(o *Owner) T {
	key := contextKey[T]{ctx: c}
	for ; o != nil; o = o.parent {
		if v, ok := o.values[key]; ok {
			return v.(T)
		}
	}
	return c.defaultValue
}
