package props

import (
	"fmt"
	"sort"

	jerrors "github.com/j20-dev/j20/internal/errors"
)

var (
	// ErrUnknown is returned by Bind for a name the schema does not declare.
	ErrUnknown = jerrors.New(jerrors.CodePropUnknown)

	// ErrType is raised when a prop holds a value of the wrong type.
	ErrType = jerrors.New(jerrors.CodePropType)
)

// Getter reads the current value of one prop.
type Getter func() any

// Values are the props a caller passes to a component, by name.
type Values map[string]Getter

// Static returns a getter for a fixed value.
func Static[T any](v T) Getter {
	return func() any { return v }
}

// Source is anything with a tracked read, such as *reactive.Cell or
// *reactive.Derived.
type Source[T any] interface {
	Get() T
}

// From returns a getter reading src on every call.
func From[T any](src Source[T]) Getter {
	return func() any { return src.Get() }
}

// Func returns a getter calling fn, for values computed by the caller.
func Func[T any](fn func() T) Getter {
	return func() any { return fn() }
}

// Schema lists the prop names a component understands.
type Schema struct {
	names      map[string]struct{}
	allowExtra bool
}

// NewSchema declares the given names.
func NewSchema(names ...string) *Schema {
	s := &Schema{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// AllowExtra makes Bind keep undeclared names as extras instead of
// rejecting them.
func (s *Schema) AllowExtra() *Schema {
	s.allowExtra = true
	return s
}

// Declares reports whether name is part of the schema.
func (s *Schema) Declares(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Bind splits values into declared props and extras. A nil getter counts as
// absent.
func (s *Schema) Bind(values Values) (*Props, error) {
	p := &Props{known: make(map[string]Getter, len(values))}
	var unknown []string
	for name, get := range values {
		if get == nil {
			continue
		}
		if s.Declares(name) {
			p.known[name] = get
			continue
		}
		if !s.allowExtra {
			unknown = append(unknown, name)
			continue
		}
		if p.extra == nil {
			p.extra = make(Values)
		}
		p.extra[name] = get
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrUnknown.WithDetailf("%v", unknown)
	}
	return p, nil
}

// Props are the bound inputs of one component instance.
type Props struct {
	known Values
	extra Values
}

// Has reports whether the caller passed the declared prop name.
func (p *Props) Has(name string) bool {
	_, ok := p.known[name]
	return ok
}

// Get reads a declared prop. It returns false if the caller did not pass it.
func (p *Props) Get(name string) (any, bool) {
	get, ok := p.known[name]
	if !ok {
		return nil, false
	}
	return get(), true
}

// Names returns the declared props the caller passed, sorted.
func (p *Props) Names() []string {
	names := make([]string, 0, len(p.known))
	for n := range p.known {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Extra returns a copy of the undeclared props kept by a schema that allows
// extras. The getters are returned unread.
func (p *Props) Extra() Values {
	out := make(Values, len(p.extra))
	for n, g := range p.extra {
		out[n] = g
	}
	return out
}

// Value reads a declared prop as a T, returning def if the caller did not
// pass it. It panics with an error matching ErrType if the value has another
// type; a nil value reads as def.
func Value[T any](p *Props, name string, def T) T {
	v, err := Lookup[T](p, name)
	if err != nil {
		panic(err)
	}
	if v == nil {
		return def
	}
	return *v
}

// Lookup reads a declared prop as a T. It returns nil if the prop is absent
// or holds nil, and an error matching ErrType if it holds another type.
func Lookup[T any](p *Props, name string) (*T, error) {
	raw, ok := p.Get(name)
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(T)
	if !ok {
		var want T
		return nil, ErrType.WithDetail(fmt.Sprintf("%s is %T, want %T", name, raw, want))
	}
	return &v, nil
}
