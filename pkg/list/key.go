package list

import (
	"fmt"
	"reflect"
)

// Ref is the key of an item that is a reference but cannot be compared with
// ==, such as a slice or a map. Items sharing their backing storage have
// equal Refs.
//
// Func values only expose their code pointer, so two closures of the same
// function literal share a Ref.
type Ref struct {
	Type reflect.Type
	Addr uintptr
	Len  int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s@%#x", r.Type, r.Addr)
}

// unkeyed stands in for an item with no identity. Each one is distinct, so
// such items are rendered again on every pass.
type unkeyed struct {
	pos int
}

func (u *unkeyed) String() string {
	return fmt.Sprintf("unkeyed#%d", u.pos)
}

// identityKey returns k in a form that is safe to compare and to use as a map
// key. It reports false for values that are neither comparable nor
// references, like structs holding slices.
func identityKey(k any) (any, bool) {
	switch k.(type) {
	case nil, string, int, int64, int32, uint, uint64, uint32, bool:
		return k, true
	}
	v := reflect.ValueOf(k)
	if v.Comparable() {
		return k, true
	}
	switch v.Kind() {
	case reflect.Slice:
		return Ref{Type: v.Type(), Addr: v.Pointer(), Len: v.Len()}, true
	case reflect.Map, reflect.Func:
		return Ref{Type: v.Type(), Addr: v.Pointer()}, true
	}
	return nil, false
}
