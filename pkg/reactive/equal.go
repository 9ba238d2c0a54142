package reactive

import "reflect"

// defaultEquals uses == for common comparable kinds and reflect.DeepEqual
// for everything else (slices, maps, structs, pointers to them).
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return same(av, any(b))
	case int32:
		return same(av, any(b))
	case int64:
		return same(av, any(b))
	case uint:
		return same(av, any(b))
	case uint64:
		return same(av, any(b))
	case float32:
		return same(av, any(b))
	case float64:
		return same(av, any(b))
	case string:
		return same(av, any(b))
	case bool:
		return same(av, any(b))
	default:
		return reflect.DeepEqual(a, b)
	}
}

// same compares a with b when b holds the same dynamic type. T may be an
// interface type, so b's dynamic type can differ from a's.
func same[V comparable](a V, b any) bool {
	bv, ok := b.(V)
	return ok && a == bv
}
