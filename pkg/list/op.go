package list

import "fmt"

// OpKind is the type of a reconciliation operation.
type OpKind uint8

const (
	OpCreate OpKind = 0x01 // Render a new entry and insert it
	OpMove   OpKind = 0x02 // Move a retained entry before its anchor
	OpRemove OpKind = 0x03 // Dispose an entry and detach it
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpMove:
		return "Move"
	case OpRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Op records one change applied during reconciliation.
type Op struct {
	Kind  OpKind
	Key   any // Key of the affected entry
	Index int // New position for Create/Move, old position for Remove

	// Before is the key of the entry the instance was placed in front of.
	// AtEnd is set instead when it was placed after every other entry.
	// Unused for Remove.
	Before any
	AtEnd  bool
}

// String renders the op for logs and the CLI.
func (op Op) String() string {
	switch op.Kind {
	case OpRemove:
		return fmt.Sprintf("%s %v from %d", op.Kind, op.Key, op.Index)
	default:
		if op.AtEnd {
			return fmt.Sprintf("%s %v at %d (end)", op.Kind, op.Key, op.Index)
		}
		return fmt.Sprintf("%s %v at %d before %v", op.Kind, op.Key, op.Index, op.Before)
	}
}
