package scheduler

import "fmt"

// Priority orders tasks. Higher values run first.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityImmediate
	PriorityBatchSync
	PrioritySync
)

// asyncPriorities lists the priorities drained by Flush, highest first.
var asyncPriorities = []Priority{
	PriorityImmediate,
	PriorityHigh,
	PriorityNormal,
	PriorityLow,
}

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case PrioritySync:
		return "sync"
	case PriorityBatchSync:
		return "batch-sync"
	case PriorityImmediate:
		return "immediate"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// IsAsync reports whether tasks of this priority are deferred to Flush.
func (p Priority) IsAsync() bool {
	return p <= PriorityImmediate
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p <= PrioritySync
}

// ParsePriority parses a priority name as returned by String.
func ParsePriority(s string) (Priority, error) {
	for p := PriorityLow; p <= PrioritySync; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("scheduler: unknown priority %q", s)
}
