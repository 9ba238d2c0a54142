package rtest

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
)

// NewRuntime creates a runtime in the given mode that logs to t.
func NewRuntime(t testing.TB, mode reactive.Mode) *reactive.Runtime {
	t.Helper()
	return reactive.New(reactive.Config{
		Mode:   mode,
		Logger: Logger(t),
	})
}

// Logger returns a logger writing text records to the test log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Host is a recording list.Host.
type Host[T, I any] struct {
	attached []*list.Entry[T, I]
	calls    []string
	problems []string
}

// NewHost creates an empty recording host.
func NewHost[T, I any]() *Host[T, I] {
	return &Host[T, I]{}
}

// Insert implements list.Host.
func (h *Host[T, I]) Insert(e *list.Entry[T, I], before *list.Entry[T, I]) {
	h.calls = append(h.calls, "insert "+describe(e, before))
	if h.indexOf(e) >= 0 {
		h.problem("insert of attached entry %v", e.Key)
		return
	}
	h.place(e, before)
}

// Move implements list.Host.
func (h *Host[T, I]) Move(e *list.Entry[T, I], before *list.Entry[T, I]) {
	h.calls = append(h.calls, "move "+describe(e, before))
	i := h.indexOf(e)
	if i < 0 {
		h.problem("move of detached entry %v", e.Key)
		return
	}
	h.attached = append(h.attached[:i], h.attached[i+1:]...)
	h.place(e, before)
}

// Remove implements list.Host.
func (h *Host[T, I]) Remove(e *list.Entry[T, I]) {
	h.calls = append(h.calls, fmt.Sprintf("remove %v", e.Key))
	if e.Owner != nil && !e.Owner.Disposed() {
		h.problem("remove of %v before its owner was disposed", e.Key)
	}
	i := h.indexOf(e)
	if i < 0 {
		h.problem("remove of detached entry %v", e.Key)
		return
	}
	h.attached = append(h.attached[:i], h.attached[i+1:]...)
}

func (h *Host[T, I]) place(e, before *list.Entry[T, I]) {
	if before == nil {
		h.attached = append(h.attached, e)
		return
	}
	j := h.indexOf(before)
	if j < 0 {
		h.problem("anchor %v is not attached", before.Key)
		h.attached = append(h.attached, e)
		return
	}
	h.attached = append(h.attached, nil)
	copy(h.attached[j+1:], h.attached[j:])
	h.attached[j] = e
}

func (h *Host[T, I]) indexOf(e *list.Entry[T, I]) int {
	for i, a := range h.attached {
		if a == e {
			return i
		}
	}
	return -1
}

func (h *Host[T, I]) problem(format string, args ...any) {
	h.problems = append(h.problems, fmt.Sprintf(format, args...))
}

// Keys returns the keys of the attached entries in order.
func (h *Host[T, I]) Keys() []any {
	out := make([]any, len(h.attached))
	for i, e := range h.attached {
		out[i] = e.Key
	}
	return out
}

// Instances returns the attached instances in order.
func (h *Host[T, I]) Instances() []I {
	out := make([]I, len(h.attached))
	for i, e := range h.attached {
		out[i] = e.Instance
	}
	return out
}

// Calls returns the recorded calls, such as "insert 3 before 1" or "remove 2".
func (h *Host[T, I]) Calls() []string {
	out := make([]string, len(h.calls))
	copy(out, h.calls)
	return out
}

// Problems returns the misuse detected so far.
func (h *Host[T, I]) Problems() []string {
	out := make([]string, len(h.problems))
	copy(out, h.problems)
	return out
}

// Reset forgets recorded calls but keeps the attached entries.
func (h *Host[T, I]) Reset() {
	h.calls = nil
}

func describe[T, I any](e, before *list.Entry[T, I]) string {
	if before == nil {
		return fmt.Sprintf("%v at end", e.Key)
	}
	return fmt.Sprintf("%v before %v", e.Key, before.Key)
}

// ExpectKeys asserts the order of the attached entries.
func ExpectKeys[T, I any](t *testing.T, h *Host[T, I], want ...any) {
	t.Helper()
	got := h.Keys()
	if fmt.Sprint(got) != fmt.Sprint(any(want)) {
		t.Errorf("expected attached keys %v, got %v", want, got)
	}
}

// ExpectConsistent asserts that the host holds exactly entries, in order,
// that every index cell matches its position, and that no misuse was seen.
func ExpectConsistent[T, I any](t *testing.T, h *Host[T, I], entries []*list.Entry[T, I]) {
	t.Helper()
	for _, p := range h.problems {
		t.Errorf("host: %s", p)
	}
	if len(h.attached) != len(entries) {
		t.Errorf("expected %d attached entries, got %d", len(entries), len(h.attached))
		return
	}
	for i, e := range entries {
		if h.attached[i] != e {
			t.Errorf("position %d: expected entry %v, got %v", i, e.Key, h.attached[i].Key)
		}
		if got := e.Index.Peek(); got != i {
			t.Errorf("entry %v: expected index %d, got %d", e.Key, i, got)
		}
	}
}
