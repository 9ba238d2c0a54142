package reactive

import (
	"bytes"
	"log/slog"
	"testing"
	"time"
)

type recordingObserver struct {
	flushes        []int
	effectFailed   []string
	cleanupFailed  []string
	budgetExceeded []int
	errs           []error
}

func (r *recordingObserver) FlushCompleted(ran int, _ time.Duration) {
	r.flushes = append(r.flushes, ran)
}

func (r *recordingObserver) EffectFailed(name string, err error) {
	r.effectFailed = append(r.effectFailed, name)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) CleanupFailed(name string, err error) {
	r.cleanupFailed = append(r.cleanupFailed, name)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) BudgetExceeded(deferred int) {
	r.budgetExceeded = append(r.budgetExceeded, deferred)
}

type testEnv struct {
	rt   *Runtime
	obs  *recordingObserver
	logs *bytes.Buffer
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	var buf bytes.Buffer
	obs := &recordingObserver{}
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	cfg.Observer = obs
	return &testEnv{rt: New(cfg), obs: obs, logs: &buf}
}

// checkEdges verifies that every edge in the graph is stored on both ends.
func checkEdges(t *testing.T, rt *Runtime) {
	t.Helper()
	for idx, n := range rt.graph.nodes {
		if !n.live {
			continue
		}
		h := Handle{idx: uint32(idx), gen: n.gen}
		for _, src := range n.sources {
			sn := rt.graph.get(src)
			if sn == nil {
				t.Errorf("%s %s has stale source %s", n.kind, h, src)
				continue
			}
			if !containsHandle(sn.dependents, h) {
				t.Errorf("%s %s reads %s but is not among its dependents", n.kind, h, src)
			}
		}
		for _, dep := range n.dependents {
			dn := rt.graph.get(dep)
			if dn == nil {
				t.Errorf("%s %s has stale dependent %s", n.kind, h, dep)
				continue
			}
			if !containsHandle(dn.sources, h) {
				t.Errorf("%s %s lists dependent %s that does not read it", n.kind, h, dep)
			}
		}
		if n.kind == kindCell && len(n.dependents) == 0 {
			t.Errorf("cell %s holds a slot without dependents", h)
		}
	}
}

func mustPanic(t *testing.T, fn func()) (r any) {
	t.Helper()
	defer func() {
		r = recover()
		if r == nil {
			t.Error("expected panic")
		}
	}()
	fn()
	return nil
}
