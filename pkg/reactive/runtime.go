package reactive

import (
	"log/slog"
	"strings"

	"github.com/j20-dev/j20/pkg/scheduler"
)

// Mode selects when effects invalidated by a write re-run.
type Mode uint8

const (
	// ModeDeferred collects invalidated effects and re-runs them in one flush
	// submitted to the scheduler at PriorityImmediate, after the current
	// synchronous turn.
	ModeDeferred Mode = iota

	// ModeSync re-runs invalidated effects at the end of each top-level write.
	ModeSync
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeSync {
		return "sync"
	}
	return "deferred"
}

// DefaultMaxEffectRunsPerFlush is the flush budget used when
// Config.MaxEffectRunsPerFlush is zero.
const DefaultMaxEffectRunsPerFlush = 10000

// Config configures a Runtime.
type Config struct {
	// Mode selects deferred (default) or synchronous effect scheduling.
	Mode Mode

	// Scheduler runs deferred flushes and OnMount callbacks.
	// If nil, the runtime creates its own; drive it with Scheduler().Flush().
	Scheduler *scheduler.Scheduler

	// MaxEffectRunsPerFlush caps effect executions in one flush. Effects past
	// the cap are deferred to a new turn. Zero selects
	// DefaultMaxEffectRunsPerFlush; a negative value disables the cap.
	MaxEffectRunsPerFlush int

	// Logger receives effect and cleanup failures. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer receives flush and failure events. Optional.
	Observer Observer
}

// Runtime owns one reactive graph: the arena of reactions, the tracking slot,
// the computation stack, the current owner and the pending effect queue.
//
// A Runtime is not safe for concurrent use. Drive it from a single goroutine,
// typically the one running its Scheduler.
type Runtime struct {
	cfg      Config
	sched    *scheduler.Scheduler
	logger   *slog.Logger
	observer Observer

	graph graph

	// active is the reaction currently collecting dependencies.
	active Handle

	// stack holds the derived values being computed, innermost last.
	stack []Handle

	owner    *Owner
	ownerSeq uint64

	batchDepth int
	writeDepth int

	pending        []*Effect
	flushing       bool
	flushTask      scheduler.TaskID
	flushScheduled bool
	flushes        uint64
}

// New creates a Runtime.
//
// In the default ModeDeferred, writes only schedule a flush task: effects do
// not re-run until the runtime's scheduler is driven, with
// Scheduler().Flush() after each turn or Scheduler().Run(ctx) on the
// goroutine that owns the runtime. Runtime.Flush settles pending effects
// immediately. Use ModeSync to re-run effects at the end of every write.
func New(cfg Config) *Runtime {
	if cfg.MaxEffectRunsPerFlush == 0 {
		cfg.MaxEffectRunsPerFlush = DefaultMaxEffectRunsPerFlush
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = scheduler.New(scheduler.Config{Logger: logger})
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &Runtime{
		cfg:      cfg,
		sched:    sched,
		logger:   logger,
		observer: observer,
	}
}

// Scheduler returns the task scheduler deferred flushes are submitted to.
func (rt *Runtime) Scheduler() *scheduler.Scheduler {
	return rt.sched
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Mode returns the effect scheduling mode.
func (rt *Runtime) Mode() Mode {
	return rt.cfg.Mode
}

// setActive installs h as the tracking context and returns the previous one.
func (rt *Runtime) setActive(h Handle) Handle {
	old := rt.active
	rt.active = h
	return old
}

// Tracking reports whether reads currently create dependency edges.
func (rt *Runtime) Tracking() bool {
	return !rt.active.IsZero()
}

// track records a read of src by the active reaction.
func (rt *Runtime) track(src Handle) {
	if rt.active.IsZero() {
		return
	}
	rt.graph.track(rt.active, src)
}

// activeLive reports whether the active reaction can take new edges.
func (rt *Runtime) activeLive() bool {
	n := rt.graph.get(rt.active)
	return n != nil && n.passing
}

// propagate notifies every dependent of h. Top-level writes end by flushing
// or scheduling a flush, after all dependents have been invalidated.
func (rt *Runtime) propagate(h Handle) {
	rt.writeDepth++
	for _, dep := range rt.graph.dependentsOf(h) {
		if n := rt.graph.get(dep); n != nil && n.target != nil {
			n.target.invalidate()
		}
	}
	rt.writeDepth--

	if rt.writeDepth == 0 && rt.batchDepth == 0 {
		rt.afterWrite()
	}
}

// pushComputing puts a derived value on the computation stack.
// It returns a circular dependency error if h is already being computed.
func (rt *Runtime) pushComputing(h Handle) error {
	n := rt.graph.get(h)
	if n == nil {
		return ErrDisposed
	}
	if n.computing {
		return rt.cycleError(h)
	}
	n.computing = true
	rt.stack = append(rt.stack, h)
	return nil
}

func (rt *Runtime) popComputing(h Handle) {
	if n := rt.graph.get(h); n != nil {
		n.computing = false
	}
	for i := len(rt.stack) - 1; i >= 0; i-- {
		if rt.stack[i] == h {
			rt.stack = append(rt.stack[:i], rt.stack[i+1:]...)
			return
		}
	}
}

func (rt *Runtime) isComputing(h Handle) bool {
	n := rt.graph.get(h)
	return n != nil && n.computing
}

// cycleError describes the cycle from the first occurrence of h on the stack.
func (rt *Runtime) cycleError(h Handle) error {
	start := 0
	for i, s := range rt.stack {
		if s == h {
			start = i
			break
		}
	}
	path := make([]string, 0, len(rt.stack)-start+1)
	for _, s := range rt.stack[start:] {
		path = append(path, rt.describe(s))
	}
	path = append(path, rt.describe(h))
	return ErrCircular.WithDetail(strings.Join(path, " -> "))
}

func (rt *Runtime) describe(h Handle) string {
	n := rt.graph.get(h)
	if n == nil || n.target == nil {
		return h.String()
	}
	return n.target.label()
}

// Stats is a snapshot of the runtime's graph.
type Stats struct {
	Mode           string `json:"mode"`
	Reactions      int    `json:"reactions"`
	TrackedCells   int    `json:"tracked_cells"`
	PendingEffects int    `json:"pending_effects"`
	Flushes        uint64 `json:"flushes"`
	BatchDepth     int    `json:"batch_depth"`
}

// Stats returns a snapshot of the runtime's graph.
func (rt *Runtime) Stats() Stats {
	return Stats{
		Mode:           rt.cfg.Mode.String(),
		Reactions:      rt.graph.reactions,
		TrackedCells:   rt.graph.cells,
		PendingEffects: rt.Pending(),
		Flushes:        rt.flushes,
		BatchDepth:     rt.batchDepth,
	}
}
