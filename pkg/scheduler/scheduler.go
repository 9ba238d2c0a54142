package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	jerrors "github.com/j20-dev/j20/internal/errors"
)

// Observer receives task execution events.
type Observer interface {
	TaskCompleted(p Priority, elapsed time.Duration)
	TaskFailed(p Priority, err error)
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) TaskCompleted(p Priority, elapsed time.Duration) {
	for _, o := range m {
		o.TaskCompleted(p, elapsed)
	}
}

func (m multiObserver) TaskFailed(p Priority, err error) {
	for _, o := range m {
		o.TaskFailed(p, err)
	}
}

// Config configures a Scheduler.
type Config struct {
	// Logger receives task failures. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer receives task events. Optional.
	Observer Observer
}

// Scheduler is a priority task queue. See the package documentation.
type Scheduler struct {
	mu    sync.Mutex
	queue *taskQueue
	seq   uint64

	flushing     bool
	flushingSync bool

	// wake is signalled when an async task is added, for Run.
	wake chan struct{}

	logger   *slog.Logger
	observer Observer
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:    newTaskQueue(),
		wake:     make(chan struct{}, 1),
		logger:   logger,
		observer: cfg.Observer,
	}
}

// AddTask submits callback at priority p and returns its ID.
// PrioritySync callbacks run before AddTask returns.
func (s *Scheduler) AddTask(callback func(), p Priority) TaskID {
	if !p.Valid() {
		p = PriorityNormal
	}

	s.mu.Lock()
	s.seq++
	t := &task{
		id:       TaskID(uuid.NewString()),
		priority: p,
		seq:      s.seq,
		callback: callback,
		created:  time.Now(),
	}
	if p != PrioritySync {
		s.queue.add(t)
	}
	s.mu.Unlock()

	switch {
	case p == PrioritySync:
		s.execute(t)
	case p.IsAsync():
		s.signal()
	}
	return t.id
}

// RemoveTask cancels a task that has not run yet.
// It returns false if the task is unknown or already ran.
func (s *Scheduler) RemoveTask(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.remove(id)
}

// Flush runs every pending asynchronous task. Tasks added while flushing are
// run in the same call; a newly added higher priority task runs before the
// remaining lower priority ones. Nested calls from inside a task return
// immediately.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		t := s.queue.popFirst(asyncPriorities)
		s.mu.Unlock()
		if t == nil {
			return
		}
		s.execute(t)
	}
}

// FlushSync runs pending PriorityBatchSync tasks in creation order.
// It is a no-op when called from inside a batch-sync task.
func (s *Scheduler) FlushSync() {
	s.mu.Lock()
	if s.flushingSync {
		s.mu.Unlock()
		return
	}
	s.flushingSync = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushingSync = false
		s.mu.Unlock()
	}()

	syncPriorities := []Priority{PrioritySync, PriorityBatchSync}
	for {
		s.mu.Lock()
		t := s.queue.popFirst(syncPriorities)
		s.mu.Unlock()
		if t == nil {
			return
		}
		s.execute(t)
	}
}

// Run flushes tasks as they arrive until ctx is done. Callbacks run on the
// calling goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Pending returns the number of queued tasks at priority p.
func (s *Scheduler) Pending(p Priority) int {
	if !p.Valid() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.count(p)
}

// Clear drops every queued task without running it.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.clear()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// execute runs one task, isolating panics so the queue keeps draining.
func (s *Scheduler) execute(t *task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := jerrors.FromPanic(jerrors.CodeTaskPanic, r).
				WithDetailf("task %s at priority %s", t.id, t.priority)
			s.logger.Error("scheduler: task panicked",
				"task", string(t.id),
				"priority", t.priority.String(),
				"error", err)
			if s.observer != nil {
				s.observer.TaskFailed(t.priority, err)
			}
			return
		}
		if s.observer != nil {
			s.observer.TaskCompleted(t.priority, time.Since(start))
		}
	}()
	t.callback()
}
