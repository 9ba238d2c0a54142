package scheduler

import "time"

// TaskID identifies a submitted task.
type TaskID string

type task struct {
	id       TaskID
	priority Priority
	seq      uint64
	callback func()
	created  time.Time
}

// taskQueue keeps one FIFO per priority plus an index by ID.
// It is not synchronized; Scheduler guards it.
type taskQueue struct {
	queues [PrioritySync + 1][]*task
	tasks  map[TaskID]*task
}

func newTaskQueue() *taskQueue {
	return &taskQueue{tasks: make(map[TaskID]*task)}
}

func (q *taskQueue) add(t *task) {
	q.tasks[t.id] = t
	q.queues[t.priority] = append(q.queues[t.priority], t)
}

func (q *taskQueue) remove(id TaskID) bool {
	t, ok := q.tasks[id]
	if !ok {
		return false
	}
	delete(q.tasks, id)

	queue := q.queues[t.priority]
	for i, qt := range queue {
		if qt == t {
			q.queues[t.priority] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	return true
}

// popFirst removes and returns the oldest task of the highest priority among
// the given ones. Priorities must be listed highest first.
func (q *taskQueue) popFirst(priorities []Priority) *task {
	for _, p := range priorities {
		queue := q.queues[p]
		if len(queue) == 0 {
			continue
		}
		t := queue[0]
		queue[0] = nil
		q.queues[p] = queue[1:]
		delete(q.tasks, t.id)
		return t
	}
	return nil
}

func (q *taskQueue) count(p Priority) int {
	return len(q.queues[p])
}

func (q *taskQueue) len() int {
	return len(q.tasks)
}

func (q *taskQueue) clear() {
	for p := range q.queues {
		q.queues[p] = nil
	}
	q.tasks = make(map[TaskID]*task)
}
