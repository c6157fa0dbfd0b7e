// Package tracker implements the project manager's task board: a DAG of
// tasks linked by blocked_by edges, with a derived (never stored) inverse
// blocks() view and cycle rejection on every edit.
package tracker

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Status is a task's current state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// Task is one unit of tracked work.
type Task struct {
	ID          string
	Title       string
	Description string
	Assignee    string
	Status      Status
	BlockedBy   []string
	Notes       string
}

// Tracker holds the task DAG for one session. Safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{tasks: make(map[string]*Task)}
}

// Create adds a new task and returns its generated ID.
func (t *Tracker) Create(title, description, assignee string, blockedBy []string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, dep := range blockedBy {
		if _, ok := t.tasks[dep]; !ok {
			return "", fmt.Errorf("blocked_by references unknown task %q", dep)
		}
	}

	id := uuid.NewString()
	t.tasks[id] = &Task{
		ID: id, Title: title, Description: description, Assignee: assignee,
		Status: StatusTodo, BlockedBy: append([]string(nil), blockedBy...),
	}
	if err := t.checkAcyclicLocked(); err != nil {
		delete(t.tasks, id)
		return "", err
	}
	return id, nil
}

// Update mutates an existing task's mutable fields in place. A nil status
// or notes leaves that field unchanged; when blockedByChanged is true,
// blockedBy replaces the edge set wholesale (nil clears it), subject to
// the same cycle and existence checks as Create.
func (t *Tracker) Update(id string, status *Status, notes *string, blockedBy []string, blockedByChanged bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}

	prevBlockedBy := task.BlockedBy
	if blockedByChanged {
		for _, dep := range blockedBy {
			if dep == id {
				return fmt.Errorf("task %q cannot block itself", id)
			}
			if _, ok := t.tasks[dep]; !ok {
				return fmt.Errorf("blocked_by references unknown task %q", dep)
			}
		}
		task.BlockedBy = append([]string(nil), blockedBy...)
	}
	if err := t.checkAcyclicLocked(); err != nil {
		task.BlockedBy = prevBlockedBy
		return err
	}

	if status != nil {
		task.Status = *status
	}
	if notes != nil {
		task.Notes = *notes
	}
	return nil
}

// Delete removes a task and drops it from every other task's blocked_by,
// since a deleted dependency can no longer block anything.
func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.tasks[id]; !ok {
		return fmt.Errorf("task %q not found", id)
	}
	delete(t.tasks, id)
	for _, task := range t.tasks {
		task.BlockedBy = removeString(task.BlockedBy, id)
	}
	return nil
}

// Get returns a copy of a single task.
func (t *Tracker) Get(id string) (Task, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	task, ok := t.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// List returns every task, in no particular order.
func (t *Tracker) List() []Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Task, 0, len(t.tasks))
	for _, task := range t.tasks {
		out = append(out, *task)
	}
	return out
}

// Blocks returns the derived inverse of BlockedBy: every task ID that
// lists id in its own BlockedBy. Never stored — recomputed on demand.
func (t *Tracker) Blocks(id string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, task := range t.tasks {
		for _, dep := range task.BlockedBy {
			if dep == id {
				out = append(out, task.ID)
				break
			}
		}
	}
	return out
}

// Ready returns every todo task with no unfinished blocked_by
// dependency — the set eligible for immediate parallel dispatch.
func (t *Tracker) Ready() []Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Task
	for _, task := range t.tasks {
		if task.Status != StatusTodo {
			continue
		}
		blocked := false
		for _, dep := range task.BlockedBy {
			if dt, ok := t.tasks[dep]; ok && dt.Status != StatusDone {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, *task)
		}
	}
	return out
}

// checkAcyclicLocked runs Kahn's algorithm over the current blocked_by
// edges; callers must hold t.mu.
func (t *Tracker) checkAcyclicLocked() error {
	indegree := make(map[string]int, len(t.tasks))
	for id := range t.tasks {
		indegree[id] = 0
	}
	for _, task := range t.tasks {
		indegree[task.ID] = len(task.BlockedBy)
	}

	var queue []string
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	blocksOf := make(map[string][]string, len(t.tasks))
	for _, task := range t.tasks {
		for _, dep := range task.BlockedBy {
			blocksOf[dep] = append(blocksOf[dep], task.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dependent := range blocksOf[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if visited != len(t.tasks) {
		return fmt.Errorf("blocked_by edit would create a dependency cycle")
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
