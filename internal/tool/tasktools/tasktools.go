// Package tasktools exposes the project manager's task tracker as tools:
// create_task, update_task, list_tasks, delete_task for the PM itself, and
// a narrower update_my_task for a delegate scoped to one task ID.
package tasktools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvidrun/corvid/internal/tool"
	"github.com/corvidrun/corvid/internal/tracker"
)

func def(name, description string, props map[string]tool.PropertySchema, required ...string) tool.Definition {
	return tool.Definition{Name: name, Description: description, Parameters: tool.ToolParameters{Type: "object", Properties: props, Required: required}}
}

// ---- create_task ----

type createTask struct{ tr *tracker.Tracker }

// NewCreateTask constructs the create_task tool.
func NewCreateTask(tr *tracker.Tracker) tool.Tool { return createTask{tr} }

func (createTask) Name() string        { return "create_task" }
func (createTask) Description() string { return "Adds a new task to the project board." }
func (t createTask) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"title":       {Type: "string"},
		"description": {Type: "string"},
		"assignee":    {Type: "string", Description: "Which agent this task is intended for"},
		"blocked_by":  {Type: "array", Items: &tool.PropertySchema{Type: "string"}, Description: "Task IDs that must finish first"},
	}, "title")
}
func (createTask) IsBlocking() bool { return false }
func (t createTask) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		Title, Description, Assignee string
		BlockedBy                    []string `json:"blocked_by"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	id, err := t.tr.Create(args.Title, args.Description, args.Assignee, args.BlockedBy)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("created task %s", id)), nil
}

// ---- update_task (full access: status, notes, blocked_by) ----

type updateTask struct{ tr *tracker.Tracker }

// NewUpdateTask constructs the update_task tool.
func NewUpdateTask(tr *tracker.Tracker) tool.Tool { return updateTask{tr} }

func (updateTask) Name() string        { return "update_task" }
func (updateTask) Description() string { return "Updates a task's status, notes, or dependencies." }
func (t updateTask) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"id":         {Type: "string"},
		"status":     {Type: "string", Enum: []string{"todo", "in_progress", "done", "blocked"}},
		"notes":      {Type: "string"},
		"blocked_by": {Type: "array", Items: &tool.PropertySchema{Type: "string"}},
	}, "id")
}
func (updateTask) IsBlocking() bool { return false }
func (t updateTask) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		ID        string
		Status    *string
		Notes     *string
		BlockedBy []string `json:"blocked_by"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	var status *tracker.Status
	if args.Status != nil {
		s := tracker.Status(*args.Status)
		status = &s
	}
	_, blockedByChanged := parseRaw(rawArgs, "blocked_by")
	if err := t.tr.Update(args.ID, status, args.Notes, args.BlockedBy, blockedByChanged); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("updated task %s", args.ID)), nil
}

func parseRaw(rawArgs, key string) (json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawArgs), &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// ---- list_tasks ----

type listTasks struct{ tr *tracker.Tracker }

// NewListTasks constructs the list_tasks tool.
func NewListTasks(tr *tracker.Tracker) tool.Tool { return listTasks{tr} }

func (listTasks) Name() string        { return "list_tasks" }
func (listTasks) Description() string { return "Lists every task currently on the project board." }
func (t listTasks) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{})
}
func (listTasks) IsBlocking() bool { return false }
func (t listTasks) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var b strings.Builder
	for _, task := range t.tr.List() {
		fmt.Fprintf(&b, "[%s] %s (%s) assignee=%s blocked_by=%v\n", task.ID, task.Title, task.Status, task.Assignee, task.BlockedBy)
	}
	return tool.Success(b.String()), nil
}

// ---- delete_task ----

type deleteTask struct{ tr *tracker.Tracker }

// NewDeleteTask constructs the delete_task tool.
func NewDeleteTask(tr *tracker.Tracker) tool.Tool { return deleteTask{tr} }

func (deleteTask) Name() string        { return "delete_task" }
func (deleteTask) Description() string { return "Removes a task from the project board." }
func (t deleteTask) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{"id": {Type: "string"}}, "id")
}
func (deleteTask) IsBlocking() bool { return false }
func (t deleteTask) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ ID string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := t.tr.Delete(args.ID); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("deleted task %s", args.ID)), nil
}

// ---- update_my_task (scoped: sub-agent may only touch its own task) ----

type updateMyTask struct {
	tr     *tracker.Tracker
	taskID string
}

// NewUpdateMyTask constructs a tool bound to a single taskID, added to a
// delegate's tool view only for the duration of that delegated call.
func NewUpdateMyTask(tr *tracker.Tracker, taskID string) tool.Tool {
	return updateMyTask{tr: tr, taskID: taskID}
}

func (updateMyTask) Name() string        { return "update_my_task" }
func (updateMyTask) Description() string { return "Updates the status or notes of the task you were assigned." }
func (t updateMyTask) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"status": {Type: "string", Enum: []string{"todo", "in_progress", "done", "blocked"}},
		"notes":  {Type: "string"},
	})
}
func (updateMyTask) IsBlocking() bool { return false }
func (t updateMyTask) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		Status *string
		Notes  *string
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	var status *tracker.Status
	if args.Status != nil {
		s := tracker.Status(*args.Status)
		status = &s
	}
	if err := t.tr.Update(t.taskID, status, args.Notes, nil, false); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success("task updated"), nil
}
