// Package agenttool wraps an agent.Descriptor as a tool.Tool so a parent
// agent (typically the project manager) can delegate work to it exactly
// like calling any other tool.
package agenttool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvidrun/corvid/internal/agent"
	"github.com/corvidrun/corvid/internal/continuation"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/tool"
	"github.com/corvidrun/corvid/internal/tool/tasktools"
	"github.com/corvidrun/corvid/internal/tracker"
)

// args is the schema every agent-tool accepts: a single free-form task
// description, matching the "goal not command" convention the roster's
// prompts all teach, plus an optional task board ID when the parent is
// delegating a tracked task rather than a one-off question.
type args struct {
	Task   string `json:"task"`
	TaskID string `json:"task_id,omitempty"`
}

// Wrapper exposes a Descriptor as a tool.Tool.
type Wrapper struct {
	descriptor agent.Descriptor
	provider   provider.Provider
	parentReg  *tool.Registry
	contCfg    continuation.Config
	tracker    *tracker.Tracker
}

// New constructs a Wrapper. parentReg is the calling agent's own
// registry; the wrapped sub-agent runs against a fresh subset of it
// (the descriptor's tool whitelist, with every other agent-tool excluded
// so sub-agents can never recurse into siblings).
func New(d agent.Descriptor, p provider.Provider, parentReg *tool.Registry) *Wrapper {
	return &Wrapper{descriptor: d, provider: p, parentReg: parentReg, contCfg: continuation.DefaultConfig()}
}

// WithTracker attaches the project manager's task board. When set, a
// delegate call naming a task_id sees the current board prepended to its
// task and gets a scoped update_my_task tool to report its own status
// directly, instead of relying on the PM to relay it.
func (w *Wrapper) WithTracker(tr *tracker.Tracker) *Wrapper {
	w.tracker = tr
	return w
}

// Name returns the tool name the parent sees, e.g. "ask_coder".
func (w *Wrapper) Name() string { return "ask_" + w.descriptor.Name }

// Description returns the tool's guidance text shown to the parent LLM.
func (w *Wrapper) Description() string { return w.descriptor.ToolDescriptionOrDefault() }

// Definition returns the tool's JSON schema: a required "task" field plus
// an optional task_id linking this call to a tracked task.
func (w *Wrapper) Definition() tool.Definition {
	return tool.Definition{
		Name:        w.Name(),
		Description: w.Description(),
		Parameters: tool.ToolParameters{
			Type: "object",
			Properties: map[string]tool.PropertySchema{
				"task":    {Type: "string", Description: "The goal or question to delegate, not a mechanical command."},
				"task_id": {Type: "string", Description: "ID of a tracked task (from create_task) this call fulfills, if any."},
			},
			Required: []string{"task"},
		},
	}
}

// IsBlocking is always true: delegating a task runs a full nested agent
// loop, which itself dispatches blocking tools.
func (w *Wrapper) IsBlocking() bool { return true }

// Execute builds a fresh one-shot Runtime scoped to this agent's tool
// whitelist (excluding every ask_* tool, including itself) over a fresh
// single-message context — sub-agents never inherit the parent's history.
func (w *Wrapper) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var a args
	if err := json.Unmarshal([]byte(rawArgs), &a); err != nil {
		return tool.Failure(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	// reg subsets parentReg down to the descriptor's own tool whitelist,
	// then drops every ask_* tool, even one the whitelist names.
	reg := w.parentReg.Subset(w.descriptor.ToolNames...)
	var agentTools []string
	for _, d := range reg.Definitions() {
		if strings.HasPrefix(d.Name, "ask_") {
			agentTools = append(agentTools, d.Name)
		}
	}
	reg = reg.Exclude(agentTools...)
	task := a.Task
	if w.tracker != nil && a.TaskID != "" {
		_ = reg.Register(tasktools.NewUpdateMyTask(w.tracker, a.TaskID))
		task = formatTaskWithBoard(w.tracker, a.Task)
	}

	rt := agent.NewRuntime(w.descriptor, w.provider, reg, nil)
	// NewRuntime subsets to ToolNames again, which would drop the
	// update_my_task tool registered above; keep reg as built here.
	rt.Registry = reg
	runner := continuation.Runner(rt.RunOnce)

	res := continuation.RunWithContinuation(ctx, w.contCfg, w.provider, runner, a.Task, []message.Message{message.User(task)})
	if !res.Success {
		return tool.Failure(fmt.Sprintf("%s failed: %v", w.descriptor.Name, res.Err)), nil
	}
	return tool.Success(res.PartialResult), nil
}

// formatTaskWithBoard prepends the current task board to task, so a
// delegate working on one tracked task can see what else is in flight
// and what it's blocked on.
func formatTaskWithBoard(tr *tracker.Tracker, task string) string {
	var b strings.Builder
	b.WriteString("Current task board:\n")
	for _, t := range tr.List() {
		fmt.Fprintf(&b, "- [%s] %s (%s) assignee=%s\n", t.ID, t.Title, t.Status, t.Assignee)
	}
	b.WriteString("\nYour task: ")
	b.WriteString(task)
	b.WriteString("\n\nUse update_my_task to report your own status as you work; don't wait until the end.")
	return b.String()
}
