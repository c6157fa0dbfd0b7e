package runner

import "context"

// EventKind classifies an OutputEvent surfaced to the interface.
type EventKind string

const (
	EventContentDelta   EventKind = "content_delta"
	EventThinkingDelta  EventKind = "thinking_delta"
	EventToolStarted    EventKind = "tool_started"
	EventToolExecuting  EventKind = "tool_executing"
	EventToolCompleted  EventKind = "tool_completed"
	EventDone           EventKind = "done"
	EventError          EventKind = "error"
	EventByteCount      EventKind = "byte_count"
	EventIterationStart EventKind = "iteration_start"
)

// OutputEvent is one increment of the runner's output to the interface,
// matching every provider stream chunk or tool-dispatch transition to a
// display-relevant event.
type OutputEvent struct {
	Kind       EventKind
	Text       string // content/thinking delta text, or a final/error message
	ToolCallID string
	ToolName   string
	Bytes      int // cumulative byte count, for EventByteCount
	Iteration  int // turn number, for EventIterationStart
	Err        error
}

// AgentInterface is the boundary between the runner and whatever front
// end drives it. The terminal UI itself (rendering, keybindings) is out
// of scope; only this interface and a minimal readline-style CLI
// implementation (package cli) are built.
type AgentInterface interface {
	// NextInput blocks until the next UserInput is available or ctx is
	// cancelled.
	NextInput(ctx context.Context) (UserInput, error)
	// PollInput returns immediately: a UserInput and true if one was
	// ready, or the zero value and false otherwise. Used by the runner
	// to notice a queued /cancel-equivalent without blocking mid-stream.
	PollInput() (UserInput, bool)
	// Emit delivers one OutputEvent for display. Must not block the
	// runner indefinitely; a slow interface should buffer internally.
	Emit(ev OutputEvent)
	// StartResponse/FinishResponse bracket one agent turn, letting the
	// interface manage prompt state (e.g. suppressing the input prompt
	// while a response streams).
	StartResponse()
	FinishResponse()
}
