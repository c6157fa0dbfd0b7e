// Package provider decouples the runtime from any concrete LLM wire
// protocol behind a single Complete/Stream interface.
package provider

import (
	"context"

	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/tool"
)

// Request is a provider-agnostic completion request.
type Request struct {
	Messages    []message.Message
	System      string
	Tools       []tool.Definition
	Model       string
	Temperature float64
	MaxTokens   int
	Extra       map[string]any
}

// Response is a single non-streamed completion.
type Response struct {
	Message      message.Message
	InputTokens  int
	OutputTokens int
}

// EventKind classifies a StreamEvent.
type EventKind string

const (
	EventStart          EventKind = "start"
	EventThinkingDelta   EventKind = "thinking_delta"
	EventDelta           EventKind = "delta"
	EventToolCallStart   EventKind = "tool_call_start"
	EventToolCallDelta   EventKind = "tool_call_delta"
	EventDone            EventKind = "done"
	EventError           EventKind = "error"
)

// StreamEvent is one increment of a streamed completion.
type StreamEvent struct {
	Kind         EventKind
	TextDelta    string
	ToolCallID   string
	ToolCallName string
	ArgsDelta    string
	Final        *Response
	Err          error
}

// Provider is the boundary the runtime calls through for all LLM access.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}
