// Package message defines the wire-neutral conversation data model shared
// by every agent, provider adapter, and memory component in the runtime.
package message

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartKind distinguishes the pieces a Content can be built from.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one piece of a multi-part message body. Image parts carry a
// caller-defined reference (URL or base64 blob) in Data; the runtime never
// interprets that payload itself.
type Part struct {
	Kind PartKind `json:"kind"`
	Text string   `json:"text,omitempty"`
	Data string   `json:"data,omitempty"`
	MIME string   `json:"mime,omitempty"`
}

// ToolCall is a single function invocation requested by an assistant turn.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON, parsed lazily by the tool
}

// Message is one turn in a conversation. Content is either plain text
// (Text non-empty, Parts nil) or a multi-part body (Parts non-empty).
// Exactly one of the two is populated for any real message; both empty is
// valid only for an assistant message whose Content exists solely to carry
// ToolCalls, per the reasoning-suppression policy (§4.3): such a message's
// Content is deliberately emptied once its tool calls have been dispatched,
// because providers must never be re-sent a model's own hidden reasoning.
type Message struct {
	Role       Role       `json:"role"`
	Text       string     `json:"text,omitempty"`
	Parts      []Part     `json:"parts,omitempty"`
	Reasoning  string     `json:"-"` // never serialized back to a provider
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// User constructs a plain-text user message.
func User(text string) Message { return Message{Role: RoleUser, Text: text} }

// System constructs a plain-text system message.
func System(text string) Message { return Message{Role: RoleSystem, Text: text} }

// Assistant constructs a plain-text assistant message with no tool calls.
func Assistant(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// ToolResult constructs a tool-role message answering a specific ToolCall.
func ToolResult(callID, name, text string) Message {
	return Message{Role: RoleTool, Text: text, ToolCallID: callID, Name: name}
}

// HasToolCalls reports whether this is an assistant turn requesting tools.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// ToStringLossy renders the message body as plain text, joining parts with
// newlines and rendering each non-text part as a "[+]" placeholder — used
// by memory compaction and the
// chunk processor, which operate on byte budgets rather than rich content.
func (m Message) ToStringLossy() string {
	if m.Parts == nil {
		return m.Text
	}
	out := make([]byte, 0, 256)
	for i, p := range m.Parts {
		if i > 0 {
			out = append(out, '\n')
		}
		if p.Kind == PartText {
			out = append(out, p.Text...)
		} else {
			out = append(out, '[', '+', ']')
		}
	}
	return string(out)
}

// ByteCount approximates the serialized size of the message, used by the
// observational memory compactor's byte-threshold bookkeeping.
func (m Message) ByteCount() int {
	n := len(m.ToStringLossy()) + len(m.Reasoning) + len(m.Name) + len(m.ToolCallID)
	for _, tc := range m.ToolCalls {
		n += len(tc.ID) + len(tc.Name) + len(tc.Arguments)
	}
	return n
}

// Suppressed returns a copy of m with Content cleared, preserving ToolCalls.
// Applied to every assistant message that carried tool calls once it has
// been appended to history, per the reasoning-suppression policy.
func (m Message) Suppressed() Message {
	c := m
	c.Text = ""
	c.Parts = nil
	c.Reasoning = ""
	return c
}

// TotalBytes sums ByteCount over a slice of messages.
func TotalBytes(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		n += m.ByteCount()
	}
	return n
}
