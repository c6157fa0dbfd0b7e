package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/tool"
)

// scriptedProvider replays a fixed sequence of responses, one per Complete
// call, to deterministically drive the tool-calling loop in tests.
type scriptedProvider struct {
	responses []provider.Response
	calls     int
}

func (s *scriptedProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}
func (s *scriptedProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	return nil, nil
}

type echoTool struct{ calls int }

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "echoes input" }
func (e *echoTool) Definition() tool.Definition {
	return tool.Definition{Name: "echo", Description: e.Description(), Parameters: tool.ToolParameters{Type: "object"}}
}
func (e *echoTool) IsBlocking() bool { return false }
func (e *echoTool) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	e.calls++
	return tool.Success("echoed:" + rawArgs), nil
}

func TestRunOnceStopsWhenNoMoreToolCalls(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.Assistant("final answer")},
	}}
	reg := tool.NewRegistry()
	rt := NewRuntime(Descriptor{Name: "test", MaxTurns: 5}, p, reg, nil)

	msgs, reply, err := rt.RunOnce(context.Background(), []message.Message{message.User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "final answer", reply)
	assert.Len(t, msgs, 2)
}

func TestRunOnceDispatchesToolCallsThenCompletes(t *testing.T) {
	et := &echoTool{}
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(et))

	toolCallMsg := message.Assistant("")
	toolCallMsg.ToolCalls = []message.ToolCall{{ID: "1", Name: "echo", Arguments: `{"x":1}`}}

	p := &scriptedProvider{responses: []provider.Response{
		{Message: toolCallMsg},
		{Message: message.Assistant("done")},
	}}
	rt := NewRuntime(Descriptor{Name: "test", MaxTurns: 5, ToolNames: []string{"echo"}}, p, reg, nil)

	msgs, reply, err := rt.RunOnce(context.Background(), []message.Message{message.User("go")})
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Equal(t, 1, et.calls)

	var sawToolResult bool
	for _, m := range msgs {
		if m.Role == message.RoleTool && m.Text == "echoed:"+`{"x":1}` {
			sawToolResult = true
		}
		if m.Role == message.RoleAssistant && m.HasToolCalls() {
			assert.Empty(t, m.Text, "assistant-with-tool-calls content must be suppressed once appended")
		}
	}
	assert.True(t, sawToolResult)
}

func TestRunOnceEnforcesToolCallLimit(t *testing.T) {
	et := &echoTool{}
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(et))

	callMsg := func() message.Message {
		m := message.Assistant("")
		m.ToolCalls = []message.ToolCall{{ID: "1", Name: "echo", Arguments: "{}"}}
		return m
	}

	p := &scriptedProvider{responses: []provider.Response{
		{Message: callMsg()},
		{Message: callMsg()},
		{Message: message.Assistant("stopped")},
	}}
	rt := NewRuntime(Descriptor{
		Name: "test", MaxTurns: 5, ToolNames: []string{"echo"},
		ToolLimits: map[string]int{"echo": 1},
	}, p, reg, nil)

	msgs, _, err := rt.RunOnce(context.Background(), []message.Message{message.User("go")})
	require.NoError(t, err)
	assert.Equal(t, 1, et.calls, "second call should be rejected by the limit, not executed")

	var sawLimitError bool
	for _, m := range msgs {
		if m.Role == message.RoleTool && m.Text != "" && m.Text[:6] == "error:" {
			sawLimitError = true
		}
	}
	assert.True(t, sawLimitError)
}

func TestRunOnceReturnsMaxIterationsWhenExhausted(t *testing.T) {
	callMsg := message.Assistant("")
	callMsg.ToolCalls = []message.ToolCall{{ID: "1", Name: "echo", Arguments: "{}"}}
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(&echoTool{}))

	p := &scriptedProvider{responses: []provider.Response{{Message: callMsg}, {Message: callMsg}}}
	rt := NewRuntime(Descriptor{Name: "test", MaxTurns: 2, ToolNames: []string{"echo"}}, p, reg, nil)

	_, _, err := rt.RunOnce(context.Background(), []message.Message{message.User("go")})
	require.Error(t, err)
}
