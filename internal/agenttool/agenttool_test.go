package agenttool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/agent"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/tool"
	"github.com/corvidrun/corvid/internal/tracker"
)

type scriptedProvider struct {
	responses []provider.Response
	calls     int
	lastReq   provider.Request
}

func (s *scriptedProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	s.lastReq = req
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}
func (s *scriptedProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	return nil, nil
}

func TestWrapperNameIsAskPrefixed(t *testing.T) {
	w := New(agent.Descriptor{Name: "coder"}, &scriptedProvider{}, tool.NewRegistry())
	assert.Equal(t, "ask_coder", w.Name())
}

func TestWrapperExecuteReturnsDelegateReply(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{{Message: message.Assistant("it's done")}}}
	w := New(agent.Descriptor{Name: "coder", MaxTurns: 5}, p, tool.NewRegistry())

	args, _ := json.Marshal(map[string]string{"task": "fix the bug"})
	out, err := w.Execute(context.Background(), string(args))
	require.NoError(t, err)
	assert.False(t, out.IsError)
	assert.Equal(t, "it's done", out.Content)
}

func TestWrapperWithTrackerPrependsTaskBoardAndScopesTool(t *testing.T) {
	tr := tracker.New()
	id, err := tr.Create("write docs", "", "writer", nil)
	require.NoError(t, err)

	p := &scriptedProvider{responses: []provider.Response{{Message: message.Assistant("wrote them")}}}
	w := New(agent.Descriptor{Name: "writer", MaxTurns: 5}, p, tool.NewRegistry()).WithTracker(tr)

	args, _ := json.Marshal(map[string]string{"task": "write the docs", "task_id": id})
	out, err := w.Execute(context.Background(), string(args))
	require.NoError(t, err)
	assert.False(t, out.IsError)

	require.NotEmpty(t, p.lastReq.Messages)
	firstUser := p.lastReq.Messages[0].Text
	assert.True(t, strings.Contains(firstUser, "Current task board"))
	assert.True(t, strings.Contains(firstUser, id))

	var sawUpdateMyTask bool
	for _, def := range p.lastReq.Tools {
		if def.Name == "update_my_task" {
			sawUpdateMyTask = true
		}
	}
	assert.True(t, sawUpdateMyTask, "a task_id call should expose a scoped update_my_task tool")
}

func TestWrapperExecuteRejectsInvalidArguments(t *testing.T) {
	w := New(agent.Descriptor{Name: "coder"}, &scriptedProvider{}, tool.NewRegistry())
	out, err := w.Execute(context.Background(), "{not json")
	require.NoError(t, err)
	assert.True(t, out.IsError)
}
