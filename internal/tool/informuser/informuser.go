// Package informuser implements the inform_user tool: a way for a
// sub-agent to push a progress notification to the user without ending
// its turn, so long-running delegated work doesn't look stalled.
package informuser

import (
	"context"
	"encoding/json"

	"github.com/corvidrun/corvid/internal/eventbus"
	"github.com/corvidrun/corvid/internal/tool"
)

// Tool publishes an agent-progress event for every call and always
// returns an empty success result — its real effect is the bus publish,
// not its return value.
type Tool struct {
	bus   *eventbus.Bus
	agent string
}

// New constructs the inform_user tool scoped to the calling agent's name.
func New(bus *eventbus.Bus, agentName string) *Tool {
	return &Tool{bus: bus, agent: agentName}
}

func (*Tool) Name() string        { return "inform_user" }
func (*Tool) Description() string { return "Sends the user a progress update without ending your turn." }
func (t *Tool) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: tool.ToolParameters{
			Type: "object",
			Properties: map[string]tool.PropertySchema{
				"message": {Type: "string", Description: "A short progress update for the user"},
			},
			Required: []string{"message"},
		},
	}
}
func (*Tool) IsBlocking() bool { return false }
func (t *Tool) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Message string }
	_ = json.Unmarshal([]byte(rawArgs), &args)
	t.bus.Publish(eventbus.Event{Kind: eventbus.KindAgentProgress, Agent: t.agent, Message: args.Message})
	return tool.Success(""), nil
}
