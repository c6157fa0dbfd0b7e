package agent

import (
	"context"

	"github.com/corvidrun/corvid/internal/compaction"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/tool"
)

// Agent wraps a Runtime with persistent conversation state and, when the
// descriptor selects MemoryStrategyObservational, observational memory,
// for use in a long-lived chat session where a single agent is invoked
// turn after turn.
type Agent struct {
	runtime *Runtime
	history []message.Message
	memory  *compaction.ObservationalMemory
	compactor *compaction.Compactor
}

// New constructs a stateful Agent.
func New(d Descriptor, p provider.Provider, registry *tool.Registry, pool *tool.BlockingPool) *Agent {
	return &Agent{
		runtime:   NewRuntime(d, p, registry, pool),
		memory:    compaction.New(d.EffectiveObservationConfig()),
		compactor: compaction.NewCompactor(p),
	}
}

// Process runs one user turn: appends userText, drives the tool-calling
// loop, appends the outcome to history, and runs an observation pass if
// the memory strategy and byte budget call for it.
func (a *Agent) Process(ctx context.Context, userText string) (string, error) {
	a.history = append(a.history, message.User(userText))
	a.memory.RecordMessages(message.User(userText))

	newHistory, reply, err := a.runtime.RunOnce(ctx, a.history)
	if err != nil {
		return "", err
	}
	appended := newHistory[len(a.history):]
	a.history = newHistory
	a.memory.RecordMessages(appended...)

	if a.runtime.Descriptor.MemoryStrategy == MemoryStrategyObservational {
		_ = a.memory.Compact(ctx, &a.history, a.observeWithProvider)
	}

	return reply, nil
}

// observeWithProvider is the ContextCompactor used to drive observation
// and reflection passes through the configured provider, using the
// agent's own compact prompt (falling back to the generic default).
func (a *Agent) observeWithProvider(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
	prompt := a.runtime.Descriptor.CompactPrompt
	if len(toObserve) == 0 && priorLog != "" {
		// A reflection pass: the log itself is what gets condensed.
		toObserve = []message.Message{message.User(priorLog)}
	}
	return a.compactor.Summarize(ctx, toObserve, prompt)
}

// History returns a copy of the agent's current conversation history.
func (a *Agent) History() []message.Message {
	return append([]message.Message(nil), a.history...)
}

// Reset clears all conversation state, starting the agent fresh.
func (a *Agent) Reset() {
	a.history = nil
	a.memory = compaction.New(a.runtime.Descriptor.EffectiveObservationConfig())
}
