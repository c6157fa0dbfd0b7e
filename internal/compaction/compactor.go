package compaction

import (
	"context"

	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

// DefaultCompactPrompt guides Compactor's LLM summarization when an agent
// doesn't supply its own compact prompt.
const DefaultCompactPrompt = `Summarize this agent session so it can continue effectively with reduced context. Preserve:
1. Key decisions and conclusions reached
2. Important facts, file paths, code snippets, or data discovered
3. The original task goal and any sub-goals identified
4. Tool results that would be expensive to re-obtain
5. Any pending work or unresolved issues

Be concise but comprehensive. Focus on what's needed to continue the task.`

// Compactor condenses a slice of messages into one summary through the
// provider. Agent and the runner use it as the ContextCompactor behind
// observational memory's observe and reflect passes; a descriptor that
// selects MemoryStrategyCompaction gets no compaction pass from either.
type Compactor struct {
	provider provider.Provider
}

// NewCompactor constructs a Compactor backed by p.
func NewCompactor(p provider.Provider) *Compactor {
	return &Compactor{provider: p}
}

// Summarize condenses msgs into a single assistant-facing summary string
// using prompt as the instruction (falls back to DefaultCompactPrompt).
func (c *Compactor) Summarize(ctx context.Context, msgs []message.Message, prompt string) (string, error) {
	if prompt == "" {
		prompt = DefaultCompactPrompt
	}

	var sb []message.Message
	sb = append(sb, msgs...)
	sb = append(sb, message.User("Summarize the session above per your instructions."))

	resp, err := c.provider.Complete(ctx, provider.Request{System: prompt, Messages: sb})
	if err != nil {
		return "", err
	}
	return resp.Message.Text, nil
}
