// Package agent implements the bounded tool-calling agent loop: a
// Descriptor describes an agent's behavior, Runtime drives a single
// invocation of it, and Agent wraps a Runtime with persistent state for a
// stateful chat session.
package agent

import (
	"github.com/corvidrun/corvid/internal/compaction"
)

// MemoryStrategy selects how an agent keeps its context within budget.
type MemoryStrategy string

const (
	MemoryStrategyObservational MemoryStrategy = "observational"
	MemoryStrategyCompaction    MemoryStrategy = "compaction"
)

// Descriptor fully describes an agent's identity and operating limits,
// independent of any particular running instance.
type Descriptor struct {
	Name        string
	Description string
	SystemPrompt string
	// ToolNames is the allowed tool whitelist; the runtime subsets the
	// shared registry down to exactly these names.
	ToolNames []string
	// MaxTurns bounds the tool-calling loop before the continuation
	// engine takes over.
	MaxTurns int
	// ToolDescription is shown to a parent agent when this Descriptor is
	// exposed as a tool; falls back to Description when empty.
	ToolDescription string
	// ToolLimits caps how many times each named tool may be called
	// within one execution; a tool hitting its cap gets an error result
	// instead of executing, rather than failing the whole run.
	ToolLimits map[string]int
	// IsReadOnly agents receive reinforcement to never call
	// filesystem-mutating tools even if one somehow remained in scope.
	IsReadOnly bool
	MemoryStrategy MemoryStrategy
	// MaxObservations is carried on the descriptor; no Runtime, Agent or
	// runner code reads it, so it places no limit on execution.
	MaxObservations int
	ObservationConfig *compaction.Config
	CompactPrompt string
}

// ToolDescriptionOrDefault returns ToolDescription, falling back to
// Description.
func (d Descriptor) ToolDescriptionOrDefault() string {
	if d.ToolDescription != "" {
		return d.ToolDescription
	}
	return d.Description
}

// EffectiveMaxTurns returns MaxTurns, defaulting to 20 per the original
// runtime's InternalAgent trait default.
func (d Descriptor) EffectiveMaxTurns() int {
	if d.MaxTurns <= 0 {
		return 20
	}
	return d.MaxTurns
}

// EffectiveObservationConfig resolves the per-agent observation config,
// falling back to the agent-role default.
func (d Descriptor) EffectiveObservationConfig() compaction.Config {
	if d.ObservationConfig != nil {
		return *d.ObservationConfig
	}
	return compaction.ForAgents()
}
