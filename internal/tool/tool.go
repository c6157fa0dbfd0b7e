// Package tool defines the Tool interface, its JSON-schema parameter
// description, and a capability-scoped registry.
package tool

import (
	"context"

	"github.com/corvidrun/corvid/pkg/registry"
)

// PropertySchema describes one parameter of a tool's input schema.
type PropertySchema struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Enum        []string                  `json:"enum,omitempty"`
	Items       *PropertySchema           `json:"items,omitempty"`
	Properties  map[string]PropertySchema `json:"properties,omitempty"`
}

// ToolParameters is the JSON-schema object describing a tool's arguments.
type ToolParameters struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// Definition is the provider-facing description of a callable tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// Output is the result of executing a tool.
type Output struct {
	Content string
	IsError bool
}

// Success builds a non-error Output.
func Success(content string) Output { return Output{Content: content} }

// Failure builds an error Output whose content is shown to the model.
func Failure(content string) Output { return Output{Content: content, IsError: true} }

// Tool is anything callable from an agent's tool-calling loop.
type Tool interface {
	Name() string
	Description() string
	Definition() Definition
	// IsBlocking reports whether Execute does blocking I/O (filesystem,
	// subprocess, network) and must run on the dedicated blocking pool
	// rather than inline in the agent's event loop.
	IsBlocking() bool
	Execute(ctx context.Context, rawArgs string) (Output, error)
}

// Registry is a capability-scoped collection of tools, keyed by name.
type Registry struct {
	base *registry.BaseRegistry[Tool]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[Tool]()}
}

// Register adds a tool under its own Name().
func (r *Registry) Register(t Tool) error {
	return r.base.Register(t.Name(), t)
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	return r.base.Get(name)
}

// Definitions returns the provider-facing schema for every registered tool.
func (r *Registry) Definitions() []Definition {
	items := r.base.List()
	defs := make([]Definition, 0, len(items))
	for _, t := range items {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Subset returns a new Registry containing only the named tools, silently
// skipping names that aren't registered. Used to scope a sub-agent's tool
// view and to prevent an agent-as-tool from recursing into its siblings.
func (r *Registry) Subset(names ...string) *Registry {
	out := NewRegistry()
	for _, n := range names {
		if t, ok := r.base.Get(n); ok {
			_ = out.Register(t)
		}
	}
	return out
}

// Exclude returns a new Registry with the named tools removed. Used to
// strip every ask_* agent-tool from a sub-agent's own registry copy.
func (r *Registry) Exclude(names ...string) *Registry {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := NewRegistry()
	for _, t := range r.base.List() {
		if _, excluded := skip[t.Name()]; !excluded {
			_ = out.Register(t)
		}
	}
	return out
}

// Count reports how many tools are registered.
func (r *Registry) Count() int { return r.base.Count() }
