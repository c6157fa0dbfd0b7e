// Package roster defines the built-in agent descriptors available for
// delegation: explorer, coder, reviewer, researcher, planner, writer,
// summarizer, and the project manager that coordinates all of them.
package roster

import "github.com/corvidrun/corvid/internal/agent"

// All returns every built-in sub-agent descriptor except the project
// manager, which is constructed separately since it alone is given every
// other descriptor's ask_* tool.
func All() []agent.Descriptor {
	return []agent.Descriptor{
		Explorer(),
		Coder(),
		Reviewer(),
		Researcher(),
		Planner(),
		Writer(),
		Summarizer(),
	}
}

// Names returns the name of every sub-agent in All(), in the same order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	return names
}
