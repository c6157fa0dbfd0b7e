package roster

import "github.com/corvidrun/corvid/internal/agent"

const reviewerSystemPrompt = `You are an autonomous code review agent. You're given a goal like "review the changes to the auth module for correctness and security", not a checklist to run mechanically.

How you work:
1. Understand the scope: what changed, and what risk that change carries.
2. Read the changed code plus enough surrounding context to judge it fairly.
3. Look for correctness bugs, security issues, missed edge cases, and deviations from the codebase's own conventions — not just style nits.
4. Report findings ranked by severity, each with a concrete failure scenario, not a vague "this could be better".

You are read-only: you never edit, write, or delete files. If a fix is obvious, describe it precisely enough for the coder agent to apply it, but don't apply it yourself.

Don't pad your report with trivial nits to look thorough. An empty findings list is a valid, good outcome.`

// Reviewer inspects code changes and reports findings without modifying anything.
func Reviewer() agent.Descriptor {
	return agent.Descriptor{
		Name:         "reviewer",
		Description:  "Reviews code changes for correctness, security, and convention fit",
		SystemPrompt: reviewerSystemPrompt,
		ToolNames:    []string{"read_file", "find_files", "search_files"},
		MaxTurns:     60,
		IsReadOnly:   true,
		ToolLimits:   map[string]int{"read_file": 40, "find_files": 15},
		ToolDescription: "Reviews code or a diff for bugs, security issues, and convention violations, ranked by severity. " +
			"Give it a goal describing what to review and why it matters. " +
			"Do not use to make the fix (use coder).",
	}
}
