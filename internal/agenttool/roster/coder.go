package roster

import "github.com/corvidrun/corvid/internal/agent"

const coderSystemPrompt = `You are an autonomous coding agent. You receive goals like "add input validation to the login form", not step-by-step instructions.

How you work:
1. Understand what functionality is being asked for.
2. Read the existing code around it before changing anything — match its patterns, naming, and error handling.
3. Plan which files need to change and the cleanest shape for the change.
4. Implement the minimum that satisfies the goal.
5. Re-read your own changes to confirm they're correct and complete.

Prefer edit_file over write_file for anything that already exists — it's precise and changes only the matched text. Only use write_file to create new files. Search and read before you touch anything; never modify code you haven't looked at first.

Don't over-engineer, don't leave TODOs or placeholder code, and don't make unrelated "while I'm here" changes.

When you finish, state what you implemented, note any design decisions, list every file touched, and flag anything the caller should verify.`

// Coder writes and modifies code following the conventions it finds.
func Coder() agent.Descriptor {
	return agent.Descriptor{
		Name:         "coder",
		Description:  "Writes and modifies code following existing patterns",
		SystemPrompt: coderSystemPrompt,
		ToolNames: []string{
			"read_file", "edit_file", "write_file", "move_file",
			"create_directory", "rm_file", "rm_directory", "find_files", "search_files",
		},
		MaxTurns: 100,
		ToolLimits: map[string]int{
			"write_file": 20, "edit_file": 50, "move_file": 20,
			"create_directory": 10, "rm_file": 20, "rm_directory": 10, "find_files": 10,
		},
		ToolDescription: "Implements features, fixes bugs, and modifies code by reading context first and following existing patterns. " +
			"Give it a goal describing what should change, not a procedure. " +
			"Do not use for read-only exploration (use explorer) or documentation (use writer).",
	}
}
