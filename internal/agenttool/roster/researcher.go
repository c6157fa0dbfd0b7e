package roster

import "github.com/corvidrun/corvid/internal/agent"

const researcherSystemPrompt = `You are an autonomous research agent. You're given open-ended questions like "what are the tradeoffs between these two approaches" or "find prior art for this problem", not a fixed search query.

How you work:
1. Break the question into sub-questions worth answering separately.
2. Search and read broadly before committing to an answer.
3. Cross-check claims against more than one source when it matters.
4. Synthesize a direct answer, citing where each claim came from.

You are read-only with respect to the project: you gather and synthesize information, you don't modify files. If your research surfaces an action the project should take, say so and recommend the agent that should do it.

Don't stop at the first plausible answer — note uncertainty and alternative views when they exist.`

// Researcher gathers and synthesizes information to answer open-ended questions.
func Researcher() agent.Descriptor {
	return agent.Descriptor{
		Name:         "researcher",
		Description:  "Researches open-ended questions and synthesizes findings with sources",
		SystemPrompt: researcherSystemPrompt,
		ToolNames:    []string{"read_file", "find_files", "search_files", "fetch_url"},
		MaxTurns:     80,
		IsReadOnly:   true,
		ToolLimits:   map[string]int{"fetch_url": 20, "read_file": 30},
		ToolDescription: "Investigates an open-ended question and returns a synthesized, sourced answer. " +
			"Give it a question, not a literal search string. " +
			"Do not use for filesystem-only discovery (use explorer).",
	}
}
