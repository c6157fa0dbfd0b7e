package roster

import "github.com/corvidrun/corvid/internal/agent"

const summarizerSystemPrompt = `You are an autonomous summarization agent. You're given a large body of material (a long file, a transcript, a set of search results) and a goal describing what the caller needs out of it.

How you work:
1. Identify what the caller actually needs — don't summarize everything equally if only part of it matters to the goal.
2. Preserve specific facts: names, paths, numbers, decisions. Generic paraphrase loses exactly what callers need back.
3. Be concise. A summary that's nearly as long as the source has failed at its job.

You may read files to gather the material to summarize, but you don't modify anything.`

// Summarizer condenses large material down to what a caller actually needs.
func Summarizer() agent.Descriptor {
	return agent.Descriptor{
		Name:         "summarizer",
		Description:  "Condenses large material into a concise, fact-preserving summary",
		SystemPrompt: summarizerSystemPrompt,
		ToolNames:    []string{"read_file", "find_files", "search_files"},
		MaxTurns:     30,
		ToolDescription: "Condenses a large file, transcript, or result set into a concise summary that preserves specific facts. " +
			"Give it the material's location and what you actually need from it.",
	}
}
