// Package continuation implements the continuation engine: when an agent
// exhausts its turn budget mid-task, it generates a tagged summary of its
// own progress and is re-seeded with that summary as context, up to a
// configured number of times, instead of simply failing the task.
package continuation

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

// Config tunes continuation behavior.
type Config struct {
	MaxContinuations int
	Enabled          bool
}

// DefaultConfig mirrors the original runtime's defaults.
func DefaultConfig() Config {
	return Config{MaxContinuations: 3, Enabled: true}
}

// Summary is the tagged-section progress report an agent generates about
// its own unfinished work.
type Summary struct {
	StepsTaken       string
	Discoveries      string
	Accomplishments  string
	RemainingWork    string
	ImportantContext string
}

const summaryPrompt = `You have run out of turns before finishing. Summarize your progress so far using exactly these XML sections, each on its own, so your work can continue:

<steps_taken>What you did, in order</steps_taken>
<discoveries>Facts, file paths, or data you found</discoveries>
<accomplishments>What is actually complete</accomplishments>
<remaining_work>What is left to do</remaining_work>
<important_context>Anything else needed to continue correctly</important_context>`

// GenerateSummary asks the provider to describe the agent's own progress
// in the tagged format, then extracts each section.
func GenerateSummary(ctx context.Context, p provider.Provider, history []message.Message) (Summary, error) {
	msgs := append(append([]message.Message(nil), history...), message.User(summaryPrompt))
	resp, err := p.Complete(ctx, provider.Request{Messages: msgs})
	if err != nil {
		return Summary{}, err
	}
	text := resp.Message.Text
	return Summary{
		StepsTaken:       extractTag(text, "steps_taken"),
		Discoveries:      extractTag(text, "discoveries"),
		Accomplishments:  extractTag(text, "accomplishments"),
		RemainingWork:    extractTag(text, "remaining_work"),
		ImportantContext: extractTag(text, "important_context"),
	}, nil
}

// extractTag returns the text between the first "<tag>" and the next
// "</tag>", or "" if either is missing. A simple first-occurrence search
// is sufficient because the prompt requests each section exactly once.
func extractTag(text, tag string) string {
	open := "<" + tag + ">"
	close := "</" + tag + ">"
	start := strings.Index(text, open)
	if start < 0 {
		return ""
	}
	start += len(open)
	end := strings.Index(text[start:], close)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(text[start : start+end])
}

// FormatContext renders a Summary plus the original task into a seed
// message for the next continuation attempt.
func FormatContext(s Summary, originalTask string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are continuing a task that ran out of turns. Original task: %s\n\n", originalTask)
	fmt.Fprintf(&b, "Steps taken so far:\n%s\n\n", s.StepsTaken)
	fmt.Fprintf(&b, "Discoveries:\n%s\n\n", s.Discoveries)
	fmt.Fprintf(&b, "Accomplished:\n%s\n\n", s.Accomplishments)
	fmt.Fprintf(&b, "Remaining work:\n%s\n\n", s.RemainingWork)
	fmt.Fprintf(&b, "Important context:\n%s\n\nContinue from here.", s.ImportantContext)
	return b.String()
}

// Result reports how a continuation-wrapped run ended.
type Result struct {
	Success          bool
	PartialResult    string
	ContinuationsUsed int
	Err              error
}

// Runner is the minimal surface continuation needs from the agent layer —
// implemented by agent.Runtime.RunOnce, kept as a function type to avoid
// a dependency from continuation back onto agent.
type Runner func(ctx context.Context, history []message.Message) ([]message.Message, string, error)

// RunWithContinuation drives runner to completion, and on a
// KindMaxIterations failure, generates a summary, re-seeds a fresh history
// from it, and retries — up to cfg.MaxContinuations times. If the budget
// is exhausted, the final attempt's summary is still generated and its
// Accomplishments/RemainingWork sections are returned as PartialResult,
// rather than discarded.
func RunWithContinuation(ctx context.Context, cfg Config, p provider.Provider, runner Runner, originalTask string, history []message.Message) Result {
	attempt := history
	for i := 0; i <= cfg.MaxContinuations; i++ {
		finalHistory, reply, err := runner(ctx, attempt)
		if err == nil {
			return Result{Success: true, PartialResult: reply, ContinuationsUsed: i}
		}
		if errs.KindOf(err) != errs.KindMaxIterations || !cfg.Enabled {
			return Result{Success: false, Err: err, ContinuationsUsed: i}
		}

		summary, sumErr := GenerateSummary(ctx, p, finalHistory)
		if sumErr != nil {
			return Result{Success: false, Err: sumErr, ContinuationsUsed: i}
		}

		if i == cfg.MaxContinuations {
			return Result{
				Success:           false,
				PartialResult:     summary.Accomplishments + summary.RemainingWork,
				ContinuationsUsed: i,
				Err:               errs.New(errs.KindMaxIterations, "max continuations reached"),
			}
		}
		attempt = []message.Message{message.User(FormatContext(summary, originalTask))}
	}
	return Result{Success: false, Err: errs.New(errs.KindMaxIterations, "continuation budget exhausted"), ContinuationsUsed: cfg.MaxContinuations}
}
