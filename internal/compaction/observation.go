// Package compaction implements the two strategies available for keeping
// an agent's conversation within its context budget: Observational Memory
// (continuous, two-tier compaction run inline in the agent loop) and a
// simpler single-prompt Compaction strategy used for agents that don't
// need continuous operation.
package compaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/corvidrun/corvid/internal/message"
)

// Config tunes the Observational Memory trigger policy.
type Config struct {
	// MessageThresholdBytes: once messages since the last observation
	// exceed this many bytes, an observation pass is triggered.
	MessageThresholdBytes int
	// ObservationThresholdBytes: once the observation log itself exceeds
	// this many bytes, a reflection pass is triggered.
	ObservationThresholdBytes int
	// PreserveRecent is the number of most recent messages never
	// considered for compaction, keeping the active exchange intact.
	PreserveRecent int
	// Hysteresis prevents the trigger from firing again immediately after
	// a pass by requiring the overage to exceed threshold by this many
	// bytes before re-triggering.
	Hysteresis int
}

// DefaultConfig mirrors the original runtime's tuned defaults.
func DefaultConfig() Config {
	return Config{
		MessageThresholdBytes:     12000,
		ObservationThresholdBytes: 24000,
		PreserveRecent:            6,
		Hysteresis:                2000,
	}
}

// ForAgents returns the per-agent-role default, slightly tighter than the
// top-level chat session default since sub-agents run shorter-lived tasks.
func ForAgents() Config {
	c := DefaultConfig()
	c.MessageThresholdBytes = 8000
	c.ObservationThresholdBytes = 16000
	c.PreserveRecent = 4
	return c
}

// Entry is one bullet appended to the observation log.
type Entry struct {
	Timestamp time.Time
	Priority  int // higher = more important; not set or read by this package
	Text      string
}

// ContextCompactor produces natural-language summaries from conversation
// slices — implemented by whatever calls into a Provider in the caller's
// package (kept as a function type here to avoid a provider import cycle).
type ContextCompactor func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error)

// ObservationalMemory tracks an append-only observation log plus how many
// raw-message bytes have accrued since the log was last updated.
type ObservationalMemory struct {
	cfg              Config
	log              []Entry
	bytesSinceObserve int
	bytesSinceReflect int
}

// New constructs an ObservationalMemory with cfg.
func New(cfg Config) *ObservationalMemory {
	return &ObservationalMemory{cfg: cfg}
}

// NeedsObservation reports whether an observe pass should run now. Uses a
// strict greater-than so a message stream that lands exactly on the
// threshold doesn't trigger prematurely, and only re-triggers once the
// overage clears the hysteresis band.
func (o *ObservationalMemory) NeedsObservation() bool {
	return o.bytesSinceObserve > o.cfg.MessageThresholdBytes+o.cfg.Hysteresis
}

// NeedsReflection reports whether the observation log itself has grown
// large enough to warrant a full rewrite.
func (o *ObservationalMemory) NeedsReflection() bool {
	return o.bytesSinceReflect > o.cfg.ObservationThresholdBytes+o.cfg.Hysteresis
}

// LogText renders the current observation log as a single string, most
// recent entries last.
func (o *ObservationalMemory) LogText() string {
	var b strings.Builder
	for _, e := range o.log {
		fmt.Fprintf(&b, "- [%s] %s\n", e.Timestamp.Format(time.RFC3339), e.Text)
	}
	return b.String()
}

// RecordMessages tracks newly appended messages against the observation
// trigger budget. Call this every time the caller appends to history.
func (o *ObservationalMemory) RecordMessages(msgs ...message.Message) {
	o.bytesSinceObserve += message.TotalBytes(msgs)
}

// FindSafeSplitPoint returns the largest index <= limit at which msgs can
// be split without separating an assistant message carrying tool calls
// from the tool-result messages answering it. Walking backward from limit,
// an index is unsafe if msgs[index-1] is an assistant-with-tool-calls
// message (its results would be left behind) or msgs[index] is a tool
// message (its originating call would be left behind).
func FindSafeSplitPoint(msgs []message.Message, limit int) int {
	if limit > len(msgs) {
		limit = len(msgs)
	}
	for idx := limit; idx > 0; idx-- {
		if idx < len(msgs) && msgs[idx].Role == message.RoleTool {
			continue
		}
		if idx > 0 && msgs[idx-1].Role == message.RoleAssistant && msgs[idx-1].HasToolCalls() {
			continue
		}
		return idx
	}
	return 0
}

// Compact runs the observe/reflect pipeline against msgs in place. The
// caller supplies a ContextCompactor closure that performs the actual LLM
// summarization call (observe: summarize a slice into new log entries;
// reflect: rewrite the whole log into a tighter one).
//
// On any compactor failure, msgs and the log are left completely
// untouched — a failed compaction pass must never lose or corrupt state.
func (o *ObservationalMemory) Compact(ctx context.Context, msgs *[]message.Message, observe ContextCompactor) error {
	if !o.NeedsObservation() {
		return nil
	}

	keepFrom := len(*msgs) - o.cfg.PreserveRecent
	if keepFrom <= 0 {
		return nil
	}
	split := FindSafeSplitPoint(*msgs, keepFrom)
	if split <= 0 {
		return nil
	}

	toObserve := (*msgs)[:split]
	summary, err := observe(ctx, toObserve, o.LogText())
	if err != nil {
		return err
	}
	if strings.TrimSpace(summary) == "" {
		// An empty observation is a failure, not a successful no-op
		// summary: leave the log and message list exactly as they were.
		return nil
	}

	entry := Entry{Timestamp: now(), Text: summary}
	o.log = append(o.log, entry)
	o.bytesSinceReflect += len(summary)
	o.bytesSinceObserve = message.TotalBytes((*msgs)[split:])

	remaining := make([]message.Message, len(*msgs)-split)
	copy(remaining, (*msgs)[split:])
	*msgs = remaining

	if o.NeedsReflection() {
		if err := o.reflect(ctx, observe); err != nil {
			// A failed reflection doesn't invalidate the observation that
			// already succeeded; only the reflection step is skipped.
			return nil
		}
	}
	return nil
}

// reflect rewrites the full observation log into a single condensed
// summary, resetting the reflection byte counter.
func (o *ObservationalMemory) reflect(ctx context.Context, observe ContextCompactor) error {
	summary, err := observe(ctx, nil, o.LogText())
	if err != nil {
		return err
	}
	if strings.TrimSpace(summary) == "" {
		// Keep the current log untouched rather than replacing it with
		// nothing.
		return nil
	}
	o.log = []Entry{{Timestamp: now(), Text: summary}}
	o.bytesSinceReflect = len(summary)
	return nil
}

// now is a seam so tests can avoid depending on wall-clock ordering.
var now = time.Now
