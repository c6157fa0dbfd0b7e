package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/corvidrun/corvid/internal/agent"
	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/telemetry"
)

// turnCounts tracks per-tool invocation counts within one runTurn call,
// mirroring agent.Runtime's own call-limit bookkeeping; tool calls within
// a turn dispatch concurrently, so access is mutex-guarded.
type turnCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func newTurnCounts() *turnCounts { return &turnCounts{counts: map[string]int{}} }

func (c *turnCounts) allowAndCount(name string, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > 0 && c.counts[name] >= limit {
		return false
	}
	c.counts[name]++
	return true
}

// pendingToolCall accumulates one tool call's streamed argument
// fragments until the provider finalizes it.
type pendingToolCall struct {
	id, name string
	args     strings.Builder
}

// runTurn drives one user turn against rt to completion using the
// provider's streaming interface (§4.7/§4.8's "streaming flavor" of the
// completion loop), emitting OutputEvents to iface as content, thinking,
// and tool-dispatch events arrive, and returns the updated history plus
// the final assistant reply text.
func runTurn(ctx context.Context, rt *agent.Runtime, history []message.Message, iface AgentInterface) ([]message.Message, string, error) {
	ctx, span := telemetry.StartAgentTurn(ctx, rt.Descriptor.Name)
	defer span.End()

	msgs := append([]message.Message(nil), history...)
	counts := newTurnCounts()
	totalBytes := 0

	for turn := 0; turn < rt.Descriptor.EffectiveMaxTurns(); turn++ {
		iface.Emit(OutputEvent{Kind: EventIterationStart, Iteration: turn})

		if in, ready := iface.PollInput(); ready && in.Kind == InputCancel {
			err := errs.New(errs.KindCancelled, "cancelled by user")
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
			return msgs, "", err
		}

		events, err := rt.Provider.Stream(ctx, provider.Request{
			System:   rt.SystemPrompt(),
			Messages: msgs,
			Tools:    rt.Registry.Definitions(),
		})
		if err != nil {
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
			return msgs, "", err
		}

		assistantMsg, err := consumeStream(events, iface, &totalBytes)
		if err != nil {
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
			return msgs, "", err
		}

		if !assistantMsg.HasToolCalls() {
			msgs = append(msgs, assistantMsg)
			iface.Emit(OutputEvent{Kind: EventDone, Text: assistantMsg.Text})
			return msgs, assistantMsg.Text, nil
		}

		// Append the assistant turn with its reasoning/content already
		// suppressed per the reasoning-suppression policy; its tool-call
		// IDs are kept, since tool dispatch needs them.
		msgs = append(msgs, assistantMsg.Suppressed())
		toolMsgs, err := dispatchToolCallsStreaming(ctx, rt, assistantMsg.ToolCalls, counts, iface)
		if err != nil {
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
			return msgs, "", err
		}
		msgs = append(msgs, toolMsgs...)
	}

	err := errs.New(errs.KindMaxIterations, fmt.Sprintf("%s exceeded max turns", rt.Descriptor.Name))
	iface.Emit(OutputEvent{Kind: EventError, Err: err})
	return msgs, "", err
}

// consumeStream drains one Stream call's events, coalescing tool-call
// deltas per the provider contract: every ToolCallStart finalizes any
// previously accumulating call before starting the new one, and at Done
// the currently accumulating call (if any) is finalized too.
func consumeStream(events <-chan provider.StreamEvent, iface AgentInterface, totalBytes *int) (message.Message, error) {
	out := message.Assistant("")
	var pending *pendingToolCall

	finalize := func() {
		if pending == nil {
			return
		}
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID: pending.id, Name: pending.name, Arguments: pending.args.String(),
		})
		pending = nil
	}

	for ev := range events {
		switch ev.Kind {
		case provider.EventDelta:
			out.Text += ev.TextDelta
			*totalBytes += len(ev.TextDelta)
			iface.Emit(OutputEvent{Kind: EventContentDelta, Text: ev.TextDelta})
			iface.Emit(OutputEvent{Kind: EventByteCount, Bytes: *totalBytes})
		case provider.EventThinkingDelta:
			out.Reasoning += ev.TextDelta
			iface.Emit(OutputEvent{Kind: EventThinkingDelta, Text: ev.TextDelta})
		case provider.EventToolCallStart:
			finalize()
			pending = &pendingToolCall{id: ev.ToolCallID, name: ev.ToolCallName}
			iface.Emit(OutputEvent{Kind: EventToolStarted, ToolCallID: ev.ToolCallID, ToolName: ev.ToolCallName})
		case provider.EventToolCallDelta:
			if pending != nil {
				pending.args.WriteString(ev.ArgsDelta)
			}
		case provider.EventDone:
			finalize()
			if ev.Final != nil {
				if len(out.ToolCalls) == 0 {
					out.ToolCalls = ev.Final.Message.ToolCalls
				}
				if out.Text == "" {
					out.Text = ev.Final.Message.Text
				}
			}
			return out, nil
		case provider.EventError:
			return out, ev.Err
		}
	}
	return out, nil
}

// dispatchToolCallsStreaming executes every requested tool call
// concurrently, preserving call order in the returned tool-result
// messages, the same guarantee agent.Runtime.dispatchToolCalls makes for
// the non-streaming loop — but additionally emitting ToolExecuting/
// ToolCompleted events around each dispatch.
func dispatchToolCallsStreaming(ctx context.Context, rt *agent.Runtime, calls []message.ToolCall, counts *turnCounts, iface AgentInterface) ([]message.Message, error) {
	results := make([]message.Message, len(calls))
	g, gctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = executeOneStreaming(gctx, rt, call, counts, iface)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func executeOneStreaming(ctx context.Context, rt *agent.Runtime, call message.ToolCall, counts *turnCounts, iface AgentInterface) message.Message {
	ctx, span := telemetry.StartToolExecution(ctx, call.Name)
	defer span.End()

	t, ok := rt.Registry.Get(call.Name)
	if !ok {
		iface.Emit(OutputEvent{Kind: EventToolCompleted, ToolCallID: call.ID, ToolName: call.Name, Err: fmt.Errorf("unknown tool")})
		return message.ToolResult(call.ID, call.Name, fmt.Sprintf("error: unknown tool %q", call.Name))
	}

	limit := rt.Descriptor.ToolLimits[call.Name]
	if !counts.allowAndCount(call.Name, limit) {
		msg := fmt.Sprintf("error: tool %q has reached its call limit (%d) for this task", call.Name, limit)
		iface.Emit(OutputEvent{Kind: EventToolCompleted, ToolCallID: call.ID, ToolName: call.Name, Err: fmt.Errorf("%s", msg)})
		return message.ToolResult(call.ID, call.Name, msg)
	}

	iface.Emit(OutputEvent{Kind: EventToolExecuting, ToolCallID: call.ID, ToolName: call.Name})
	out, err := rt.Pool.Dispatch(ctx, t, call.Arguments)
	if err != nil {
		iface.Emit(OutputEvent{Kind: EventToolCompleted, ToolCallID: call.ID, ToolName: call.Name, Err: err})
		return message.ToolResult(call.ID, call.Name, fmt.Sprintf("error: %v", err))
	}
	if out.IsError {
		iface.Emit(OutputEvent{Kind: EventToolCompleted, ToolCallID: call.ID, ToolName: call.Name, Text: out.Content, Err: fmt.Errorf("tool reported failure")})
		return message.ToolResult(call.ID, call.Name, "error: "+out.Content)
	}

	content := out.Content
	if rt.Chunker != nil && rt.Chunker.ShouldChunk(content) {
		if summarized, err := rt.Chunker.ProcessLargeContent(ctx, content, call.Arguments); err == nil {
			content = summarized
		}
	}
	iface.Emit(OutputEvent{Kind: EventToolCompleted, ToolCallID: call.ID, ToolName: call.Name, Text: content})
	return message.ToolResult(call.ID, call.Name, content)
}
