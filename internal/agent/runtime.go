package agent

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/corvidrun/corvid/internal/chunker"
	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/telemetry"
	"github.com/corvidrun/corvid/internal/tool"
)

// Runtime drives one bounded tool-calling invocation of a Descriptor. It
// holds no conversation state between calls; see Agent for a stateful
// wrapper.
type Runtime struct {
	Descriptor Descriptor
	Provider   provider.Provider
	Registry   *tool.Registry
	Pool       *tool.BlockingPool
	// Chunker, when set, passes oversized non-error tool output through
	// natural-boundary chunking and per-chunk summarization before it is
	// appended to history. Nil disables chunking entirely.
	Chunker *chunker.Processor
}

// WithChunker attaches a chunk processor to an already-constructed Runtime
// and returns it, for chaining off NewRuntime.
func (r *Runtime) WithChunker(c *chunker.Processor) *Runtime {
	r.Chunker = c
	return r
}

// NewRuntime constructs a Runtime, subsetting registry down to the
// descriptor's declared tool whitelist.
func NewRuntime(d Descriptor, p provider.Provider, registry *tool.Registry, pool *tool.BlockingPool) *Runtime {
	if pool == nil {
		pool = tool.NewBlockingPool(0)
	}
	return &Runtime{
		Descriptor: d,
		Provider:   p,
		Registry:   registry.Subset(d.ToolNames...),
		Pool:       pool,
	}
}

// callCounts tracks per-tool invocation counts within a single RunOnce,
// enforcing Descriptor.ToolLimits. Tool calls within one turn dispatch
// concurrently (dispatchToolCalls), so access is mutex-guarded.
type callCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCallCounts() *callCounts { return &callCounts{counts: map[string]int{}} }

// allowAndCount reports whether name is still under limit and, if so,
// atomically records this call against it. limit<=0 means unbounded.
func (c *callCounts) allowAndCount(name string, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > 0 && c.counts[name] >= limit {
		return false
	}
	c.counts[name]++
	return true
}

// RunOnce drives the tool-calling loop to completion (a final assistant
// message with no further tool calls) or until MaxTurns is exhausted, in
// which case it returns errs.KindMaxIterations so the caller can hand off
// to the continuation engine.
func (r *Runtime) RunOnce(ctx context.Context, history []message.Message) ([]message.Message, string, error) {
	ctx, span := telemetry.StartAgentTurn(ctx, r.Descriptor.Name)
	defer span.End()

	msgs := append([]message.Message(nil), history...)
	counts := newCallCounts()

	for turn := 0; turn < r.Descriptor.EffectiveMaxTurns(); turn++ {
		resp, err := r.Provider.Complete(ctx, provider.Request{
			System:   r.systemPrompt(),
			Messages: msgs,
			Tools:    r.Registry.Definitions(),
		})
		if err != nil {
			return msgs, "", err
		}

		assistantMsg := resp.Message
		if !assistantMsg.HasToolCalls() {
			msgs = append(msgs, assistantMsg)
			return msgs, assistantMsg.Text, nil
		}

		// Append the assistant turn with its reasoning/content already
		// suppressed per the reasoning-suppression policy; its tool-call
		// IDs are kept, since tool dispatch needs them.
		msgs = append(msgs, assistantMsg.Suppressed())
		toolMsgs, err := r.dispatchToolCalls(ctx, assistantMsg.ToolCalls, counts)
		if err != nil {
			return msgs, "", err
		}
		msgs = append(msgs, toolMsgs...)
	}

	return msgs, "", errs.New(errs.KindMaxIterations, fmt.Sprintf("%s exceeded max turns", r.Descriptor.Name))
}

// SystemPrompt returns the effective system prompt for this Runtime,
// including the read-only reinforcement when applicable. Exported so an
// alternate consumer of the same Descriptor/Provider/Registry (the
// interactive runner's streaming loop) doesn't have to re-derive it.
func (r *Runtime) SystemPrompt() string { return r.systemPrompt() }

func (r *Runtime) systemPrompt() string {
	if !r.Descriptor.IsReadOnly {
		return r.Descriptor.SystemPrompt
	}
	return r.Descriptor.SystemPrompt + "\n\nIMPORTANT: You are a READ-ONLY agent. Never write, modify, create, move, or delete files or directories."
}

// dispatchToolCalls executes every requested tool call concurrently,
// preserving the original call order in the returned tool-result messages
// regardless of completion order.
func (r *Runtime) dispatchToolCalls(ctx context.Context, calls []message.ToolCall, counts *callCounts) ([]message.Message, error) {
	results := make([]message.Message, len(calls))
	g, gctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = r.executeOne(gctx, call, counts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// executeOne runs a single tool call, translating a missing tool, a
// call-limit breach, or an execution error into a tool-result message the
// model can react to, rather than failing the whole turn.
func (r *Runtime) executeOne(ctx context.Context, call message.ToolCall, counts *callCounts) message.Message {
	ctx, span := telemetry.StartToolExecution(ctx, call.Name)
	defer span.End()

	t, ok := r.Registry.Get(call.Name)
	if !ok {
		return message.ToolResult(call.ID, call.Name, fmt.Sprintf("error: unknown tool %q", call.Name))
	}

	limit := r.Descriptor.ToolLimits[call.Name]
	if !counts.allowAndCount(call.Name, limit) {
		return message.ToolResult(call.ID, call.Name,
			fmt.Sprintf("error: tool %q has reached its call limit (%d) for this task", call.Name, limit))
	}

	out, err := r.Pool.Dispatch(ctx, t, call.Arguments)
	if err != nil {
		return message.ToolResult(call.ID, call.Name, fmt.Sprintf("error: %v", err))
	}
	if out.IsError {
		return message.ToolResult(call.ID, call.Name, "error: "+out.Content)
	}
	content := out.Content
	if r.Chunker != nil && r.Chunker.ShouldChunk(content) {
		if summarized, err := r.Chunker.ProcessLargeContent(ctx, content, call.Arguments); err == nil {
			content = summarized
		}
	}
	return message.ToolResult(call.ID, call.Name, content)
}
