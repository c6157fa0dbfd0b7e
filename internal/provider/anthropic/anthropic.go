// Package anthropic adapts the Anthropic Messages API to the runtime's
// Provider interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

// Provider calls the Anthropic API via the official SDK client.
type Provider struct {
	client anthropic.Client
	model  string
}

// Config configures the adapter.
type Config struct {
	APIKey string
	Model  string
}

// New constructs an anthropic-backed Provider.
func New(cfg Config) *Provider {
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

func toAnthropicMessages(msgs []message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case message.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.ToStringLossy())))
		case message.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case message.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Text, false)))
		}
	}
	return out
}

func (p *Provider) buildParams(req provider.Request) anthropic.MessageNewParams {
	tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
	for _, d := range req.Tools {
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{},
			},
		})
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     tools,
	}
}

// Complete issues a single non-streamed completion request.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	params := p.buildParams(req)
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return provider.Response{}, classify(err)
	}

	out := message.Assistant("")
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += v.Text
		case anthropic.ToolUseBlock:
			argBytes, _ := json.Marshal(v.Input)
			out.ToolCalls = append(out.ToolCalls, message.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: string(argBytes),
			})
		}
	}

	return provider.Response{
		Message:      out,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Stream issues a streamed completion request.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	params := p.buildParams(req)
	events := make(chan provider.StreamEvent, 16)

	go func() {
		defer close(events)
		stream := p.client.Messages.NewStreaming(ctx, params)
		events <- provider.StreamEvent{Kind: provider.EventStart}

		// acc mirrors the SDK's own accumulation helper so the final
		// Content blocks (including completed tool_use input) are
		// available at Done without re-parsing the raw event sequence.
		var acc anthropic.Message
		activeToolCallID := ""
		for stream.Next() {
			event := stream.Current()
			_ = acc.Accumulate(event)

			switch v := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if tu, ok := v.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
					activeToolCallID = tu.ID
					events <- provider.StreamEvent{Kind: provider.EventToolCallStart, ToolCallID: tu.ID, ToolCallName: tu.Name}
				}
			case anthropic.ContentBlockDeltaEvent:
				switch d := v.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					events <- provider.StreamEvent{Kind: provider.EventDelta, TextDelta: d.Text}
				case anthropic.ThinkingDelta:
					events <- provider.StreamEvent{Kind: provider.EventThinkingDelta, TextDelta: d.Thinking}
				case anthropic.InputJSONDelta:
					events <- provider.StreamEvent{Kind: provider.EventToolCallDelta, ToolCallID: activeToolCallID, ArgsDelta: d.PartialJSON}
				}
			case anthropic.ContentBlockStopEvent:
				activeToolCallID = ""
			}
		}
		if err := stream.Err(); err != nil {
			events <- provider.StreamEvent{Kind: provider.EventError, Err: classify(err)}
			return
		}

		out := message.Assistant("")
		for _, block := range acc.Content {
			switch v := block.AsAny().(type) {
			case anthropic.TextBlock:
				out.Text += v.Text
			case anthropic.ToolUseBlock:
				argBytes, _ := json.Marshal(v.Input)
				out.ToolCalls = append(out.ToolCalls, message.ToolCall{ID: v.ID, Name: v.Name, Arguments: string(argBytes)})
			}
		}
		events <- provider.StreamEvent{Kind: provider.EventDone, Final: &provider.Response{
			Message:      out,
			InputTokens:  int(acc.Usage.InputTokens),
			OutputTokens: int(acc.Usage.OutputTokens),
		}}
	}()

	return events, nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.StatusCode {
		case 401, 403:
			return errs.Wrap(errs.KindProviderAuth, "anthropic auth failed", err)
		case 429:
			return errs.Wrap(errs.KindProviderRateLimit, "anthropic rate limited", err)
		case 400:
			return errs.Wrap(errs.KindProviderBadRequest, "anthropic rejected request", err)
		default:
			return errs.Wrap(errs.KindProviderAPI, fmt.Sprintf("anthropic API error (status %d)", apiErr.StatusCode), err)
		}
	}
	return errs.Wrap(errs.KindProviderNetwork, "anthropic request failed", err)
}

func asAPIError(err error, target **anthropic.Error) bool {
	if apiErr, ok := err.(*anthropic.Error); ok {
		*target = apiErr
		return true
	}
	return false
}
