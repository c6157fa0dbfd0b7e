// Package openai adapts an OpenAI-compatible chat completions API to the
// runtime's Provider interface, demonstrating that the interface is not
// tied to any single vendor.
package openai

import (
	"context"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

// Provider calls a chat-completions endpoint via go-openai.
type Provider struct {
	client *gopenai.Client
	model  string
}

// Config configures the adapter. BaseURL allows pointing at any
// OpenAI-compatible endpoint (local or hosted).
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New constructs an openai-backed Provider.
func New(cfg Config) *Provider {
	conf := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &Provider{client: gopenai.NewClientWithConfig(conf), model: cfg.Model}
}

func toOpenAIMessages(system string, msgs []message.Message) []gopenai.ChatCompletionMessage {
	out := make([]gopenai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, gopenai.ChatCompletionMessage{Role: gopenai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		cm := gopenai.ChatCompletionMessage{Content: m.ToStringLossy()}
		switch m.Role {
		case message.RoleUser:
			cm.Role = gopenai.ChatMessageRoleUser
		case message.RoleAssistant:
			cm.Role = gopenai.ChatMessageRoleAssistant
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, gopenai.ToolCall{
					ID:   tc.ID,
					Type: gopenai.ToolTypeFunction,
					Function: gopenai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		case message.RoleTool:
			cm.Role = gopenai.ChatMessageRoleTool
			cm.ToolCallID = m.ToolCallID
			cm.Name = m.Name
		}
		out = append(out, cm)
	}
	return out
}

func buildTools(req provider.Request) []gopenai.Tool {
	tools := make([]gopenai.Tool, 0, len(req.Tools))
	for _, d := range req.Tools {
		params := map[string]any{
			"type":       d.Parameters.Type,
			"properties": d.Parameters.Properties,
			"required":   d.Parameters.Required,
		}
		tools = append(tools, gopenai.Tool{
			Type: gopenai.ToolTypeFunction,
			Function: &gopenai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

// Complete issues a single non-streamed completion request.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	resp, err := p.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.System, req.Messages),
		Tools:       buildTools(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return provider.Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return provider.Response{}, errs.New(errs.KindProviderAPI, "openai returned no choices")
	}
	choice := resp.Choices[0].Message
	out := message.Assistant(choice.Content)
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return provider.Response{
		Message:      out,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Stream issues a streamed completion request.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, gopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.System, req.Messages),
		Tools:       buildTools(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, classify(err)
	}

	events := make(chan provider.StreamEvent, 16)
	go func() {
		defer close(events)
		defer stream.Close()

		events <- provider.StreamEvent{Kind: provider.EventStart}
		acc := message.Assistant("")
		// toolCalls accumulates streamed function-call fragments by their
		// delta index; go-openai repeats the index on every fragment of
		// the same call but only sends ID/Name on the first one.
		var order []int
		toolCalls := map[int]*message.ToolCall{}

		for {
			resp, err := stream.Recv()
			if err != nil {
				if err.Error() == "EOF" {
					for _, idx := range order {
						acc.ToolCalls = append(acc.ToolCalls, *toolCalls[idx])
					}
					events <- provider.StreamEvent{Kind: provider.EventDone, Final: &provider.Response{Message: acc}}
					return
				}
				events <- provider.StreamEvent{Kind: provider.EventError, Err: classify(err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta

			if delta.Content != "" {
				acc.Text += delta.Content
				events <- provider.StreamEvent{Kind: provider.EventDelta, TextDelta: delta.Content}
			}

			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				call, seen := toolCalls[idx]
				if !seen {
					call = &message.ToolCall{ID: tc.ID, Name: tc.Function.Name}
					toolCalls[idx] = call
					order = append(order, idx)
					events <- provider.StreamEvent{Kind: provider.EventToolCallStart, ToolCallID: tc.ID, ToolCallName: tc.Function.Name}
				}
				if tc.Function.Arguments != "" {
					call.Arguments += tc.Function.Arguments
					events <- provider.StreamEvent{Kind: provider.EventToolCallDelta, ToolCallID: call.ID, ArgsDelta: tc.Function.Arguments}
				}
			}
		}
	}()

	return events, nil
}

func classify(err error) error {
	var apiErr *gopenai.APIError
	if asAPIError(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return errs.Wrap(errs.KindProviderAuth, "openai auth failed", err)
		case 429:
			return errs.Wrap(errs.KindProviderRateLimit, "openai rate limited", err)
		case 400:
			return errs.Wrap(errs.KindProviderBadRequest, "openai rejected request", err)
		default:
			return errs.Wrap(errs.KindProviderAPI, "openai API error", err)
		}
	}
	return errs.Wrap(errs.KindProviderNetwork, "openai request failed", err)
}

func asAPIError(err error, target **gopenai.APIError) bool {
	if apiErr, ok := err.(*gopenai.APIError); ok {
		*target = apiErr
		return true
	}
	return false
}
