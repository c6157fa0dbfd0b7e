package continuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

func TestExtractTagFindsFirstOccurrence(t *testing.T) {
	text := "preamble <steps_taken>read 3 files</steps_taken> trailing <discoveries>found bug</discoveries>"
	assert.Equal(t, "read 3 files", extractTag(text, "steps_taken"))
	assert.Equal(t, "found bug", extractTag(text, "discoveries"))
	assert.Equal(t, "", extractTag(text, "remaining_work"))
}

type stubProvider struct {
	resp provider.Response
}

func (s stubProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	return s.resp, nil
}
func (s stubProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	return nil, nil
}

func TestRunWithContinuationSucceedsWithoutRetry(t *testing.T) {
	runner := func(ctx context.Context, history []message.Message) ([]message.Message, string, error) {
		return history, "all done", nil
	}
	res := RunWithContinuation(context.Background(), DefaultConfig(), stubProvider{}, runner, "task", nil)
	assert.True(t, res.Success)
	assert.Equal(t, "all done", res.PartialResult)
	assert.Equal(t, 0, res.ContinuationsUsed)
}

func TestRunWithContinuationRetriesOnMaxIterations(t *testing.T) {
	calls := 0
	runner := func(ctx context.Context, history []message.Message) ([]message.Message, string, error) {
		calls++
		if calls < 3 {
			return history, "", errs.New(errs.KindMaxIterations, "exhausted")
		}
		return history, "finished on retry", nil
	}
	p := stubProvider{resp: provider.Response{Message: message.Assistant(
		"<steps_taken>x</steps_taken><discoveries>y</discoveries><accomplishments>z</accomplishments><remaining_work>w</remaining_work><important_context>c</important_context>",
	)}}
	res := RunWithContinuation(context.Background(), DefaultConfig(), p, runner, "task", nil)
	require.True(t, res.Success)
	assert.Equal(t, "finished on retry", res.PartialResult)
	assert.Equal(t, 2, res.ContinuationsUsed)
}

func TestRunWithContinuationGivesUpAfterBudget(t *testing.T) {
	runner := func(ctx context.Context, history []message.Message) ([]message.Message, string, error) {
		return history, "", errs.New(errs.KindMaxIterations, "exhausted")
	}
	p := stubProvider{resp: provider.Response{Message: message.Assistant(
		"<steps_taken>x</steps_taken><accomplishments>wrote the parser</accomplishments><remaining_work>wire up tests</remaining_work>",
	)}}
	cfg := Config{MaxContinuations: 2, Enabled: true}
	res := RunWithContinuation(context.Background(), cfg, p, runner, "task", nil)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.ContinuationsUsed)
	assert.Equal(t, errs.KindMaxIterations, errs.KindOf(res.Err))
	assert.Equal(t, "wrote the parserwire up tests", res.PartialResult)
}

func TestRunWithContinuationDoesNotRetryNonMaxIterationErrors(t *testing.T) {
	runner := func(ctx context.Context, history []message.Message) ([]message.Message, string, error) {
		return history, "", errs.New(errs.KindProviderAuth, "bad key")
	}
	res := RunWithContinuation(context.Background(), DefaultConfig(), stubProvider{}, runner, "task", nil)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.ContinuationsUsed)
}
