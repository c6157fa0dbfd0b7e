package compaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/message"
)

func TestNeedsObservationRequiresStrictlyGreater(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 100, Hysteresis: 0})
	o.bytesSinceObserve = 100
	assert.False(t, o.NeedsObservation(), "exactly at threshold must not trigger")
	o.bytesSinceObserve = 101
	assert.True(t, o.NeedsObservation())
}

func TestNeedsObservationRespectsHysteresis(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 100, Hysteresis: 50})
	o.bytesSinceObserve = 120
	assert.False(t, o.NeedsObservation(), "within hysteresis band must not re-trigger")
	o.bytesSinceObserve = 151
	assert.True(t, o.NeedsObservation())
}

func TestFindSafeSplitPointAvoidsSeparatingToolCallFromResult(t *testing.T) {
	msgs := []message.Message{
		message.User("do a thing"),                 // 0
		withToolCalls(message.Assistant(""), "c1"), // 1
		message.ToolResult("c1", "read_file", "ok"), // 2
		message.Assistant("done"),                   // 3
	}

	// Splitting at index 2 would separate the assistant's tool call
	// (msgs[1]) from its matching tool result (msgs[2]); the pair must stay
	// together, so the split moves back to 1 or earlier.
	split := FindSafeSplitPoint(msgs, 2)
	assert.LessOrEqual(t, split, 1)

	// Splitting at 3 is safe: the pair (1,2) stays together before the cut.
	split = FindSafeSplitPoint(msgs, 3)
	assert.Equal(t, 3, split)
}

func withToolCalls(m message.Message, id string) message.Message {
	m.ToolCalls = []message.ToolCall{{ID: id, Name: "read_file", Arguments: "{}"}}
	return m
}

func TestCompactIsNoOpWhenBelowThreshold(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 1_000_000, PreserveRecent: 1})
	msgs := []message.Message{message.User("hi"), message.Assistant("hello")}
	called := false
	err := o.Compact(context.Background(), &msgs, func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
		called = true
		return "", nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Len(t, msgs, 2)
}

func TestCompactPreservesStateOnCompactorFailure(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 1, PreserveRecent: 1, Hysteresis: 0})
	original := []message.Message{message.User("aaaaaaaaaa"), message.Assistant("bbbbbbbbbb"), message.User("recent")}
	msgs := append([]message.Message(nil), original...)
	o.RecordMessages(msgs...)

	boom := assertErr{}
	err := o.Compact(context.Background(), &msgs, func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
		return "", boom
	})
	require.Error(t, err)
	assert.Equal(t, original, msgs, "failed compaction must leave messages untouched")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestCompactPreservesStateOnEmptyObservation(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 1, PreserveRecent: 1, Hysteresis: 0})
	original := []message.Message{message.User("aaaaaaaaaa"), message.Assistant("bbbbbbbbbb"), message.User("recent")}
	msgs := append([]message.Message(nil), original...)
	o.RecordMessages(msgs...)

	err := o.Compact(context.Background(), &msgs, func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
		return "   ", nil
	})
	require.NoError(t, err)
	assert.Equal(t, original, msgs, "an empty observation must leave messages untouched")
	assert.Empty(t, o.LogText(), "an empty observation must not append a blank log entry")
}

func TestReflectPreservesLogOnEmptySummary(t *testing.T) {
	o := New(Config{ObservationThresholdBytes: 0})
	o.log = []Entry{{Text: "existing entry"}}

	err := o.reflect(context.Background(), func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	require.Len(t, o.log, 1)
	assert.Equal(t, "existing entry", o.log[0].Text, "an empty reflection must not overwrite the existing log")
}

func TestCompactDrainsObservedMessagesOnSuccess(t *testing.T) {
	o := New(Config{MessageThresholdBytes: 1, PreserveRecent: 1, Hysteresis: 0})
	msgs := []message.Message{message.User("aaaaaaaaaa"), message.Assistant("bbbbbbbbbb"), message.User("recent")}
	o.RecordMessages(msgs...)

	err := o.Compact(context.Background(), &msgs, func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
		return "summary of earlier turns", nil
	})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, "recent", msgs[0].Text)
	assert.Contains(t, o.LogText(), "summary of earlier turns")
}
