package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuppressedKeepsToolCalls(t *testing.T) {
	m := Assistant("thinking out loud")
	m.ToolCalls = []ToolCall{{ID: "1", Name: "read_file", Arguments: `{"path":"a.go"}`}}
	m.Reasoning = "internal chain of thought"

	s := m.Suppressed()

	require.Empty(t, s.Text)
	require.Empty(t, s.Reasoning)
	assert.Len(t, s.ToolCalls, 1)
	assert.Equal(t, "read_file", s.ToolCalls[0].Name)
}

func TestByteCountCountsPartsAndToolCalls(t *testing.T) {
	plain := User("hello")
	assert.Equal(t, 5, plain.ByteCount())

	withParts := Message{Role: RoleUser, Parts: []Part{{Kind: PartText, Text: "ab"}, {Kind: PartImage, Data: "x"}}}
	assert.Greater(t, withParts.ByteCount(), 0)

	withCalls := Assistant("")
	withCalls.ToolCalls = []ToolCall{{ID: "a", Name: "b", Arguments: "{}"}}
	assert.Equal(t, len("a")+len("b")+len("{}"), withCalls.ByteCount())
}

func TestToStringLossyReplacesNonTextParts(t *testing.T) {
	m := Message{Parts: []Part{{Kind: PartText, Text: "hi"}, {Kind: PartImage, Data: "blob"}}}
	assert.Equal(t, "hi\n[+]", m.ToStringLossy())
}

func TestTotalBytes(t *testing.T) {
	msgs := []Message{User("ab"), Assistant("cde")}
	assert.Equal(t, 5, TotalBytes(msgs))
}
