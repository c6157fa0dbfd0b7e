package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

type fakeProvider struct{ calls int }

func (f *fakeProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	f.calls++
	return provider.Response{Message: message.Assistant("summary:" + req.Messages[0].Text[:10])}, nil
}
func (f *fakeProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	return nil, nil
}

func TestShouldChunkRespectsThreshold(t *testing.T) {
	p := New(Config{MaxChunkBytes: 10}, &fakeProvider{})
	assert.False(t, p.ShouldChunk("short"))
	assert.True(t, p.ShouldChunk(strings.Repeat("x", 20)))
}

func TestIsBinaryContentDetectsNulBytes(t *testing.T) {
	assert.True(t, IsBinaryContent("abc\x00def"))
	assert.False(t, IsBinaryContent("plain text\nwith lines\n"))
}

func TestChunkContentPacksParagraphs(t *testing.T) {
	p := New(Config{MaxChunkBytes: 15}, &fakeProvider{})
	content := "para one here\n\npara two here\n\npara three here"
	chunks, truncated := p.ChunkContent(content)
	require.NotEmpty(t, chunks)
	assert.False(t, truncated)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 15+len("\n\npara three here"))
	}
}

func TestProcessLargeContentSkipsSmallContent(t *testing.T) {
	fp := &fakeProvider{}
	p := New(DefaultConfig(), fp)
	out, err := p.ProcessLargeContent(context.Background(), "tiny", "query")
	require.NoError(t, err)
	assert.Equal(t, "tiny", out)
	assert.Equal(t, 0, fp.calls)
}

func TestProcessLargeContentSummarizesSingleOversizedChunk(t *testing.T) {
	fp := &fakeProvider{}
	p := New(Config{MaxChunkBytes: 10, MaxChunks: 20, Parallel: true}, fp)
	out, err := p.ProcessLargeContent(context.Background(), strings.Repeat("a", 20), "query")
	require.NoError(t, err)
	assert.Contains(t, out, "summary:")
	assert.Equal(t, 1, fp.calls)
}

func TestProcessLargeContentTruncatesExcessChunks(t *testing.T) {
	p := New(Config{MaxChunkBytes: 5, MaxChunks: 2}, &fakeProvider{})
	content := strings.Repeat("word ", 20)
	chunks, truncated := p.ChunkContent(content)
	assert.LessOrEqual(t, len(chunks), 2)
	assert.True(t, truncated)
}

// Scenario 6: 120KB of paragraphs, threshold 50KB, chunk target 10KB, max
// chunks 20 -> exactly 12 chunks, no truncation note.
func TestProcessLargeContentScenario6ChunkerBoundary(t *testing.T) {
	fp := &fakeProvider{}
	p := New(Config{ThresholdBytes: 50_000, MaxChunkBytes: 10_000, MaxChunks: 20, Parallel: true}, fp)

	paragraph := strings.Repeat("a", 990)
	var b strings.Builder
	for i := 0; i < 120; i++ {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(paragraph)
	}
	content := b.String()
	require.Greater(t, len(content), 50_000)

	chunks, truncated := p.ChunkContent(content)
	assert.Equal(t, 12, len(chunks))
	assert.False(t, truncated)

	out, err := p.ProcessLargeContent(context.Background(), content, "query")
	require.NoError(t, err)
	assert.Contains(t, out, "### Chunk 1 of 12")
	assert.NotContains(t, out, "truncated")
}

func TestShouldChunkUsesThresholdNotChunkSize(t *testing.T) {
	p := New(Config{ThresholdBytes: 50_000, MaxChunkBytes: 10_000}, &fakeProvider{})
	assert.False(t, p.ShouldChunk(strings.Repeat("x", 20_000)))
	assert.True(t, p.ShouldChunk(strings.Repeat("x", 50_001)))
}

func TestProcessLargeContentAppendsTruncationNoteAndChunkHeadings(t *testing.T) {
	fp := &fakeProvider{}
	p := New(Config{MaxChunkBytes: 5, MaxChunks: 2, Parallel: true}, fp)
	out, err := p.ProcessLargeContent(context.Background(), strings.Repeat("word ", 20), "query")
	require.NoError(t, err)
	assert.Contains(t, out, "### Chunk 1 of 2")
	assert.Contains(t, out, "### Chunk 2 of 2")
	assert.Contains(t, out, "Output was truncated")
}

func TestProcessLargeContentFormatsBinaryWithByteNoticeAndHead(t *testing.T) {
	fp := &fakeProvider{}
	p := New(Config{MaxChunkBytes: 10, MaxChunks: 20}, fp)
	binary := strings.Repeat("\x00\x01\x02\x03", 10)
	out, err := p.ProcessLargeContent(context.Background(), binary, "query")
	require.NoError(t, err)
	assert.Contains(t, out, "Binary content detected")
	assert.Contains(t, out, "40 bytes")
	assert.Equal(t, 0, fp.calls, "binary content must not be summarized")
}

func TestSummarizeChunkFailureProducesErrorNote(t *testing.T) {
	fp := &failingProvider{}
	p := New(Config{MaxChunkBytes: 5, MaxChunks: 20, Parallel: false}, fp)
	out, err := p.ProcessLargeContent(context.Background(), strings.Repeat("word ", 20), "query")
	require.NoError(t, err)
	assert.Contains(t, out, "[Error summarizing chunk 1:")
}

type failingProvider struct{}

func (f *failingProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	return provider.Response{}, assert.AnError
}
func (f *failingProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	return nil, nil
}
