// Package chunker splits oversized tool output into natural-boundary
// pieces and summarizes each with an LLM, so a single huge file read or
// command output never blows an agent's context budget in one shot.
package chunker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
)

// Config tunes chunking and summarization behavior.
type Config struct {
	// ThresholdBytes is the trigger: content at or under this size passes
	// through ProcessLargeContent unchanged. Distinct from MaxChunkBytes
	// so a caller can, e.g., only chunk above 50KB while still packing
	// chunks to a 10KB target once triggered.
	ThresholdBytes int
	// MaxChunkBytes bounds each chunk's size once chunking is triggered.
	MaxChunkBytes int
	// MaxChunks caps how many chunks are produced; content beyond this
	// many chunks' worth is dropped with a truncation notice.
	MaxChunks int
	// Parallel runs chunk summarization concurrently when true.
	Parallel bool
	// SummaryModel optionally overrides the model used per-chunk.
	SummaryModel string
}

// DefaultConfig mirrors the original chunker's defaults.
func DefaultConfig() Config {
	return Config{ThresholdBytes: 8000, MaxChunkBytes: 8000, MaxChunks: 20, Parallel: true}
}

// threshold returns cfg.ThresholdBytes, falling back to MaxChunkBytes for
// configs constructed before the two were split (threshold == chunk size
// is the original chunker's behavior).
func (c Config) threshold() int {
	if c.ThresholdBytes > 0 {
		return c.ThresholdBytes
	}
	return c.MaxChunkBytes
}

// Processor chunks and summarizes oversized tool output.
type Processor struct {
	cfg      Config
	provider provider.Provider
}

// New constructs a Processor backed by provider for per-chunk summaries.
func New(cfg Config, p provider.Provider) *Processor {
	return &Processor{cfg: cfg, provider: p}
}

// ShouldChunk reports whether content exceeds the configured threshold.
func (p *Processor) ShouldChunk(content string) bool {
	return len(content) > p.cfg.threshold()
}

// IsBinaryContent heuristically detects non-text content by sampling for
// invalid UTF-8 or a high ratio of NUL/control bytes in the first 1000
// characters.
func IsBinaryContent(content string) bool {
	sample := content
	n := 0
	for i := range content {
		if n == 1000 {
			sample = content[:i]
			break
		}
		n++
	}
	if !utf8.ValidString(sample) {
		return true
	}
	if bytes.ContainsRune([]byte(sample), 0) {
		return true
	}
	controlCount := 0
	for _, r := range sample {
		if r < 32 && r != '\n' && r != '\t' && r != '\r' {
			controlCount++
		}
	}
	return len(sample) > 0 && float64(controlCount)/float64(len(sample)) > 0.3
}

// binaryHeadBytes is how much of a detected-binary tool output is kept in
// the byte-size notice, matching the original chunker's sample size.
const binaryHeadBytes = 500

// formatBinaryNotice renders the byte-size-notice-plus-head fallback used
// in place of summarization for content IsBinaryContent flags.
func formatBinaryNotice(content string) string {
	head := content
	if len(head) > binaryHeadBytes {
		head = head[:binaryHeadBytes]
	}
	return fmt.Sprintf("[Binary content detected, %d bytes]\n\n%s", len(content), head)
}

// ChunkContent splits content at the largest natural boundary that keeps
// each piece under MaxChunkBytes: first paragraph breaks, then lines,
// then raw whitespace as a last resort. The second return reports
// whether chunks beyond MaxChunks were dropped.
func (p *Processor) ChunkContent(content string) ([]string, bool) {
	limit := p.cfg.MaxChunkBytes
	if limit <= 0 {
		limit = 8000
	}
	if len(content) <= limit {
		return []string{content}, false
	}

	oversized := func(cs []string) bool {
		for _, c := range cs {
			if len(c) > limit {
				return true
			}
		}
		return false
	}
	chunks := splitOn(content, "\n\n", limit)
	if oversized(chunks) {
		chunks = splitOn(content, "\n", limit)
	}
	if oversized(chunks) {
		chunks = splitOn(content, " ", limit)
	}

	truncated := false
	if p.cfg.MaxChunks > 0 && len(chunks) > p.cfg.MaxChunks {
		chunks = chunks[:p.cfg.MaxChunks]
		truncated = true
	}
	return chunks, truncated
}

// splitOn greedily packs separator-delimited pieces into chunks no larger
// than limit, never splitting inside a piece even if that piece alone
// exceeds limit.
func splitOn(content, sep string, limit int) []string {
	pieces := strings.Split(content, sep)
	var chunks []string
	var current strings.Builder
	for i, piece := range pieces {
		addition := piece
		if i > 0 {
			addition = sep + piece
		}
		if current.Len() > 0 && current.Len()+len(addition) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			addition = piece
		}
		current.WriteString(addition)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}

const summarizePromptTemplate = `Summarize the following excerpt from a larger tool output. The original request was: %q

Preserve specific facts, file paths, names, and numbers. Be concise.

---
%s
---`

func (p *Processor) summarizeChunk(ctx context.Context, chunk, originalQuery string) (string, error) {
	resp, err := p.provider.Complete(ctx, provider.Request{
		Model: p.cfg.SummaryModel,
		Messages: []message.Message{
			message.User(fmt.Sprintf(summarizePromptTemplate, originalQuery, chunk)),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Text, nil
}

// ProcessLargeContent is the chunker's main entry point: if content is too
// small to chunk, it's returned unchanged; binary content is returned as a
// byte-size notice plus a short head instead of being summarized; a single
// oversized chunk is summarized directly without the chunk-count preamble;
// multiple chunks are summarized (in parallel unless Config.Parallel is
// false) and joined under "### Chunk K of N" headings, with a truncation
// note appended if MaxChunks dropped any.
func (p *Processor) ProcessLargeContent(ctx context.Context, content, originalQuery string) (string, error) {
	if !p.ShouldChunk(content) {
		return content, nil
	}
	if IsBinaryContent(content) {
		return formatBinaryNotice(content), nil
	}

	chunks, truncated := p.ChunkContent(content)
	if len(chunks) == 1 {
		return p.summarizeChunk(ctx, chunks[0], originalQuery)
	}

	var summaries []string
	var err error
	if p.cfg.Parallel {
		summaries, err = p.summarizeParallel(ctx, chunks, originalQuery)
	} else {
		summaries, err = p.summarizeSequential(ctx, chunks, originalQuery)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "### Chunk %d of %d\n%s\n\n", i+1, len(summaries), s)
	}
	if truncated {
		fmt.Fprintf(&b, "[Note: Output was truncated. Only first %d chunks processed.]\n", p.cfg.MaxChunks)
	}
	return strings.TrimSpace(b.String()), nil
}

// summarizeParallel summarizes every chunk concurrently, isolating a
// single chunk's failure as an inline error note rather than failing the
// whole operation.
func (p *Processor) summarizeParallel(ctx context.Context, chunks []string, originalQuery string) ([]string, error) {
	out := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			s, err := p.summarizeChunk(gctx, c, originalQuery)
			if err != nil {
				out[i] = fmt.Sprintf("[Error summarizing chunk %d: %v]", i+1, err)
				return nil
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// summarizeSequential summarizes chunks one at a time, in order.
func (p *Processor) summarizeSequential(ctx context.Context, chunks []string, originalQuery string) ([]string, error) {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		s, err := p.summarizeChunk(ctx, c, originalQuery)
		if err != nil {
			out[i] = fmt.Sprintf("[Error summarizing chunk %d: %v]", i+1, err)
			continue
		}
		out[i] = s
	}
	return out, nil
}
