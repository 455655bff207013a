package services

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// Chunking defaults. The token budget keeps a single chunk well
// inside the backend's context window after prompt scaffolding.
const (
	DefaultChunkTokens  = 3000
	DefaultOverlapLines = 0

	// chunkEncoding is the tiktoken encoding used for budgeting.
	chunkEncoding = "cl100k_base"

	// bytesPerTokenEstimate approximates tokens when the encoder is
	// unavailable.
	bytesPerTokenEstimate = 4
)

// Chunker splits kept files exceeding the token budget into chunks on
// line boundaries only, never mid-line. Each chunk retains absolute
// start/end lines so order can be reconstructed.
//
// Round-trip invariant: concatenating a file's chunks, after dropping
// the configured overlap lines from every chunk but the first,
// reproduces the original file text exactly.
type Chunker struct {
	budgetTokens int
	overlapLines int
	enc          *tiktoken.Tiktoken
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkTokens sets the per-chunk token budget.
func WithChunkTokens(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.budgetTokens = n
		}
	}
}

// WithOverlapLines sets how many trailing lines of one chunk are
// repeated at the start of the next.
func WithOverlapLines(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapLines = n
		}
	}
}

// NewChunker creates a chunker. The tiktoken encoder is loaded once;
// when unavailable (offline build without the embedded BPE data) the
// chunker falls back to a byte-based estimate.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		budgetTokens: DefaultChunkTokens,
		overlapLines: DefaultOverlapLines,
	}
	for _, opt := range opts {
		opt(c)
	}

	if enc, err := tiktoken.GetEncoding(chunkEncoding); err == nil {
		c.enc = enc
	}
	return c
}

// Chunk splits a file into ordered chunks. Files within the token
// budget yield exactly one chunk spanning the whole file. Skipped or
// empty files yield nil.
func (c *Chunker) Chunk(file domain.SourceFile) []domain.Chunk {
	if file.Skip || len(file.Content) == 0 {
		return nil
	}

	text := string(file.Content)
	lines := splitLines(text)

	tokens := make([]int, len(lines))
	total := 0
	for i, line := range lines {
		tokens[i] = c.countTokens(line)
		total += tokens[i]
	}

	if total <= c.budgetTokens {
		return []domain.Chunk{{
			FilePath:  file.Path,
			Index:     0,
			StartLine: 1,
			EndLine:   len(lines),
			Text:      text,
		}}
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(lines) {
		end := start
		used := 0
		for end < len(lines) {
			// A chunk always takes at least one line, even when a
			// single line exceeds the budget.
			if end > start && used+tokens[end] > c.budgetTokens {
				break
			}
			used += tokens[end]
			end++
		}

		chunks = append(chunks, domain.Chunk{
			FilePath:  file.Path,
			Index:     len(chunks),
			StartLine: start + 1,
			EndLine:   end,
			Text:      strings.Join(lines[start:end], ""),
		})

		if end >= len(lines) {
			break
		}

		next := end - c.overlapLines
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// OverlapLines returns the configured overlap window.
func (c *Chunker) OverlapLines() int {
	return c.overlapLines
}

// countTokens measures one line against the budget.
func (c *Chunker) countTokens(line string) int {
	if c.enc == nil {
		n := len(line) / bytesPerTokenEstimate
		if n == 0 {
			n = 1
		}
		return n
	}
	return len(c.enc.Encode(line, nil, nil))
}

// splitLines splits text into lines that keep their terminators, so
// joining them reproduces the input byte for byte.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
