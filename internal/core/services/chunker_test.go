package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

func makeFile(path, content string) domain.SourceFile {
	return domain.SourceFile{
		Path:      path,
		SizeBytes: int64(len(content)),
		Content:   []byte(content),
	}
}

// reassemble rebuilds the original text from chunks using their
// absolute line ranges, skipping lines already covered by a previous
// chunk.
func reassemble(t *testing.T, text string, chunks []domain.Chunk) string {
	t.Helper()
	lines := splitLines(text)

	var b strings.Builder
	covered := 0
	for _, chunk := range chunks {
		start := chunk.StartLine - 1
		if start < covered {
			start = covered
		}
		require.LessOrEqual(t, chunk.EndLine, len(lines))
		for i := start; i < chunk.EndLine; i++ {
			b.WriteString(lines[i])
		}
		covered = chunk.EndLine
	}
	return b.String()
}

func TestChunkSingleChunkUnderBudget(t *testing.T) {
	chunker := NewChunker()
	content := "package main\n\nfunc main() {}\n"

	chunks := chunker.Chunk(makeFile("main.go", content))

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, "main.go", chunks[0].FilePath)
}

func TestChunkSkippedAndEmptyFiles(t *testing.T) {
	chunker := NewChunker()

	skipped := makeFile("big.bin", "data")
	skipped.Skip = true
	skipped.SkipReason = domain.SkipBinary
	assert.Nil(t, chunker.Chunk(skipped))

	assert.Nil(t, chunker.Chunk(makeFile("empty.go", "")))
}

func TestChunkSplitsOnLineBoundaries(t *testing.T) {
	chunker := NewChunker(WithChunkTokens(25))

	var b strings.Builder
	for range 40 {
		b.WriteString("alpha beta gamma delta epsilon zeta eta theta iota kappa\n")
	}
	content := b.String()

	chunks := chunker.Chunk(makeFile("big.py", content))
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.True(t, strings.HasSuffix(chunk.Text, "\n"),
			"chunk %d does not end on a line boundary", i)
		if i > 0 {
			assert.Equal(t, chunks[i-1].EndLine+1, chunk.StartLine)
		}
	}

	assert.Equal(t, content, reassemble(t, content, chunks))
}

func TestChunkRoundTripWithOverlap(t *testing.T) {
	chunker := NewChunker(WithChunkTokens(60), WithOverlapLines(2))

	var b strings.Builder
	for i := range 60 {
		b.WriteString(strings.Repeat("word ", 10))
		if i%3 == 0 {
			b.WriteString("extra trailing tokens here")
		}
		b.WriteString("\n")
	}
	content := b.String()

	chunks := chunker.Chunk(makeFile("service.go", content))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartLine, chunks[i-1].EndLine+1,
			"gap between chunk %d and %d", i-1, i)
	}

	assert.Equal(t, content, reassemble(t, content, chunks))
}

func TestChunkFileWithoutTrailingNewline(t *testing.T) {
	chunker := NewChunker()
	content := "line one\nline two"

	chunks := chunker.Chunk(makeFile("notes.txt", content))

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text)
	assert.Equal(t, 2, chunks[0].EndLine)
}

func TestChunkOversizedSingleLine(t *testing.T) {
	chunker := NewChunker(WithChunkTokens(5))
	content := strings.Repeat("minified code segment ", 50) + "\n"

	chunks := chunker.Chunk(makeFile("bundle.min.js", content))

	// A single line over budget still becomes one chunk.
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text)
}
