package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/logger"
)

// summaryMaxTokens bounds the length of a per-file summary.
const summaryMaxTokens = 1024

// fileSummaryPrompt documents a file that fits in a single chunk.
const fileSummaryPrompt = `You are an expert software engineer writing documentation for a codebase.

Generate concise documentation for the following file. Include:
- A brief description of what this file does
- Descriptions of the key functions, methods, classes, or types
- Important parameters and return values
- Any notable usage context

Repository: %s
File path: %s
Language: %s

Code:
%s

Documentation:`

// chunkSummaryPrompt documents one chunk of a larger file, carrying
// the accumulated summary of prior chunks as running context.
const chunkSummaryPrompt = `You are an expert software engineer writing documentation for a codebase.

You are documenting a large file one section at a time. Update and extend
the documentation below to cover the new section. Return the complete,
updated documentation for everything seen so far, not just the new section.

Repository: %s
File path: %s
Language: %s
Section: lines %d-%d

Documentation so far:
%s

Code section:
%s

Updated documentation:`

// Summarizer turns file content into structured per-file
// documentation via the generative backend. Prompt construction is
// deterministic; transient backend failures are retried under the
// shared bounded policy.
type Summarizer struct {
	llm   driven.LLMService
	retry RetryPolicy
}

// NewSummarizer creates a summarizer.
func NewSummarizer(llm driven.LLMService, retry RetryPolicy) *Summarizer {
	return &Summarizer{llm: llm, retry: retry}
}

// SummarizeFile produces the documentation text for one file from its
// ordered chunks. Chunks are summarised strictly in index order, each
// folding into a running summary; different files carry no ordering
// dependency and may be summarised concurrently by the caller.
//
// Non-retryable failures (backend rejection, malformed output) return
// *domain.SummarizationError.
func (s *Summarizer) SummarizeFile(
	ctx context.Context,
	info domain.RepositoryInfo,
	file domain.SourceFile,
	chunks []domain.Chunk,
) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	if len(chunks) == 0 {
		return "", &domain.SummarizationError{Path: file.Path, Reason: "no content to summarise"}
	}

	running := ""
	for _, chunk := range chunks {
		var prompt string
		if len(chunks) == 1 {
			prompt = fmt.Sprintf(fileSummaryPrompt,
				info.Ref.String(), file.Path, file.LanguageHint, chunk.Text)
		} else {
			prompt = fmt.Sprintf(chunkSummaryPrompt,
				info.Ref.String(), file.Path, file.LanguageHint,
				chunk.StartLine, chunk.EndLine, running, chunk.Text)
		}

		logger.Debug("Summarising %s chunk %d/%d (lines %d-%d)",
			file.Path, chunk.Index+1, len(chunks), chunk.StartLine, chunk.EndLine)

		var raw string
		err := s.retry.Do(ctx, func() error {
			var genErr error
			raw, genErr = s.llm.Generate(ctx, prompt, driven.GenerateOptions{
				MaxTokens:   summaryMaxTokens,
				Temperature: 0.1,
			})
			return genErr
		})
		if err != nil {
			if domain.IsTransient(err) {
				// Retries exhausted; surface with the file attached.
				return "", &domain.SummarizationError{Path: file.Path, Reason: err.Error()}
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &domain.SummarizationError{Path: file.Path, Reason: err.Error()}
		}

		summary, ok := parseSummary(raw)
		if !ok {
			return "", &domain.SummarizationError{Path: file.Path, Reason: "malformed backend response"}
		}
		running = summary
	}

	return running, nil
}

// parseSummary validates and normalises backend output into plain
// documentation text. Returns false when the output has no usable
// content.
func parseSummary(raw string) (string, bool) {
	text := strings.TrimSpace(raw)

	// Strip a markdown fence wrapping the entire response.
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if text == "" {
		return "", false
	}
	return text, true
}
