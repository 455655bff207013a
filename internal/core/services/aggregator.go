package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/logger"
)

// overviewMaxTokens bounds the repository overview length.
const overviewMaxTokens = 2048

// diagramMaxTokens bounds the generated diagram length.
const diagramMaxTokens = 1024

// overviewPrompt produces the repository-level overview from the set
// of per-file summaries. Feeding summaries rather than raw source
// bounds the prompt size independent of repository size.
const overviewPrompt = `You are an expert software architect analysing a codebase.

Generate a comprehensive summary of the following repository based on
the per-file documentation below. Cover the purpose, main components,
architecture, and key features.

Repository: %s
Description: %s
Primary language: %s
Topics: %s

Per-file documentation:
%s

Summary:`

// diagramPrompt produces a Mermaid flowchart of the architecture.
const diagramPrompt = `Generate a Mermaid flowchart diagram showing the system architecture
of the repository described below. Follow these rules exactly:

1. Start with 'flowchart LR'
2. Use [Component Name] for services and [(Database Name)] for databases
3. Connect nodes with arrows using -->
4. Add labels between pipes: A -->|label text| B
5. Group related components in subgraphs

Generate only valid Mermaid flowchart syntax without any explanations
or markdown delimiters.

Repository: %s

Per-file documentation:
%s

Diagram:`

// Aggregator combines per-file summaries into a repository-level
// RepoDoc. This is the second pass of the two-pass design: it never
// sees raw source, only the first pass's summaries.
type Aggregator struct {
	llm   driven.LLMService
	retry RetryPolicy
	now   func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(llm driven.LLMService, retry RetryPolicy) *Aggregator {
	return &Aggregator{llm: llm, retry: retry, now: time.Now}
}

// Aggregate builds the RepoDoc from per-file docs. Failed docs are
// excluded from the overview input but listed under Incomplete; the
// overview is still generated from whatever succeeded.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	info domain.RepositoryInfo,
	fileDocs []domain.FileDoc,
) (*domain.RepoDoc, error) {
	if a.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	ordered := orderFileDocs(fileDocs)

	var incomplete []string
	var succeeded []domain.FileDoc
	for _, fd := range ordered {
		if fd.Failed {
			incomplete = append(incomplete, fd.Path)
			continue
		}
		succeeded = append(succeeded, fd)
	}

	prompt := fmt.Sprintf(overviewPrompt,
		info.Ref.String(),
		info.Description,
		info.PrimaryLanguage,
		strings.Join(info.Topics, ", "),
		formatSummaries(succeeded),
	)

	logger.Debug("Aggregating %d file docs (%d failed) for %s",
		len(ordered), len(incomplete), info.Ref)

	var raw string
	err := a.retry.Do(ctx, func() error {
		var genErr error
		raw, genErr = a.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   overviewMaxTokens,
			Temperature: 0.1,
		})
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("generate overview: %w", err)
	}

	overview, ok := parseSummary(raw)
	if !ok {
		return nil, fmt.Errorf("generate overview: malformed backend response")
	}

	return &domain.RepoDoc{
		Repo:            info.Ref,
		Description:     info.Description,
		PrimaryLanguage: info.PrimaryLanguage,
		Overview:        overview,
		FileDocs:        ordered,
		Incomplete:      incomplete,
		Complete:        len(incomplete) == 0,
		GeneratedAt:     a.now().UTC(),
	}, nil
}

// GenerateDiagram runs the optional third pass producing a Mermaid
// architecture diagram from the aggregated summaries. The result is
// attached to the doc; a failure leaves the doc usable without one.
func (a *Aggregator) GenerateDiagram(ctx context.Context, doc *domain.RepoDoc) error {
	if a.llm == nil {
		return domain.ErrLLMUnavailable
	}

	var succeeded []domain.FileDoc
	for _, fd := range doc.FileDocs {
		if !fd.Failed {
			succeeded = append(succeeded, fd)
		}
	}

	prompt := fmt.Sprintf(diagramPrompt, doc.Repo.String(), formatSummaries(succeeded))

	var raw string
	err := a.retry.Do(ctx, func() error {
		var genErr error
		raw, genErr = a.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   diagramMaxTokens,
			Temperature: 0.1,
		})
		return genErr
	})
	if err != nil {
		return fmt.Errorf("generate diagram: %w", err)
	}

	diagram, ok := cleanMermaid(raw)
	if !ok {
		return fmt.Errorf("generate diagram: no valid flowchart in backend response")
	}

	doc.Diagram = diagram
	return nil
}

// orderFileDocs returns docs sorted by directory depth ascending,
// then path alphabetical. The ordering affects only prompt
// construction and presentation, but must be deterministic so
// regeneration is reproducible.
func orderFileDocs(fileDocs []domain.FileDoc) []domain.FileDoc {
	ordered := append([]domain.FileDoc(nil), fileDocs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di := strings.Count(ordered[i].Path, "/")
		dj := strings.Count(ordered[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return ordered[i].Path < ordered[j].Path
	})
	return ordered
}

// formatSummaries renders per-file docs as prompt input.
func formatSummaries(fileDocs []domain.FileDoc) string {
	if len(fileDocs) == 0 {
		return "(no file documentation available)"
	}

	var b strings.Builder
	for _, fd := range fileDocs {
		fmt.Fprintf(&b, "### %s\n%s\n\n", fd.Path, fd.Summary)
	}
	return strings.TrimSpace(b.String())
}

// cleanMermaid normalises backend output into a fenced Mermaid block.
// Stray fences are removed and the diagram is forced to start with
// "flowchart". Returns false when no node connections are present.
func cleanMermaid(raw string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		lines = append(lines, line)
	}

	diagram := strings.TrimSpace(strings.Join(lines, "\n"))
	if diagram == "" || !strings.Contains(diagram, "-->") {
		return "", false
	}

	if !strings.HasPrefix(diagram, "flowchart") {
		diagram = "flowchart LR\n" + diagram
	}

	return "```mermaid\n" + diagram + "\n```", true
}
