package services

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/logger"
)

// Retrieval defaults.
const (
	// DefaultTopK is how many file docs a context bundle carries.
	DefaultTopK = 5

	// DefaultMinScore is the relevance floor below which a file doc
	// is excluded from the bundle.
	DefaultMinScore = 1.0

	// pathTokenWeight boosts matches against path tokens over
	// matches against summary text.
	pathTokenWeight = 2.0
)

// Retriever selects the stored documentation most relevant to a chat
// question. Scoring is deterministic lexical overlap, not a black
// box: the same question over the same docs always yields the same
// ranking. Ties break by shorter file path, then lexicographically.
type Retriever struct {
	store    driven.DocStore
	topK     int
	minScore float64
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the number of file docs retrieved.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore sets the relevance floor.
func WithMinScore(s float64) RetrieverOption {
	return func(r *Retriever) {
		if s >= 0 {
			r.minScore = s
		}
	}
}

// NewRetriever creates a retriever over the documentation store.
func NewRetriever(store driven.DocStore, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:    store,
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve builds the context bundle for a question. The repository
// overview is always included; when no file doc scores above the
// floor the bundle is flagged LowContext and carries only the
// overview.
func (r *Retriever) Retrieve(
	ctx context.Context, ref domain.RepositoryRef, question string,
) (*domain.ContextBundle, error) {
	doc, err := r.store.GetRepoDoc(ctx, ref)
	if err != nil {
		return nil, err
	}

	queryTokens := tokenize(question)

	type scored struct {
		fd    domain.FileDoc
		score float64
	}

	var candidates []scored
	for _, fd := range doc.FileDocs {
		if fd.Failed {
			continue
		}
		score := overlapScore(queryTokens, fd)
		if score >= r.minScore {
			candidates = append(candidates, scored{fd: fd, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if len(candidates[i].fd.Path) != len(candidates[j].fd.Path) {
			return len(candidates[i].fd.Path) < len(candidates[j].fd.Path)
		}
		return candidates[i].fd.Path < candidates[j].fd.Path
	})

	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}

	bundle := &domain.ContextBundle{
		Repo:       doc.Repo,
		Overview:   doc.Overview,
		LowContext: len(candidates) == 0,
	}
	for _, c := range candidates {
		bundle.FileDocs = append(bundle.FileDocs, c.fd)
	}

	logger.Debug("Retrieved %d file docs for question (low_context=%t)",
		len(bundle.FileDocs), bundle.LowContext)

	return bundle, nil
}

// overlapScore counts question tokens present in the file doc, with
// path-token matches weighted above summary matches.
func overlapScore(queryTokens []string, fd domain.FileDoc) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	pathTokens := make(map[string]bool)
	for _, t := range tokenize(fd.Path) {
		pathTokens[t] = true
	}
	summaryTokens := make(map[string]bool)
	for _, t := range tokenize(fd.Summary) {
		summaryTokens[t] = true
	}

	score := 0.0
	for _, t := range queryTokens {
		switch {
		case pathTokens[t]:
			score += pathTokenWeight
		case summaryTokens[t]:
			score++
		}
	}
	return score
}

// tokenize lowercases and splits on any non-alphanumeric rune,
// dropping single-character fragments.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
