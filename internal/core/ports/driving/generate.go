package driving

import (
	"context"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// GenerateOptions configures one generation run.
type GenerateOptions struct {
	// Force regenerates even when a fresh cached doc exists.
	Force bool

	// Diagram also generates a Mermaid architecture diagram.
	Diagram bool
}

// Generator runs the documentation pipeline for a repository:
// fetch, select, chunk, summarise, aggregate, store.
//
// Concurrent calls for the same repository trigger exactly one
// underlying run; later callers wait for and receive the first
// caller's result.
type Generator interface {
	// Generate produces (or returns cached) documentation.
	Generate(ctx context.Context, ref domain.RepositoryRef, opts GenerateOptions) (*domain.RepoDoc, error)

	// Get returns the stored documentation without generating.
	Get(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error)
}
