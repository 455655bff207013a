package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/core/ports/driving"
	"github.com/sujeethshingade/docster/internal/logger"
)

// Ensure Generator implements the interface.
var _ driving.Generator = (*Generator)(nil)

// Generation defaults.
const (
	// DefaultConcurrency bounds parallel file summarisation within one
	// run, to respect backend rate limits.
	DefaultConcurrency = 4

	// DefaultStaleSample is how many stored file docs are digest-checked
	// before a cached doc is accepted on an explicit generate call.
	DefaultStaleSample = 5
)

// Generator orchestrates the documentation pipeline:
// fetch, select, chunk, summarise, aggregate, store.
//
// A per-repository generation lock guarantees at most one run in
// flight: concurrent Generate calls for the same repository join the
// running generation and all receive its result.
type Generator struct {
	fetcher    driven.RepositoryFetcher
	store      driven.DocStore
	selector   *Selector
	chunker    *Chunker
	summarizer *Summarizer
	aggregator *Aggregator

	concurrency int
	staleSample int

	mu       sync.Mutex
	inflight map[string]*generation
}

// generation tracks one in-progress run. Waiters block on done and
// then read doc/err.
type generation struct {
	done chan struct{}
	doc  *domain.RepoDoc
	err  error
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithConcurrency bounds parallel file summarisation.
func WithConcurrency(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithStaleSample sets how many file docs are digest-sampled when
// deciding whether a cached doc is still current.
func WithStaleSample(n int) GeneratorOption {
	return func(g *Generator) {
		if n >= 0 {
			g.staleSample = n
		}
	}
}

// NewGenerator creates the pipeline orchestrator.
func NewGenerator(
	fetcher driven.RepositoryFetcher,
	store driven.DocStore,
	selector *Selector,
	chunker *Chunker,
	summarizer *Summarizer,
	aggregator *Aggregator,
	opts ...GeneratorOption,
) *Generator {
	g := &Generator{
		fetcher:     fetcher,
		store:       store,
		selector:    selector,
		chunker:     chunker,
		summarizer:  summarizer,
		aggregator:  aggregator,
		concurrency: DefaultConcurrency,
		staleSample: DefaultStaleSample,
		inflight:    make(map[string]*generation),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get returns the stored documentation without generating. Reads are
// never blocked on a staleness check.
func (g *Generator) Get(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error) {
	return g.store.GetRepoDoc(ctx, ref)
}

// Generate produces documentation for a repository, serving a cached
// doc when the sampled source digests still match. Concurrent calls
// for the same repository share a single run.
func (g *Generator) Generate(
	ctx context.Context, ref domain.RepositoryRef, opts driving.GenerateOptions,
) (*domain.RepoDoc, error) {
	if !opts.Force {
		if doc, ok := g.cachedCurrent(ctx, ref); ok {
			logger.Info("Serving cached documentation for %s", ref)
			return doc, nil
		}
	}

	key := ref.Key()

	g.mu.Lock()
	if gen, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		logger.Debug("Joining in-progress generation for %s", ref)
		select {
		case <-gen.done:
			return gen.doc, gen.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	gen := &generation{done: make(chan struct{})}
	g.inflight[key] = gen
	g.mu.Unlock()

	// The lock is released on every exit path, including panics in
	// the run itself.
	defer func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
		close(gen.done)
	}()

	gen.doc, gen.err = g.run(ctx, ref, opts)
	return gen.doc, gen.err
}

// cachedCurrent reports whether a stored doc exists and its sampled
// source digests still match the live repository. Probe failures are
// treated as stale so an explicit generate proceeds.
func (g *Generator) cachedCurrent(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, bool) {
	doc, err := g.store.GetRepoDoc(ctx, ref)
	if err != nil {
		return nil, false
	}
	if g.staleSample == 0 {
		return doc, true
	}

	paths := make([]string, 0, g.staleSample)
	for _, fd := range doc.FileDocs {
		if fd.Failed {
			continue
		}
		paths = append(paths, fd.Path)
		if len(paths) == g.staleSample {
			break
		}
	}
	if len(paths) == 0 {
		return nil, false
	}

	digests, err := g.fetcher.ProbeDigests(ctx, ref, paths)
	if err != nil {
		logger.Warn("Staleness probe failed for %s: %v", ref, err)
		return nil, false
	}

	for _, fd := range doc.FileDocs {
		live, ok := digests[fd.Path]
		if !ok {
			continue
		}
		if live != fd.SourceDigest {
			logger.Info("Cached documentation for %s is stale (%s changed)", ref, fd.Path)
			return nil, false
		}
	}

	return doc, true
}

// run executes one full generation.
func (g *Generator) run(
	ctx context.Context, ref domain.RepositoryRef, opts driving.GenerateOptions,
) (*domain.RepoDoc, error) {
	logger.Section(fmt.Sprintf("Generating documentation for %s", ref))
	start := time.Now()

	result, err := g.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	files := g.selector.Select(result.Files)

	var kept []domain.SourceFile
	for _, f := range files {
		if !f.Skip {
			kept = append(kept, f)
		}
	}
	logger.Info("Selected %d of %d files for summarisation", len(kept), len(files))

	fileDocs, cancelled := g.summarizeAll(ctx, result.Info, kept)

	// Aggregation and persistence run detached from the caller's
	// context: summaries already paid for are not discarded on
	// cancellation.
	storeCtx := context.WithoutCancel(ctx)

	if len(fileDocs) == 0 {
		if cancelled {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("no documentable files in %s", ref)
	}

	doc, err := g.aggregator.Aggregate(storeCtx, result.Info, fileDocs)
	if err != nil {
		return nil, err
	}

	if cancelled {
		// Files never scheduled count as missing, not failed; the doc
		// is marked incomplete so a later run fills them in.
		done := make(map[string]bool, len(fileDocs))
		for _, fd := range fileDocs {
			done[fd.Path] = true
		}
		for _, f := range kept {
			if !done[f.Path] {
				doc.Incomplete = append(doc.Incomplete, f.Path)
			}
		}
		doc.Complete = len(doc.Incomplete) == 0
	}

	if opts.Diagram {
		if err := g.aggregator.GenerateDiagram(storeCtx, doc); err != nil {
			logger.Warn("Diagram generation failed for %s: %v", ref, err)
		}
	}

	if err := g.store.SaveRepoDoc(storeCtx, doc); err != nil {
		return nil, fmt.Errorf("save documentation: %w", err)
	}

	logger.Info("Documentation for %s generated in %s (%d files, complete=%t)",
		ref, time.Since(start).Round(time.Millisecond), len(doc.FileDocs), doc.Complete)

	if cancelled {
		return doc, ctx.Err()
	}
	return doc, nil
}

// summarizeAll runs file summarisation tasks on a bounded worker
// pool. Within a file, chunks are strictly sequential; across files
// there is no ordering guarantee.
//
// Cancellation stops scheduling new files but lets in-flight tasks
// complete under a detached context, so their docs still land.
func (g *Generator) summarizeAll(
	ctx context.Context, info domain.RepositoryInfo, files []domain.SourceFile,
) (fileDocs []domain.FileDoc, cancelled bool) {
	workCh := make(chan domain.SourceFile)
	var mu sync.Mutex
	var wg sync.WaitGroup

	// In-flight tasks outlive caller cancellation.
	taskCtx := context.WithoutCancel(ctx)

	for range g.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range workCh {
				fd := g.summarizeOne(taskCtx, info, file)
				mu.Lock()
				fileDocs = append(fileDocs, fd)
				mu.Unlock()
			}
		}()
	}

	for _, file := range files {
		select {
		case <-ctx.Done():
			cancelled = true
		case workCh <- file:
			continue
		}
		break
	}
	close(workCh)
	wg.Wait()

	return fileDocs, cancelled
}

// summarizeOne produces the FileDoc for a single file. A failure is
// isolated to the file: the doc is marked failed, never aborting the
// run.
func (g *Generator) summarizeOne(
	ctx context.Context, info domain.RepositoryInfo, file domain.SourceFile,
) domain.FileDoc {
	fd := domain.FileDoc{
		Repo:         info.Ref,
		Path:         file.Path,
		LanguageHint: file.LanguageHint,
		SourceDigest: file.Digest,
		GeneratedAt:  time.Now().UTC(),
	}

	chunks := g.chunker.Chunk(file)
	summary, err := g.summarizer.SummarizeFile(ctx, info, file, chunks)
	if err != nil {
		logger.Warn("Summarisation failed for %s: %v", file.Path, err)
		fd.Failed = true
		fd.FailReason = err.Error()
		return fd
	}

	fd.Summary = summary
	return fd
}
