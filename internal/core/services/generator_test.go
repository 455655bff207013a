package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/core/ports/driving"
)

var genRef = domain.RepositoryRef{Owner: "acme", Name: "widgets"}

func fetchResult(files ...domain.SourceFile) *domain.FetchResult {
	return &domain.FetchResult{
		Info: domain.RepositoryInfo{
			Ref: domain.RepositoryRef{Owner: "acme", Name: "widgets", Revision: "main"},
		},
		Files: files,
	}
}

func sourceFile(path, content, digest string) domain.SourceFile {
	f := makeFile(path, content)
	f.Digest = digest
	return f
}

// overviewAware returns an LLM whose Generate distinguishes the
// overview prompt from per-file prompts.
func overviewAware(fileFn func(prompt string) (string, error)) *mockLLM {
	return &mockLLM{
		generateFn: func(prompt string, _ driven.GenerateOptions) (string, error) {
			if strings.Contains(prompt, "expert software architect") {
				return "repository overview", nil
			}
			if fileFn != nil {
				return fileFn(prompt)
			}
			return "file summary", nil
		},
	}
}

func newTestGenerator(fetcher *mockFetcher, store driven.DocStore, llm driven.LLMService, opts ...GeneratorOption) *Generator {
	retry := fastRetry()
	return NewGenerator(
		fetcher,
		store,
		NewSelector(),
		NewChunker(),
		NewSummarizer(llm, retry),
		NewAggregator(llm, retry),
		opts...,
	)
}

func TestGenerateFullPipeline(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			binary := domain.SourceFile{Path: "logo.png", SizeBytes: 3, Digest: "d3", Content: []byte{0x00, 0x01, 0x02}}
			return fetchResult(
				sourceFile("main.go", "package main\n", "d1"),
				sourceFile("util.go", "package util\n", "d2"),
				binary,
			), nil
		},
	}
	store := newMockDocStore()
	g := newTestGenerator(fetcher, store, overviewAware(nil))

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{})

	require.NoError(t, err)
	assert.True(t, doc.Complete)
	assert.Empty(t, doc.Incomplete)
	assert.Equal(t, "repository overview", doc.Overview)

	// Skipped binaries are neither documented nor failures.
	require.Len(t, doc.FileDocs, 2)
	assert.NotNil(t, doc.FileDoc("main.go"))
	assert.NotNil(t, doc.FileDoc("util.go"))
	assert.Nil(t, doc.FileDoc("logo.png"))

	assert.Equal(t, "d1", doc.FileDoc("main.go").SourceDigest)

	stored, err := store.GetRepoDoc(context.Background(), genRef)
	require.NoError(t, err)
	assert.Equal(t, doc.Overview, stored.Overview)
}

func TestGenerateServesCachedWhenDigestsMatch(t *testing.T) {
	store := newMockDocStore()
	require.NoError(t, store.SaveRepoDoc(context.Background(), &domain.RepoDoc{
		Repo:     genRef,
		Overview: "cached overview",
		FileDocs: []domain.FileDoc{{Path: "main.go", Summary: "s", SourceDigest: "d1"}},
		Complete: true,
	}))

	fetcher := &mockFetcher{
		probeFn: func(_ context.Context, _ domain.RepositoryRef, paths []string) (map[string]string, error) {
			assert.Equal(t, []string{"main.go"}, paths)
			return map[string]string{"main.go": "d1"}, nil
		},
	}
	llm := overviewAware(nil)
	g := newTestGenerator(fetcher, store, llm)

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "cached overview", doc.Overview)
	assert.Equal(t, 0, fetcher.fetchCount())
	assert.Equal(t, 0, llm.promptCount())
}

func TestGenerateRegeneratesWhenStale(t *testing.T) {
	store := newMockDocStore()
	require.NoError(t, store.SaveRepoDoc(context.Background(), &domain.RepoDoc{
		Repo:     genRef,
		Overview: "cached overview",
		FileDocs: []domain.FileDoc{{Path: "main.go", Summary: "s", SourceDigest: "d1"}},
		Complete: true,
	}))

	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			return fetchResult(sourceFile("main.go", "package main\n", "d2")), nil
		},
		probeFn: func(context.Context, domain.RepositoryRef, []string) (map[string]string, error) {
			return map[string]string{"main.go": "d2"}, nil
		},
	}
	g := newTestGenerator(fetcher, store, overviewAware(nil))

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "repository overview", doc.Overview)
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestGenerateForceBypassesCache(t *testing.T) {
	store := newMockDocStore()
	require.NoError(t, store.SaveRepoDoc(context.Background(), &domain.RepoDoc{
		Repo:     genRef,
		Overview: "cached overview",
		FileDocs: []domain.FileDoc{{Path: "main.go", Summary: "s", SourceDigest: "d1"}},
		Complete: true,
	}))

	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			return fetchResult(sourceFile("main.go", "package main\n", "d1")), nil
		},
		probeFn: func(context.Context, domain.RepositoryRef, []string) (map[string]string, error) {
			t.Fatal("force must not probe the cache")
			return nil, nil
		},
	}
	g := newTestGenerator(fetcher, store, overviewAware(nil))

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{Force: true})

	require.NoError(t, err)
	assert.Equal(t, "repository overview", doc.Overview)
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestGenerateSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	fetcher := &mockFetcher{
		probeFn: func(context.Context, domain.RepositoryRef, []string) (map[string]string, error) {
			return map[string]string{"main.go": "d1"}, nil
		},
	}
	fetcher.fetchFn = func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
		once.Do(func() { close(entered) })
		<-release
		return fetchResult(sourceFile("main.go", "package main\n", "d1")), nil
	}

	store := newMockDocStore()
	g := newTestGenerator(fetcher, store, overviewAware(nil))

	const callers = 5
	results := make([]*domain.RepoDoc, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = g.Generate(context.Background(), genRef, driving.GenerateOptions{})
		}()
	}

	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "repository overview", results[i].Overview)
	}
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestGeneratePartialFailureMarksIncomplete(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			return fetchResult(
				sourceFile("good.go", "package good\n", "d1"),
				sourceFile("bad.go", "package bad\n", "d2"),
			), nil
		},
	}
	store := newMockDocStore()
	llm := overviewAware(func(prompt string) (string, error) {
		if strings.Contains(prompt, "bad.go") {
			return "", errors.New("model refused")
		}
		return "file summary", nil
	})
	g := newTestGenerator(fetcher, store, llm)

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{})

	require.NoError(t, err)
	assert.False(t, doc.Complete)
	assert.Equal(t, []string{"bad.go"}, doc.Incomplete)

	bad := doc.FileDoc("bad.go")
	require.NotNil(t, bad)
	assert.True(t, bad.Failed)
	assert.NotEmpty(t, bad.FailReason)

	good := doc.FileDoc("good.go")
	require.NotNil(t, good)
	assert.False(t, good.Failed)
	assert.Equal(t, "file summary", good.Summary)
}

func TestGenerateCancellationKeepsCompletedWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			return fetchResult(
				sourceFile("first.go", "package first\n", "d1"),
				sourceFile("second.go", "package second\n", "d2"),
				sourceFile("third.go", "package third\n", "d3"),
			), nil
		},
	}
	store := newMockDocStore()

	llm := overviewAware(func(prompt string) (string, error) {
		if strings.Contains(prompt, "first.go") {
			// Cancel while the scheduler is blocked handing out the
			// next file; the in-flight summary still completes.
			cancel()
			time.Sleep(20 * time.Millisecond)
		}
		return "file summary", nil
	})

	g := newTestGenerator(fetcher, store, llm, WithConcurrency(1))

	doc, err := g.Generate(ctx, genRef, driving.GenerateOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, doc)

	// The in-flight file landed; unscheduled files are recorded as
	// missing, not failed.
	require.NotNil(t, doc.FileDoc("first.go"))
	assert.False(t, doc.FileDoc("first.go").Failed)
	assert.False(t, doc.Complete)
	assert.Contains(t, doc.Incomplete, "second.go")
	assert.Contains(t, doc.Incomplete, "third.go")

	// The partial doc was persisted despite cancellation.
	stored, storeErr := store.GetRepoDoc(context.Background(), genRef)
	require.NoError(t, storeErr)
	assert.False(t, stored.Complete)
}

func TestGenerateDiagramOption(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(context.Context, domain.RepositoryRef) (*domain.FetchResult, error) {
			return fetchResult(sourceFile("main.go", "package main\n", "d1")), nil
		},
	}
	store := newMockDocStore()
	llm := &mockLLM{
		generateFn: func(prompt string, _ driven.GenerateOptions) (string, error) {
			switch {
			case strings.Contains(prompt, "Mermaid flowchart"):
				return "flowchart LR\nA[CLI] --> B[(Store)]", nil
			case strings.Contains(prompt, "expert software architect"):
				return "repository overview", nil
			default:
				return "file summary", nil
			}
		},
	}
	g := newTestGenerator(fetcher, store, llm)

	doc, err := g.Generate(context.Background(), genRef, driving.GenerateOptions{Diagram: true})

	require.NoError(t, err)
	assert.Contains(t, doc.Diagram, "```mermaid")
	assert.Contains(t, doc.Diagram, "A[CLI] --> B[(Store)]")
}

func TestGetDoesNotFetch(t *testing.T) {
	store := newMockDocStore()
	fetcher := &mockFetcher{}
	g := newTestGenerator(fetcher, store, overviewAware(nil))

	_, err := g.Get(context.Background(), genRef)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, fetcher.fetchCount())
}
