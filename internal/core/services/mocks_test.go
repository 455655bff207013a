package services

import (
	"context"
	"sync"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
)

// mockLLM is a scriptable LLMService. generateFn/chatFn run under the
// mutex; recorded prompts are available for assertions.
type mockLLM struct {
	mu         sync.Mutex
	generateFn func(prompt string, opts driven.GenerateOptions) (string, error)
	chatFn     func(messages []driven.ChatMessage, opts driven.ChatOptions) (string, error)

	prompts      []string
	chatCalls    [][]driven.ChatMessage
	generateHits int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.generateHits++
	if m.generateFn != nil {
		return m.generateFn(prompt, opts)
	}
	return "generated summary", nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]driven.ChatMessage, len(messages))
	copy(copied, messages)
	m.chatCalls = append(m.chatCalls, copied)
	if m.chatFn != nil {
		return m.chatFn(messages, opts)
	}
	return "generated answer", nil
}

func (m *mockLLM) ModelName() string          { return "mock" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockFetcher is a scriptable RepositoryFetcher.
type mockFetcher struct {
	mu        sync.Mutex
	fetchFn   func(ctx context.Context, ref domain.RepositoryRef) (*domain.FetchResult, error)
	probeFn   func(ctx context.Context, ref domain.RepositoryRef, paths []string) (map[string]string, error)
	fetchHits int
}

func (m *mockFetcher) Fetch(ctx context.Context, ref domain.RepositoryRef) (*domain.FetchResult, error) {
	m.mu.Lock()
	m.fetchHits++
	fn := m.fetchFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, ref)
	}
	return &domain.FetchResult{Info: domain.RepositoryInfo{Ref: ref}}, nil
}

func (m *mockFetcher) ProbeDigests(ctx context.Context, ref domain.RepositoryRef, paths []string) (map[string]string, error) {
	m.mu.Lock()
	fn := m.probeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, ref, paths)
	}
	return map[string]string{}, nil
}

func (m *mockFetcher) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchHits
}

// mockDocStore is an in-memory DocStore for service tests.
type mockDocStore struct {
	mu    sync.Mutex
	docs  map[string]*domain.RepoDoc
	turns map[string][]domain.ChatTurn

	saveErr   error
	appendErr error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		docs:  make(map[string]*domain.RepoDoc),
		turns: make(map[string][]domain.ChatTurn),
	}
}

func (m *mockDocStore) SaveRepoDoc(_ context.Context, doc *domain.RepoDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[doc.Repo.Key()] = doc
	return nil
}

func (m *mockDocStore) GetRepoDoc(_ context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[ref.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocStore) GetFileDoc(_ context.Context, ref domain.RepositoryRef, path string) (*domain.FileDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[ref.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fd := doc.FileDoc(path)
	if fd == nil {
		return nil, domain.ErrNotFound
	}
	return fd, nil
}

func (m *mockDocStore) ListRepos(context.Context) ([]domain.RepositoryRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []domain.RepositoryRef
	for _, doc := range m.docs {
		refs = append(refs, doc.Repo)
	}
	return refs, nil
}

func (m *mockDocStore) AppendChatTurn(_ context.Context, turn domain.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	key := turn.Repo.Key()
	m.turns[key] = append(m.turns[key], turn)
	return nil
}

func (m *mockDocStore) ListChatTurns(_ context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChatTurn(nil), m.turns[ref.Key()]...), nil
}

func (m *mockDocStore) Close() error { return nil }

func (m *mockDocStore) turnCount(ref domain.RepositoryRef) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns[ref.Key()])
}

var (
	_ driven.LLMService        = (*mockLLM)(nil)
	_ driven.RepositoryFetcher = (*mockFetcher)(nil)
	_ driven.DocStore          = (*mockDocStore)(nil)
)
