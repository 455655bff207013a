// Package memory provides an in-memory DocStore, used in tests and
// as a reference implementation of the DocStore port.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocStore = (*DocStore)(nil)

// DocStore keeps documentation and chat history in process memory.
// Safe for concurrent use.
type DocStore struct {
	mu    sync.RWMutex
	docs  map[string]*domain.RepoDoc
	turns map[string][]domain.ChatTurn
}

// NewDocStore creates an empty in-memory store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs:  make(map[string]*domain.RepoDoc),
		turns: make(map[string][]domain.ChatTurn),
	}
}

// SaveRepoDoc stores a deep copy of the doc, superseding any prior
// doc for the same repository.
func (s *DocStore) SaveRepoDoc(_ context.Context, doc *domain.RepoDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Repo.Key()] = copyDoc(doc)
	return nil
}

// GetRepoDoc returns a copy of the stored doc.
func (s *DocStore) GetRepoDoc(_ context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[ref.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDoc(doc), nil
}

// GetFileDoc returns the stored doc for one file path.
func (s *DocStore) GetFileDoc(_ context.Context, ref domain.RepositoryRef, path string) (*domain.FileDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[ref.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fd := doc.FileDoc(path)
	if fd == nil {
		return nil, domain.ErrNotFound
	}
	copied := *fd
	return &copied, nil
}

// ListRepos returns every repository with stored documentation,
// ordered by repository key.
func (s *DocStore) ListRepos(_ context.Context) ([]domain.RepositoryRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]domain.RepositoryRef, 0, len(s.docs))
	for _, doc := range s.docs {
		refs = append(refs, doc.Repo)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Key() < refs[j].Key()
	})
	return refs, nil
}

// AppendChatTurn records a turn.
func (s *DocStore) AppendChatTurn(_ context.Context, turn domain.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := turn.Repo.Key()
	s.turns[key] = append(s.turns[key], turn)
	return nil
}

// ListChatTurns returns the history for a repository, oldest first.
func (s *DocStore) ListChatTurns(_ context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[ref.Key()]
	out := make([]domain.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Close is a no-op.
func (s *DocStore) Close() error {
	return nil
}

func copyDoc(doc *domain.RepoDoc) *domain.RepoDoc {
	copied := *doc
	copied.FileDocs = make([]domain.FileDoc, len(doc.FileDocs))
	copy(copied.FileDocs, doc.FileDocs)
	copied.Incomplete = make([]string, len(doc.Incomplete))
	copy(copied.Incomplete, doc.Incomplete)
	return &copied
}
