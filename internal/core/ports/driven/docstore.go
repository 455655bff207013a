package driven

import (
	"context"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// DocStore persists generated documentation and chat history.
// The store exclusively owns the FileDoc/RepoDoc lifecycle: saving a
// RepoDoc supersedes the previous one for the same repository and
// replaces its file docs. Chat turns are append-only.
type DocStore interface {
	// SaveRepoDoc stores a repository doc and its file docs,
	// superseding any prior doc for the same repository.
	SaveRepoDoc(ctx context.Context, doc *domain.RepoDoc) error

	// GetRepoDoc retrieves the current doc for a repository.
	// Returns domain.ErrNotFound when none exists.
	GetRepoDoc(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error)

	// GetFileDoc retrieves a single file doc by path.
	// Returns domain.ErrNotFound when none exists.
	GetFileDoc(ctx context.Context, ref domain.RepositoryRef, path string) (*domain.FileDoc, error)

	// ListRepos returns the repositories with stored documentation.
	ListRepos(ctx context.Context) ([]domain.RepositoryRef, error)

	// AppendChatTurn records a completed question/answer exchange.
	AppendChatTurn(ctx context.Context, turn domain.ChatTurn) error

	// ListChatTurns returns the conversation history for a
	// repository ordered by creation time ascending.
	ListChatTurns(ctx context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error)

	// Close releases resources.
	Close() error
}
