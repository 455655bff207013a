package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

var ref = domain.RepositoryRef{Owner: "Acme", Name: "Widgets"}

func sampleDoc() *domain.RepoDoc {
	return &domain.RepoDoc{
		Repo:     ref,
		Overview: "overview",
		FileDocs: []domain.FileDoc{
			{Repo: ref, Path: "main.go", Summary: "entrypoint", SourceDigest: "d1"},
		},
		Complete:    true,
		GeneratedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetRepoDoc(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	_, err := store.GetRepoDoc(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveRepoDoc(ctx, sampleDoc()))

	got, err := store.GetRepoDoc(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "overview", got.Overview)
	require.Len(t, got.FileDocs, 1)
}

func TestSaveSupersedesPriorDoc(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRepoDoc(ctx, sampleDoc()))

	updated := sampleDoc()
	updated.Overview = "regenerated"
	updated.FileDocs = []domain.FileDoc{
		{Repo: ref, Path: "other.go", Summary: "new file"},
	}
	require.NoError(t, store.SaveRepoDoc(ctx, updated))

	got, err := store.GetRepoDoc(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "regenerated", got.Overview)
	require.Len(t, got.FileDocs, 1)
	assert.Equal(t, "other.go", got.FileDocs[0].Path)
}

func TestRepoKeyIsCaseInsensitive(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRepoDoc(ctx, sampleDoc()))

	got, err := store.GetRepoDoc(ctx, domain.RepositoryRef{Owner: "acme", Name: "widgets"})
	require.NoError(t, err)
	assert.Equal(t, "overview", got.Overview)
}

func TestGetFileDoc(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRepoDoc(ctx, sampleDoc()))

	fd, err := store.GetFileDoc(ctx, ref, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "entrypoint", fd.Summary)

	_, err = store.GetFileDoc(ctx, ref, "missing.go")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoredDocIsIsolatedFromCaller(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	doc := sampleDoc()
	require.NoError(t, store.SaveRepoDoc(ctx, doc))

	// Mutating the caller's copy must not affect the stored doc.
	doc.FileDocs[0].Summary = "mutated"

	got, err := store.GetRepoDoc(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "entrypoint", got.FileDocs[0].Summary)
}

func TestChatTurnsAppendAndList(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	turns, err := store.ListChatTurns(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, turns)

	for i, q := range []string{"first?", "second?"} {
		require.NoError(t, store.AppendChatTurn(ctx, domain.ChatTurn{
			ID:        string(rune('a' + i)),
			Repo:      ref,
			Question:  q,
			Answer:    "answer",
			CreatedAt: time.Now().UTC(),
		}))
	}

	turns, err = store.ListChatTurns(ctx, ref)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first?", turns[0].Question)
	assert.Equal(t, "second?", turns[1].Question)
}

func TestListRepos(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRepoDoc(ctx, sampleDoc()))

	other := sampleDoc()
	other.Repo = domain.RepositoryRef{Owner: "acme", Name: "gadgets"}
	require.NoError(t, store.SaveRepoDoc(ctx, other))

	refs, err := store.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "gadgets", refs[0].Name)
	assert.Equal(t, "Widgets", refs[1].Name)
}
