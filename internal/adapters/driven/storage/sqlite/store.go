// Package sqlite provides a SQLite-backed DocStore. The database is a
// single file with WAL enabled; schema migrations are embedded and
// applied at startup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sujeethshingade/docster/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocStore = (*Store)(nil)

// Store is a SQLite-backed documentation store.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path and applies
// pending migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc.org/sqlite serialises writes; one connection avoids
	// SQLITE_BUSY under concurrent generations.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Opened documentation store at %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveRepoDoc stores a repository doc and its file docs in one
// transaction, superseding any prior doc for the same repository.
func (s *Store) SaveRepoDoc(ctx context.Context, doc *domain.RepoDoc) error {
	incomplete, err := json.Marshal(doc.Incomplete)
	if err != nil {
		return fmt.Errorf("marshal incomplete paths: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	key := doc.Repo.Key()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO repo_docs
			(repo_key, owner, name, revision, description, primary_language,
			 overview, diagram, incomplete, complete, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_key) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			revision = excluded.revision,
			description = excluded.description,
			primary_language = excluded.primary_language,
			overview = excluded.overview,
			diagram = excluded.diagram,
			incomplete = excluded.incomplete,
			complete = excluded.complete,
			generated_at = excluded.generated_at`,
		key, doc.Repo.Owner, doc.Repo.Name, doc.Repo.Revision,
		doc.Description, doc.PrimaryLanguage, doc.Overview, doc.Diagram,
		string(incomplete), boolToInt(doc.Complete),
		doc.GeneratedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert repo doc: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_docs WHERE repo_key = ?`, key); err != nil {
		return fmt.Errorf("clear file docs: %w", err)
	}

	for i, fd := range doc.FileDocs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO file_docs
				(repo_key, path, position, summary, language_hint,
				 source_digest, failed, fail_reason, generated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, fd.Path, i, fd.Summary, fd.LanguageHint,
			fd.SourceDigest, boolToInt(fd.Failed), fd.FailReason,
			fd.GeneratedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert file doc %s: %w", fd.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRepoDoc loads the current doc for a repository.
func (s *Store) GetRepoDoc(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoDoc, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT owner, name, revision, description, primary_language,
		       overview, diagram, incomplete, complete, generated_at
		FROM repo_docs WHERE repo_key = ?`, ref.Key())

	doc, err := scanRepoDoc(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, summary, language_hint, source_digest, failed,
		       fail_reason, generated_at
		FROM file_docs WHERE repo_key = ? ORDER BY position`, ref.Key())
	if err != nil {
		return nil, fmt.Errorf("query file docs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		fd, err := scanFileDoc(rows, doc.Repo)
		if err != nil {
			return nil, err
		}
		doc.FileDocs = append(doc.FileDocs, fd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file docs: %w", err)
	}

	return doc, nil
}

// GetFileDoc loads one file doc by path.
func (s *Store) GetFileDoc(ctx context.Context, ref domain.RepositoryRef, path string) (*domain.FileDoc, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, summary, language_hint, source_digest, failed,
		       fail_reason, generated_at
		FROM file_docs WHERE repo_key = ? AND path = ?`, ref.Key(), path)

	fd, err := scanFileDoc(row, ref)
	if err != nil {
		return nil, err
	}
	return &fd, nil
}

// ListRepos returns every repository with stored documentation,
// ordered by key.
func (s *Store) ListRepos(ctx context.Context) ([]domain.RepositoryRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, name, revision FROM repo_docs ORDER BY repo_key`)
	if err != nil {
		return nil, fmt.Errorf("query repos: %w", err)
	}
	defer rows.Close()

	var refs []domain.RepositoryRef
	for rows.Next() {
		var ref domain.RepositoryRef
		if err := rows.Scan(&ref.Owner, &ref.Name, &ref.Revision); err != nil {
			return nil, fmt.Errorf("scan repo: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// AppendChatTurn records a completed exchange.
func (s *Store) AppendChatTurn(ctx context.Context, turn domain.ChatTurn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, repo_key, owner, name, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.Repo.Key(), turn.Repo.Owner, turn.Repo.Name,
		turn.Question, turn.Answer, turn.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// ListChatTurns returns the history for a repository, oldest first.
func (s *Store) ListChatTurns(ctx context.Context, ref domain.RepositoryRef) ([]domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, question, answer, created_at
		FROM chat_turns WHERE repo_key = ? ORDER BY created_at, id`, ref.Key())
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var turn domain.ChatTurn
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.Repo.Owner, &turn.Repo.Name,
			&turn.Question, &turn.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turn.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse chat turn time: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepoDoc(row rowScanner) (*domain.RepoDoc, error) {
	var doc domain.RepoDoc
	var incomplete, generatedAt string
	var complete int

	err := row.Scan(&doc.Repo.Owner, &doc.Repo.Name, &doc.Repo.Revision,
		&doc.Description, &doc.PrimaryLanguage, &doc.Overview, &doc.Diagram,
		&incomplete, &complete, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan repo doc: %w", err)
	}

	if err := json.Unmarshal([]byte(incomplete), &doc.Incomplete); err != nil {
		return nil, fmt.Errorf("unmarshal incomplete paths: %w", err)
	}
	doc.Complete = complete != 0
	doc.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse repo doc time: %w", err)
	}
	return &doc, nil
}

func scanFileDoc(row rowScanner, ref domain.RepositoryRef) (domain.FileDoc, error) {
	var fd domain.FileDoc
	var failed int
	var generatedAt string

	err := row.Scan(&fd.Path, &fd.Summary, &fd.LanguageHint,
		&fd.SourceDigest, &failed, &fd.FailReason, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fd, domain.ErrNotFound
	}
	if err != nil {
		return fd, fmt.Errorf("scan file doc: %w", err)
	}

	fd.Repo = ref
	fd.Failed = failed != 0
	fd.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return fd, fmt.Errorf("parse file doc time: %w", err)
	}
	return fd, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
