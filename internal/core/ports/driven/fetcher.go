package driven

import (
	"context"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// RepositoryFetcher retrieves repository metadata and file contents
// from a source-control host. Fetching is a pure retrieval step with
// no persisted side effects.
//
// A single unreadable file must not abort a fetch: such files are
// returned with Skip=true and SkipReason=SkipFetchError. Only a
// host-level failure (repository entirely inaccessible, credentials
// rejected) returns an error.
//
// On host throttling the fetcher performs at most one internal retry
// using the host-provided backoff hint, then surfaces
// *domain.RateLimitedError and lets the caller decide.
type RepositoryFetcher interface {
	// Fetch retrieves the file tree and contents for a repository.
	// An empty ref.Revision resolves to the host's default branch.
	Fetch(ctx context.Context, ref domain.RepositoryRef) (*domain.FetchResult, error)

	// ProbeDigests returns the current content digests for the given
	// paths without downloading content. Used for cheap staleness
	// sampling against stored FileDocs.
	ProbeDigests(ctx context.Context, ref domain.RepositoryRef, paths []string) (map[string]string, error)
}
