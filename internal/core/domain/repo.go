package domain

import "strings"

// RepositoryRef identifies the unit of documentation: one repository
// at one revision. It is immutable once a fetch has resolved it.
type RepositoryRef struct {
	// Owner is the account or organisation that owns the repository.
	Owner string

	// Name is the repository name.
	Name string

	// Revision is the branch or commit the documentation describes.
	// Empty means the host's default branch; the fetcher resolves it.
	Revision string
}

// String returns the canonical "owner/name" form.
func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// Key returns the storage key for this repository. Documentation is
// keyed per repository; a new generation supersedes the prior one.
func (r RepositoryRef) Key() string {
	return strings.ToLower(r.Owner + "/" + r.Name)
}

// ParseRepositoryRef parses an "owner/name" string.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, ErrInvalidInput
	}
	return RepositoryRef{Owner: parts[0], Name: parts[1]}, nil
}

// SkipReason explains why a file was excluded from summarisation.
// A skip is an expected exclusion, not a failure.
type SkipReason string

// Skip reasons assigned by the selector and the fetcher.
const (
	SkipVendored   SkipReason = "vendored"
	SkipBinary     SkipReason = "binary"
	SkipTooLarge   SkipReason = "too_large"
	SkipEmpty      SkipReason = "empty"
	SkipFetchError SkipReason = "fetch_error"
)

// SourceFile is a file discovered in a repository tree. Content is
// held transiently for the duration of a generation run; only the
// digest and derived documentation are durable.
type SourceFile struct {
	// Path is the file path, unique within a repository.
	Path string

	// SizeBytes is the file size as reported by the host.
	SizeBytes int64

	// LanguageHint is a best-effort language name derived from the
	// file extension, used for prompt construction.
	LanguageHint string

	// Digest is the host content digest (git blob SHA). A FileDoc
	// generated from a different digest is stale.
	Digest string

	// Content is the raw file bytes. Nil for skipped files.
	Content []byte

	// Skip marks the file as excluded from summarisation.
	Skip bool

	// SkipReason explains the exclusion when Skip is true.
	SkipReason SkipReason
}

// Chunk is a bounded slice of one file's text. Chunks exist only long
// enough to be summarised; Index ordering is significant because a
// file's chunks are summarised strictly in order.
type Chunk struct {
	// FilePath is the path of the file this chunk belongs to.
	FilePath string

	// Index is the ordinal position within the file, starting at 0.
	Index int

	// StartLine is the absolute 1-based first line of the chunk.
	StartLine int

	// EndLine is the absolute 1-based last line of the chunk.
	EndLine int

	// Text is the chunk content.
	Text string
}

// RepositoryInfo is host metadata about a fetched repository.
type RepositoryInfo struct {
	// Ref is the repository reference with Revision resolved.
	Ref RepositoryRef

	// Description is the host-side repository description.
	Description string

	// PrimaryLanguage is the host-reported dominant language.
	PrimaryLanguage string

	// Topics are the host-side repository topics.
	Topics []string
}

// FetchResult is the outcome of one repository fetch: resolved
// metadata plus the discovered files. Files the fetcher could not
// read are present with Skip=true and SkipReason=SkipFetchError.
type FetchResult struct {
	Info  RepositoryInfo
	Files []SourceFile
}
