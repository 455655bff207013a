package domain

import "time"

// FileDoc is the generated documentation for a single file. There is
// at most one FileDoc per (repository, path); it records the content
// digest it was generated from so staleness can be detected.
type FileDoc struct {
	// Repo identifies the repository this documentation belongs to.
	Repo RepositoryRef

	// Path is the documented file's path within the repository.
	Path string

	// Summary is the generated documentation text. Empty when Failed.
	Summary string

	// LanguageHint is carried from the source file for display.
	LanguageHint string

	// SourceDigest is the content digest the summary was generated
	// from. A mismatch with the live file means the doc is stale.
	SourceDigest string

	// Failed marks a file whose summarisation failed after retries.
	Failed bool

	// FailReason holds the failure detail when Failed is true.
	FailReason string

	// GeneratedAt is when the summary was produced.
	GeneratedAt time.Time
}

// RepoDoc aggregates all FileDocs for a repository revision together
// with a repository-level overview. Exactly one current RepoDoc
// exists per repository; generating a new one supersedes the prior.
type RepoDoc struct {
	// Repo identifies the documented repository and revision.
	Repo RepositoryRef

	// Description is the host-side repository description.
	Description string

	// PrimaryLanguage is the host-reported dominant language.
	PrimaryLanguage string

	// Overview is the generated repository-level documentation.
	Overview string

	// Diagram is an optional Mermaid flowchart of the architecture,
	// fenced in a ```mermaid block. Empty when not generated.
	Diagram string

	// FileDocs are the per-file docs in deterministic presentation
	// order: directory depth ascending, then path alphabetical.
	FileDocs []FileDoc

	// Incomplete lists paths whose summarisation failed. Skipped
	// files (binaries, vendored, oversized) are not failures and do
	// not appear here.
	Incomplete []string

	// Complete is false when any file's summarisation failed.
	Complete bool

	// GeneratedAt is when this RepoDoc was produced.
	GeneratedAt time.Time
}

// FileDoc returns the per-file doc for a path, or nil.
func (d *RepoDoc) FileDoc(path string) *FileDoc {
	for i := range d.FileDocs {
		if d.FileDocs[i].Path == path {
			return &d.FileDocs[i]
		}
	}
	return nil
}
