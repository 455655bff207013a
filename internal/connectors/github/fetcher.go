package github

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.RepositoryFetcher = (*Fetcher)(nil)

// maxRetryAfter caps how long the fetcher sleeps on a throttled call
// before surfacing the rate limit to the caller.
const maxRetryAfter = 30 * time.Second

// extLanguages maps file extensions to language hints carried into
// summarisation prompts.
var extLanguages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".rb":    "Ruby",
	".rs":    "Rust",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Shell",
	".sql":   "SQL",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "CSS",
	".md":    "Markdown",
	".rst":   "reStructuredText",
	".json":  "JSON",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
	".xml":   "XML",
	".proto": "Protocol Buffers",
	".tf":    "Terraform",
}

// Fetcher retrieves repository contents through the GitHub API and
// implements the RepositoryFetcher port. Files that exceed the size
// cap are listed without content; files whose blob download fails are
// marked skipped rather than failing the whole fetch.
type Fetcher struct {
	client       *Client
	maxFileBytes int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxFileBytes sets the size above which file content is not
// downloaded.
func WithMaxFileBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxFileBytes = n
		}
	}
}

// NewFetcher creates a fetcher over the given client.
func NewFetcher(client *Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:       client,
		maxFileBytes: 256 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists the repository tree at the requested revision (or the
// default branch) and downloads the content of every regular file
// within the size cap. Entries keep the API's tree order.
func (f *Fetcher) Fetch(ctx context.Context, ref domain.RepositoryRef) (*domain.FetchResult, error) {
	repo, err := f.client.GetRepository(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}

	revision := ref.Revision
	if revision == "" {
		revision = repo.GetDefaultBranch()
	}

	tree, err := f.getTreeThrottled(ctx, ref, revision)
	if err != nil {
		return nil, err
	}
	if tree.GetTruncated() {
		logger.Warn("Tree listing for %s is truncated; some files will be missing", ref)
	}

	info := domain.RepositoryInfo{
		Ref:             domain.RepositoryRef{Owner: ref.Owner, Name: ref.Name, Revision: revision},
		Description:     repo.GetDescription(),
		PrimaryLanguage: repo.GetLanguage(),
		Topics:          repo.Topics,
	}

	var files []domain.SourceFile
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}

		file := domain.SourceFile{
			Path:         entry.GetPath(),
			SizeBytes:    int64(entry.GetSize()),
			LanguageHint: languageHint(entry.GetPath()),
			Digest:       entry.GetSHA(),
		}

		switch {
		case file.SizeBytes > f.maxFileBytes:
			file.Skip = true
			file.SkipReason = domain.SkipTooLarge
		default:
			content, err := f.getBlobThrottled(ctx, ref, entry.GetSHA())
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn("Fetching %s failed: %v", file.Path, err)
				file.Skip = true
				file.SkipReason = domain.SkipFetchError
			} else {
				file.Content = content
			}
		}

		files = append(files, file)
	}

	logger.Debug("Fetched %d tree entries from %s@%s", len(files), ref, revision)

	return &domain.FetchResult{Info: info, Files: files}, nil
}

// ProbeDigests returns the current digests of the requested paths from
// a single tree listing. Paths absent from the live tree are omitted
// from the result.
func (f *Fetcher) ProbeDigests(
	ctx context.Context, ref domain.RepositoryRef, paths []string,
) (map[string]string, error) {
	revision := ref.Revision
	if revision == "" {
		repo, err := f.client.GetRepository(ctx, ref.Owner, ref.Name)
		if err != nil {
			return nil, err
		}
		revision = repo.GetDefaultBranch()
	}

	tree, err := f.getTreeThrottled(ctx, ref, revision)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}

	digests := make(map[string]string, len(paths))
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" && wanted[entry.GetPath()] {
			digests[entry.GetPath()] = entry.GetSHA()
		}
	}
	return digests, nil
}

// getTreeThrottled retries a tree listing once after a short rate
// limit pause. Longer pauses surface to the caller as
// RateLimitedError.
func (f *Fetcher) getTreeThrottled(ctx context.Context, ref domain.RepositoryRef, revision string) (*gh.Tree, error) {
	tree, err := f.client.GetTree(ctx, ref.Owner, ref.Name, revision)
	if err == nil {
		return tree, nil
	}
	if err := f.waitForRateLimit(ctx, err); err != nil {
		return nil, err
	}
	return f.client.GetTree(ctx, ref.Owner, ref.Name, revision)
}

// getBlobThrottled mirrors getTreeThrottled for blob downloads.
func (f *Fetcher) getBlobThrottled(ctx context.Context, ref domain.RepositoryRef, sha string) ([]byte, error) {
	content, err := f.client.GetBlob(ctx, ref.Owner, ref.Name, sha)
	if err == nil {
		return content, nil
	}
	if err := f.waitForRateLimit(ctx, err); err != nil {
		return nil, err
	}
	return f.client.GetBlob(ctx, ref.Owner, ref.Name, sha)
}

// waitForRateLimit sleeps through a short rate limit pause. Any other
// error, or a pause longer than maxRetryAfter, is returned unchanged.
func (f *Fetcher) waitForRateLimit(ctx context.Context, err error) error {
	var rateErr *domain.RateLimitedError
	if !errors.As(err, &rateErr) {
		return err
	}
	if rateErr.RetryAfter > maxRetryAfter {
		return err
	}

	delay := rateErr.RetryAfter
	if delay <= 0 {
		delay = time.Second
	}
	logger.Debug("Rate limited, waiting %s before retrying", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for rate limit: %w", ctx.Err())
	}
}

// languageHint derives a language name from the file extension, with
// a few well-known extensionless names special-cased.
func languageHint(filePath string) string {
	base := path.Base(filePath)
	switch base {
	case "Dockerfile":
		return "Dockerfile"
	case "Makefile":
		return "Makefile"
	}

	ext := strings.ToLower(path.Ext(base))
	return extLanguages[ext]
}
