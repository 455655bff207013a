package services

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/logger"
)

// DefaultMaxFileBytes is the size ceiling above which files are
// skipped rather than summarised.
const DefaultMaxFileBytes = 256 * 1024

// binarySampleSize is how many leading bytes are inspected by the
// non-text heuristic.
const binarySampleSize = 8192

// defaultExcludedDirs are vendored/build-artifact directories whose
// contents are never documentation-worthy.
var defaultExcludedDirs = []string{
	".git", "node_modules", "vendor", "venv", ".venv",
	"dist", "build", "target", "__pycache__", ".next",
}

// defaultExcludedFiles are generated or lock files excluded by name.
var defaultExcludedFiles = []string{
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"go.sum", "cargo.lock", "poetry.lock", "gemfile.lock",
	"composer.lock", ".ds_store",
}

// Selector decides which fetched files are documentation-worthy.
// The policy is deterministic and order-independent: each file is
// judged on its own path, size and content.
type Selector struct {
	maxFileBytes int64
	excludedDirs []string
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithMaxFileBytes sets the file size ceiling.
func WithMaxFileBytes(n int64) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

// WithExcludedDirs adds directory names to the vendored/artifact list.
func WithExcludedDirs(dirs ...string) SelectorOption {
	return func(s *Selector) {
		s.excludedDirs = append(s.excludedDirs, dirs...)
	}
}

// NewSelector creates a selector with the default exclusion policy.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		maxFileBytes: DefaultMaxFileBytes,
		excludedDirs: append([]string(nil), defaultExcludedDirs...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select annotates files with skip decisions. Files already skipped
// by the fetcher (fetch errors) are passed through unchanged. The
// input order is preserved.
func (s *Selector) Select(files []domain.SourceFile) []domain.SourceFile {
	out := make([]domain.SourceFile, len(files))
	for i, f := range files {
		out[i] = s.judge(f)
		if out[i].Skip && !f.Skip {
			logger.Debug("Skipping %s: %s", f.Path, out[i].SkipReason)
		}
	}
	return out
}

// judge applies the exclusion policy to a single file.
func (s *Selector) judge(f domain.SourceFile) domain.SourceFile {
	if f.Skip {
		return f
	}

	switch {
	case s.isVendoredPath(f.Path):
		f.Skip = true
		f.SkipReason = domain.SkipVendored
	case f.SizeBytes > s.maxFileBytes:
		f.Skip = true
		f.SkipReason = domain.SkipTooLarge
	case len(f.Content) == 0:
		f.Skip = true
		f.SkipReason = domain.SkipEmpty
	case isBinaryContent(f.Content):
		f.Skip = true
		f.SkipReason = domain.SkipBinary
	}

	if f.Skip {
		f.Content = nil
	}
	return f
}

// isVendoredPath reports whether any path segment names a vendored or
// build-artifact directory, or the file itself is a lock file.
func (s *Selector) isVendoredPath(p string) bool {
	base := strings.ToLower(path.Base(p))
	for _, name := range defaultExcludedFiles {
		if base == name {
			return true
		}
	}
	for _, seg := range strings.Split(p, "/") {
		seg = strings.ToLower(seg)
		for _, dir := range s.excludedDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// isBinaryContent samples the leading bytes of content and reports
// whether they look like binary data: any NUL byte, or a high ratio
// of invalid UTF-8.
func isBinaryContent(content []byte) bool {
	sample := content
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}

	invalid := 0
	for i := 0; i < len(sample); {
		if sample[i] == 0x00 {
			return true
		}
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		i += size
	}

	// A truncated sample can split a multi-byte rune at the end, so a
	// handful of invalid bytes is tolerated.
	return invalid > len(sample)/32
}
