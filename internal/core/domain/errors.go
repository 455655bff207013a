package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the generative backend is not
	// configured. Generation and chat are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRepoInaccessible indicates the repository could not be
	// fetched at all. This aborts a generation run; per-file fetch
	// failures do not.
	ErrRepoInaccessible = errors.New("repository inaccessible")

	// ErrNoDocumentation indicates chat was requested for a
	// repository with no stored documentation.
	ErrNoDocumentation = errors.New("no documentation generated for repository")
)

// transientError marks an error as retryable under the bounded-retry
// policy. Adapters wrap timeouts, connection failures and 429/5xx
// responses with Transient.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// RateLimitedError indicates host throttling. The caller decides
// whether to retry after RetryAfter elapses.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// SummarizationError indicates the backend rejected a file or
// returned output that could not be parsed. It is non-retryable; the
// file's doc is marked failed instead of aborting the run.
type SummarizationError struct {
	Path   string
	Reason string
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed for %s: %s", e.Path, e.Reason)
}

// AnswerError indicates chat answer generation failed after retries.
// Failed generations are never recorded as chat turns.
type AnswerError struct {
	Reason string
	Err    error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer failed: %s", e.Reason)
}

func (e *AnswerError) Unwrap() error { return e.Err }
