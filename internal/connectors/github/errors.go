package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// APIError wraps a GitHub API failure with its HTTP status.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api error: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// wrapError converts go-github errors into domain-aware errors.
// Missing repositories map to ErrRepoInaccessible, rate limits to
// RateLimitedError, and server-side failures are marked transient so
// callers may retry.
func wrapError(err error, resp *gh.Response) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.RateLimitedError{RetryAfter: time.Until(rateErr.Rate.Reset.Time)}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := time.Minute
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return &domain.RateLimitedError{RetryAfter: retryAfter}
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	switch {
	case status == http.StatusNotFound, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrRepoInaccessible,
			(&APIError{StatusCode: status, Message: err.Error(), Err: err}).Error())
	case status >= 500:
		return domain.Transient(&APIError{StatusCode: status, Message: err.Error(), Err: err})
	default:
		return &APIError{StatusCode: status, Message: err.Error(), Err: err}
	}
}
