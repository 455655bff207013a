// Package github fetches repository trees and file contents from the
// GitHub API. It implements the driven RepositoryFetcher port using
// the official go-github client with dual rate limiting: a local
// token bucket plus tracking of the X-RateLimit response headers.
package github
