package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// Client is a thin wrapper around the go-github client that applies
// rate limiting to every call. The underlying client is built lazily
// so constructing a Client never touches the network.
type Client struct {
	token   string
	baseURL string
	limiter *RateLimiter

	mu     sync.Mutex
	client *gh.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API endpoint, for
// GitHub Enterprise or tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a client. An empty token means unauthenticated
// access with its much lower rate limits.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		limiter: NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ensureClient() (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if c.token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = 30 * time.Second
	}

	client := gh.NewClient(httpClient)
	if c.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(c.baseURL, c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("configure base URL: %w", err)
		}
	}

	c.client = client
	return c.client, nil
}

// GetRepository returns repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*gh.Repository, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	repo, resp, err := client.Repositories.Get(ctx, owner, name)
	c.limiter.UpdateFromResponse(resp)
	if err != nil {
		return nil, wrapError(err, resp)
	}
	return repo, nil
}

// GetTree returns the full recursive tree at the given ref.
func (c *Client) GetTree(ctx context.Context, owner, name, ref string) (*gh.Tree, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tree, resp, err := client.Git.GetTree(ctx, owner, name, ref, true)
	c.limiter.UpdateFromResponse(resp)
	if err != nil {
		return nil, wrapError(err, resp)
	}
	return tree, nil
}

// GetBlob fetches and decodes a blob by SHA.
func (c *Client) GetBlob(ctx context.Context, owner, name, sha string) ([]byte, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	blob, resp, err := client.Git.GetBlob(ctx, owner, name, sha)
	c.limiter.UpdateFromResponse(resp)
	if err != nil {
		return nil, wrapError(err, resp)
	}

	content := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return decoded, nil
	}
	return []byte(content), nil
}
