// Package transport is the HTTP plumbing shared by remote taxonomy sources:
// a client with a bounded timeout, common headers and optional credentials.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
)

// Client performs authenticated JSON GETs.
type Client struct {
	http  *http.Client
	auth  Authenticator
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAuth attaches a credential applied to every request. An empty token
// disables authentication regardless of the authenticator.
func WithAuth(auth Authenticator, token string) Option {
	return func(c *Client) {
		c.auth = auth
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth: &NoAuth{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.token != "" && c.auth != nil {
		c.auth.Apply(req, c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fieldmatch")
	return c.http.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError(url, "invalid request", err)
	}
	return c.Do(req)
}
