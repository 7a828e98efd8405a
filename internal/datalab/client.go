// Package datalab is a thin REST client for the NOIRLab Data Lab services:
// authentication, query submission, and VOS (virtual object storage).
//
// The tool only needs a handful of endpoints, so this wraps them directly
// rather than pulling in a generated client. Auth is a username/password
// login that yields an opaque token, sent on later calls in the
// X-DL-AuthToken header.
package datalab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// authTokenHeader carries the session token on authenticated calls.
const authTokenHeader = "X-DL-AuthToken"

// Opts holds the service endpoints for a Client.
type Opts struct {
	AuthURL    string
	QueryURL   string
	StorageURL string
	HTTPClient *http.Client // optional; defaults to a 5-minute-timeout client
}

// Client talks to the Data Lab auth, query and storage services.
type Client struct {
	authURL    string
	queryURL   string
	storageURL string
	http       *http.Client
	token      string
}

// New creates a Client. The endpoints must be non-empty.
func New(opts Opts) (*Client, error) {
	if opts.AuthURL == "" || opts.QueryURL == "" || opts.StorageURL == "" {
		return nil, fmt.Errorf("datalab: auth, query and storage URLs are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		// Large result downloads can legitimately take minutes.
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{
		authURL:    strings.TrimRight(opts.AuthURL, "/"),
		queryURL:   strings.TrimRight(opts.QueryURL, "/"),
		storageURL: strings.TrimRight(opts.StorageURL, "/"),
		http:       hc,
	}, nil
}

// Token returns the session token from the last successful Login, or "".
func (c *Client) Token() string { return c.token }

// SetToken installs a previously obtained session token.
func (c *Client) SetToken(token string) { c.token = token }

// get issues an authenticated GET to base+path with the given query
// parameters and returns the response. Non-2xx responses become errors
// carrying the (trimmed) response body.
func (c *Client) get(ctx context.Context, base, path string, params url.Values) (*http.Response, error) {
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("datalab: build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set(authTokenHeader, c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datalab: %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("datalab: %s: %s", path, msg)
	}
	return resp, nil
}

// getBody is get with the body read, closed and trimmed.
func (c *Client) getBody(ctx context.Context, base, path string, params url.Values) (string, error) {
	resp, err := c.get(ctx, base, path, params)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("datalab: %s: read response: %w", path, err)
	}
	return strings.TrimSpace(string(body)), nil
}
