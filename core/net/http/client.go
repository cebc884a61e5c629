// Package http is a small JSON-over-HTTP client plus a URL builder used by
// the outbound collaborators.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "geostego/1.0"
	// maxDecodeBytes caps JSON bodies decoded through WithResponse.
	maxDecodeBytes = 8 << 20
	snippetBytes   = 512
)

// Doer is satisfied by *Client; collaborators depend on it so tests can stub the transport.
type Doer interface {
	Request(ctx context.Context, method, url string, body any, opts ...RequestOption) (*http.Response, error)
}

// StatusError reports a non-2xx response to a request made with WithResponse.
type StatusError struct {
	StatusCode int
	URL        string
	// Body is the start of the response body, for logs.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type Client struct {
	client    *http.Client
	userAgent string
}

type Option func(*Client)

// WithClient replaces the underlying *http.Client.
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	header http.Header
	decode any
}

// RequestOption adjusts a single request.
type RequestOption func(*request)

func WithHeader(header map[string]string) RequestOption {
	return func(r *request) {
		for k, v := range header {
			r.header.Set(k, v)
		}
	}
}

// WithResponse decodes a 2xx JSON body into dest and closes it; other
// statuses yield *StatusError.
func WithResponse(dest any) RequestOption {
	return func(r *request) {
		r.decode = dest
	}
}

// Request sends body as-is when it is an io.Reader, otherwise as JSON.
// Without WithResponse the caller owns the response body.
func (c *Client) Request(ctx context.Context, method, url string, body any, opts ...RequestOption) (*http.Response, error) {
	r := request{header: http.Header{}}
	r.header.Set("User-Agent", c.userAgent)

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case io.Reader:
		reader = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
		r.header.Set("Content-Type", ContentTypeJSON)
	}
	for _, opt := range opts {
		opt(&r)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header = r.header

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if r.decode == nil {
		return resp, nil
	}
	return resp, decode(resp, r.decode)
}

func decode(resp *http.Response, dest any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetBytes))
		// query strings carry API keys
		u := *resp.Request.URL
		u.RawQuery = ""
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        u.Redacted(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxDecodeBytes)).Decode(dest)
}

func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, opts...)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, url string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, url, body, opts...)
}

var _ Doer = (*Client)(nil)
