// Package remote is the HTTP client for the habit server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/bloomup/internal/logger"
)

const maxErrorBody = 4 << 10

// TokenFunc supplies the bearer token for each request. An empty token sends no header.
type TokenFunc func(ctx context.Context) string

// UnauthorizedFunc runs once for every 401 response, before the error is returned.
type UnauthorizedFunc func(ctx context.Context)

type Client struct {
	base           *url.URL
	http           *http.Client
	token          TokenFunc
	onUnauthorized UnauthorizedFunc
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithToken(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

// WithStaticToken sends the same token on every request.
func WithStaticToken(tok string) Option {
	return WithToken(func(context.Context) string { return tok })
}

func WithUnauthorizedHook(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and returns the raw response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(ctx, req, path)
}

func (c *Client) send(ctx context.Context, req *http.Request, path string) ([]byte, error) {
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		logger.Debug("API request failed", "method", req.Method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer res.Body.Close()
	logger.Debug("API request", "method", req.Method, "path", path, "status", res.StatusCode, "took", time.Since(start))

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if res.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		return io.ReadAll(res.Body)
	}

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	herr := &HTTPError{Method: req.Method, Path: path, Status: res.StatusCode, Detail: errorDetail(raw)}
	if res.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return nil, herr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorDetail extracts a readable message from an error body. It understands
// {"detail": "..."}, validation lists of {"msg": "..."}, and {"error": "..."}.
func errorDetail(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Error != "" {
		return body.Error
	}
	var s string
	if json.Unmarshal(body.Detail, &s) == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(body.Detail, &list) == nil {
		msgs := make([]string, 0, len(list))
		for _, m := range list {
			msgs = append(msgs, m.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return strings.TrimSpace(string(raw))
}

// Ping checks that the server answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	return err
}
