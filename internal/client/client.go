// Package client is the REST client for the uptome backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIKeyHeader carries the static API key on every request.
const APIKeyHeader = "X-API-Key"

// Client talks to one configured backend origin.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

// New creates a new API client
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		timeout:    30 * time.Second,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Put sends body to path. body may be nil.
func (c *Client) Put(ctx context.Context, path string, body any) Result {
	return c.do(ctx, http.MethodPut, path, body)
}

// Post sends body to path.
func (c *Client) Post(ctx context.Context, path string, body any) Result {
	return c.do(ctx, http.MethodPost, path, body)
}

// Delete deletes path.
func (c *Client) Delete(ctx context.Context, path string) Result {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do performs one request and folds every failure into the Result. It
// never returns an error and never panics on bad input.
func (c *Client) do(ctx context.Context, method, path string, body any) Result {
	start := time.Now()

	resp, result := c.send(ctx, method, path, body)
	if resp == nil {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Str("error", result.Error).
			Msg("API request failed")
		return result
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure("failed to read response: %v", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) == 0 {
			return Failure("request failed with status %d", resp.StatusCode)
		}
		return Result{Error: string(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Result{Payload: json.RawMessage("null")}
	}
	if !json.Valid(data) {
		return Failure("failed to decode response: invalid JSON")
	}
	if hasTopLevelError(data) {
		c.logger.Warn().Str("path", path).Msg("Successful response carries a top-level error key")
	}

	return Result{Payload: json.RawMessage(data)}
}

// send builds and executes the request. A nil response means the Result
// already describes the failure.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, Result) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, Failure("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		// The body is read by the caller, so cancel once it is closed.
		resp, result := c.execute(ctx, method, path, reader, body != nil)
		if resp == nil {
			cancel()
			return nil, result
		}
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, result
	}

	return c.execute(ctx, method, path, reader, body != nil)
}

func (c *Client) execute(ctx context.Context, method, path string, body io.Reader, hasBody bool) (*http.Response, Result) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, Failure("failed to create request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Failure("failed to send request: %v", err)
	}
	return resp, Result{}
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func hasTopLevelError(data []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return false
	}
	_, ok := obj["error"]
	return ok
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
