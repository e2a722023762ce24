// Package request fetches remote resources with retries and per-host backoff.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hablago/pkg/version"
)

var (
	// ErrTooLarge is returned when a response exceeds the body limit.
	ErrTooLarge = errors.New("response body too large")
	// ErrRetriesExhausted wraps the last transient failure.
	ErrRetriesExhausted = errors.New("max retries exceeded")
)

// StatusError is a non-retryable HTTP error response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Client performs GET requests, retrying 429 and 5xx responses and network
// errors with exponential delays.
type Client struct {
	httpClient *http.Client
	backoff    *HostBackoff
	userAgent  string
	maxBody    int64
	attempts   int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the attempt count and the delay before the first retry.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.retryDelay = baseDelay
	}
}

// WithMaxBody caps the accepted response size.
func WithMaxBody(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// WithBackoff sets the per-host cool-down tracker.
func WithBackoff(b *HostBackoff) Option {
	return func(c *Client) { c.backoff = b }
}

// New creates a Client with 3 attempts, a 500ms base retry delay and a 16MiB body limit.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		backoff:    NewHostBackoff(time.Second, time.Minute),
		userAgent:  fmt.Sprintf("HablaGo/%s", version.Version),
		maxBody:    16 << 20,
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches u and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, u string) ([]byte, error) {
	return c.GetWithHeaders(ctx, u, nil)
}

// GetWithHeaders is Get with extra request headers.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	host := strings.ToLower(parsed.Host)

	if err := c.backoff.Wait(ctx, host); err != nil {
		return nil, err
	}

	body, err := c.executeWithRetry(ctx, u, headers)
	if err != nil {
		// Only transient failures cool the host down.
		if errors.Is(err, ErrRetriesExhausted) {
			c.backoff.RecordFailure(host)
		}
		return nil, err
	}
	c.backoff.RecordSuccess(host)
	return body, nil
}

func (c *Client) executeWithRetry(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			sleep := c.retryDelay << (attempt - 1)
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retry, err := c.do(ctx, u, headers, attempt)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// do performs one attempt and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, u string, headers map[string]string, attempt int) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		slog.Warn("Request failed, retrying", "url", u, "attempt", attempt+1, "error", err)
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		slog.Warn("Request backoff", "status", resp.StatusCode, "url", u, "attempt", attempt+1)
		return nil, true, &StatusError{Code: resp.StatusCode, URL: u}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &StatusError{Code: resp.StatusCode, URL: u}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, false, fmt.Errorf("read error: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, false, ErrTooLarge
	}
	return body, false, nil
}
