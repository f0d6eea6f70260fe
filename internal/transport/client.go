// Package transport fetches marketplace pages over HTTP with retry,
// user-agent rotation and browser-like request headers.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// FetchError describes a failed page fetch. StatusCode is zero when the
// request never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgents []string
	Transport  http.RoundTripper
	Logger     *slog.Logger
	Metrics    *Metrics
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
}

// Client fetches pages with retry and rotating user agents.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	userAgents []string
	logger     *slog.Logger
	metrics    *Metrics

	next atomic.Uint64
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = defaultUserAgents
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		userAgents: opts.UserAgents,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Fetch retrieves a page and returns its markup. Network failures, 429s
// and 5xx responses are retried with exponential backoff; other non-2xx
// statuses fail immediately.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.IncRetries()
			c.logger.Debug("retrying fetch", "url", url, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", &FetchError{URL: url, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			c.metrics.IncRequest("success")
			return body, nil
		}
		lastErr = err
		if !retryable {
			c.metrics.IncRequest("failure")
			return "", err
		}
		if ctx.Err() != nil {
			break
		}
	}
	c.metrics.IncRequest("failure")
	return "", lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) (body string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return "", true, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, &FetchError{URL: url, Err: err}
	}
	return string(raw), false, nil
}

func (c *Client) nextUserAgent() string {
	n := c.next.Add(1) - 1
	return c.userAgents[n%uint64(len(c.userAgents))]
}
