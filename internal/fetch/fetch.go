// Package fetch provides HTTP fetching with retries and HTML-to-text
// processing. It centralizes the network plumbing shared by all collectors.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRetries is how many attempts a fetch makes before giving up.
const DefaultMaxRetries = 3

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CompanyValuator/1.0)"

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	Headers    map[string]string
	// Backoff is the base delay between retries. Exposed for tests;
	// defaults to one second.
	Backoff time.Duration
}

// DefaultOptions returns sensible defaults for collector fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		UserAgent:  DefaultUserAgent,
		Backoff:    time.Second,
	}
}

// Client fetches URLs with retries and exponential backoff.
// Construct with NewClient.
type Client struct {
	httpClient *http.Client
	opts       *Options
}

// NewClient creates a fetch client. A nil opts uses DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// Get retrieves the content of a URL, retrying transient failures with
// exponential backoff.
func (c *Client) Get(ctx context.Context, urlStr string) (*Result, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var lastResult *Result
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.opts.Backoff
			select {
			case <-ctx.Done():
				return nil, &Error{URL: urlStr, Message: "cancelled during backoff", Cause: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		result, err := c.getOnce(ctx, urlStr)
		if err == nil {
			return result, nil
		}
		lastResult, lastErr = result, err

		// Client errors other than rate limiting will not succeed on retry.
		if result != nil && result.StatusCode >= 400 && result.StatusCode < 500 &&
			result.StatusCode != http.StatusTooManyRequests {
			return result, err
		}
	}

	return lastResult, lastErr
}

// GetJSON retrieves a URL and decodes its JSON body into v.
func (c *Client) GetJSON(ctx context.Context, urlStr string, v any) error {
	result, err := c.Get(ctx, urlStr)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(result.Body), v); err != nil {
		return &Error{URL: urlStr, Message: "failed to decode JSON", Cause: err}
	}
	return nil
}

func (c *Client) getOnce(ctx context.Context, urlStr string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		Body:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return result, nil
}
