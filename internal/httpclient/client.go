package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// redactedParams are query parameters that must never reach logs or error text.
var redactedParams = []string{"api_key", "token"}

// Config holds attempt and timeout configuration.
type Config struct {
	// Attempts is the total number of tries per request. Values below 1 mean 1.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns a single-attempt configuration: failures surface to
// the caller immediately and "try again" is left to the user.
func DefaultConfig() Config {
	return Config{
		Attempts:  1,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Timeout:   30 * time.Second,
		UserAgent: "marquee",
	}
}

// Client wraps http.Client with optional retries for read requests.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a new Client with a default http.Client.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client around a caller-supplied http.Client.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Client{
		http:   httpClient,
		config: cfg,
		logger: logger,
	}
}

// Do executes a GET/HEAD request. Retries (when Attempts > 1) happen on 429,
// 5xx gateway errors and transport failures. Transport errors keep their
// underlying type so callers can classify them with errors.As.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, fmt.Errorf("unsupported method %s", req.Method)
	}
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := range c.config.Attempts {
		if attempt > 0 {
			if err := c.waitBeforeRetry(req.Context(), attempt, lastResp, req.URL); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := req.Context().Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = redactError(err)
			lastResp = nil
			continue
		}

		if !shouldRetry(resp.StatusCode) || attempt == c.config.Attempts-1 {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, RedactURL(req.URL))
		lastResp = resp
		_ = resp.Body.Close()
	}

	if c.config.Attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.Attempts, lastErr)
}

func (c *Client) waitBeforeRetry(ctx context.Context, attempt int, lastResp *http.Response, u *url.URL) error {
	delay := c.backoff(attempt)
	if d := retryAfterDelay(lastResp); d > delay {
		delay = d
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	c.logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.String("delay", delay.String()),
		slog.String("url", RedactURL(u)),
	)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// shouldRetry returns true for status codes that warrant another attempt.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff calculates the delay for a given attempt with jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.config.MaxDelay) {
		delay = float64(c.config.MaxDelay)
	}
	jitter := delay * 0.2 * rand.Float64() // #nosec G404
	return time.Duration(delay + jitter)
}

// RedactURL renders u with credential query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clone := *u
	q := clone.Query()
	for _, p := range redactedParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
		}
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}

// redactError rewrites the URL inside a *url.Error so the API key does not
// leak into logs. The wrapped cause is preserved.
func redactError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	parsed, perr := url.Parse(uerr.URL)
	if perr != nil {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: RedactURL(parsed), Err: uerr.Err}
}
