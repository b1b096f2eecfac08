package gitsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.github.com"

	maxRetries     = 3
	initialBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second

	// The search endpoint has its own budget, 30/min authenticated
	// and 10/min without a token
	authedSearchRate   = rate.Limit(30.0 / 60.0)
	unauthedSearchRate = rate.Limit(10.0 / 60.0)
)

type Client struct {
	cli       *http.Client
	limiter   *rate.Limiter
	token     string
	baseURL   string
	userAgent string
}

func NewClient(token string) *Client {
	tr := &http.Transport{
		IdleConnTimeout: 60 * time.Second,
	}

	searchRate := unauthedSearchRate
	if token != "" {
		searchRate = authedSearchRate
	}

	return &Client{
		cli: &http.Client{
			Transport: tr,
			Timeout:   30 * time.Second,
		},
		limiter:   rate.NewLimiter(searchRate, 5),
		token:     token,
		baseURL:   defaultAPIBase,
		userAgent: "cvescan/0.8",
	}
}

// SetBaseURL overrides the API endpoint, used for GitHub Enterprise
// and in tests
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SetRequestRate overrides the search pacing with a requests-per-minute
// value from the configure file
func (c *Client) SetRequestRate(perMinute float64) {
	if perMinute <= 0 {
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perMinute/60.0), 5)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
}

// checkRateLimit turns an exhausted X-RateLimit budget into an error
// carrying the reset time
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil || remainingInt > 0 {
		return nil
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetUnix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return fmt.Errorf("github api rate limit exceeded, resets at %s",
				time.Unix(resetUnix, 0).Format(time.RFC3339))
		}
	}

	return fmt.Errorf("github api rate limit exceeded")
}

func isRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func backoffFor(attempt int) time.Duration {
	backoff := initialBackoff << attempt
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// retryAfter reads the Retry-After header set on secondary rate limit
// responses
func retryAfter(resp *http.Response) (time.Duration, bool) {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0, false
	}

	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}

	return time.Duration(secs) * time.Second, true
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// do executes a request with rate pacing and exponential backoff on
// transient failures, honoring Retry-After on secondary rate limits
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = c.cli.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, err
			}

			if err := sleep(req.Context(), backoffFor(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
			// A primary limit needs a fresh budget, waiting is pointless
			if rlErr := checkRateLimit(resp); rlErr != nil {
				resp.Body.Close()
				return nil, rlErr
			}
			// Secondary (abuse) rate limit, fall through to retry
		} else if !isRetryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt == maxRetries {
			return resp, nil
		}

		wait := backoffFor(attempt)
		if d, ok := retryAfter(resp); ok {
			wait = d
		}

		resp.Body.Close()

		if err := sleep(req.Context(), wait); err != nil {
			return nil, err
		}
	}

	return resp, err
}

func readError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("github api status %d", resp.StatusCode)
	}

	return fmt.Errorf("github api status %d: %s", resp.StatusCode, string(body))
}
