package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxBodyBytes caps how much of a response is read into memory.
	MaxBodyBytes = 5 << 20
	// snippetLimit is in runes.
	snippetLimit = 200
)

// Getter performs a GET and returns the response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

var _ Getter = (*Client)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Snippet)
}

type Client struct {
	rc *resty.Client
}

// New builds a client that sends userAgent on every request and fails any
// request that takes longer than timeout.
func New(userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "*/*").
		SetResponseBodyLimit(MaxBodyBytes)

	return &Client{rc: rc}
}

func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Snippet:    responseSnippet(resp.Body()),
		}
	}

	return resp.Body(), nil
}

func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	count := 0
	for i := range s {
		if count == snippetLimit {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
