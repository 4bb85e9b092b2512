// Package fetch retrieves the raw source page over HTTP and classifies
// failures as transient (worth retrying) or permanent (abort the cycle).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// UserAgent identifies this service to the source site.
	UserAgent = "ianua-caldav/1.0"

	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = 30 * time.Second
)

// Kind classifies a fetch failure.
type Kind int

const (
	// Transient failures (timeouts, 5xx, connection errors) may be retried.
	Transient Kind = iota
	// Permanent failures (4xx, bad URL) stop the cycle immediately.
	Permanent
)

func (k Kind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified fetch failure.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the raw HTML for the configured source page.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTP is the production Fetcher: a plain GET with a timeout and a stable
// User-Agent. The source page is static HTML, so no browser automation is
// needed.
type HTTP struct {
	client *http.Client
	url    string
}

// NewHTTP creates an HTTP fetcher for the given URL. A non-positive timeout
// falls back to DefaultTimeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// URL returns the configured source URL.
func (h *HTTP) URL() string {
	return h.url
}

// Fetch performs one GET attempt. It never retries; retry policy belongs to
// the refresh cycle.
func (h *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, &Error{Kind: Permanent, URL: h.url, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		// Network-level failures (timeouts, refused connections, canceled
		// contexts) are all worth retrying on the next attempt or cycle.
		return nil, &Error{Kind: Transient, URL: h.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: classifyStatus(resp.StatusCode), URL: h.url,
			Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: Transient, URL: h.url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// classifyStatus maps an HTTP status to a failure kind. Server-side errors
// and throttling are transient; anything else non-200 is permanent.
func classifyStatus(code int) Kind {
	if code >= 500 || code == http.StatusTooManyRequests {
		return Transient
	}
	return Permanent
}
