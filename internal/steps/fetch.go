package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "liftoff/0.1"

	// maxResponseSize caps how much of an API body is read.
	maxResponseSize = 2 * 1024 * 1024
)

// HTTPStatusError is returned when an API answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// errMalformed marks responses that arrived but could not be decoded.
var errMalformed = errors.New("malformed response")

// Fetcher performs bounded, rate-limited JSON GETs on behalf of steps.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRateLimit allows rps requests per second with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) FetcherOption {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: timeout,
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetJSON fetches rawURL with query appended and decodes the body into v.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	target := rawURL
	if len(query) > 0 {
		target = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(v); err != nil {
		return fmt.Errorf("%w from %s: %v", errMalformed, rawURL, err)
	}
	return nil
}

// classify maps a fetch error onto a failure kind.
func classify(err error) FailureKind {
	if errors.Is(err, errMalformed) {
		return FailureMalformedResponse
	}
	return FailureTransport
}
