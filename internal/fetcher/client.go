package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "jackpotwatch/1.0"
	maxErrorBody     = 256
)

// ClientOptions tune the HTTP client shared by the adapters.
type ClientOptions struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerMinute int
}

type httpClient struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func newHTTPClient(opts ClientOptions) *httpClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}

	return &httpClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		limiter:   limiter,
	}
}

func (c *httpClient) do(ctx context.Context, method, url, accept string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
	return payload, nil
}

func parseHTTPError(status int, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	if text != "" {
		return fmt.Errorf("http status %d: %s", status, text)
	}
	return fmt.Errorf("http status %d", status)
}
