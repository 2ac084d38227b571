// Package upstream contains clients for the external market data sources the
// gateway adapters wrap: Chainlink feeds, CoinGecko, DEX subgraphs, EVM and
// Solana fee markets, and bridge quote APIs.
//
// Clients make exactly one attempt per call. Retrying is left to the next
// adapter invocation.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the HTTP client timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// ClientOption configures an HTTP-backed upstream client.
type ClientOption func(*httpDoer)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *httpDoer) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *httpDoer) {
		c.client = client
	}
}

// WithHeader adds a header to every request, e.g. an API key.
func WithHeader(key, value string) ClientOption {
	return func(c *httpDoer) {
		c.headers.Set(key, value)
	}
}

// httpDoer performs JSON requests against a base URL.
type httpDoer struct {
	baseURL string
	client  *http.Client
	headers http.Header
}

func newHTTPDoer(baseURL string, opts []ClientOption) httpDoer {
	d := httpDoer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// getJSON issues a GET for baseURL+path and decodes the body into out.
func (d *httpDoer) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return d.do(req, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out.
func (d *httpDoer) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req, out)
}

func (d *httpDoer) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	for k, v := range d.headers {
		req.Header[k] = v
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
