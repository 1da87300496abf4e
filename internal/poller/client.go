package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnexpectedStatus is returned for non-2xx device responses.
var ErrUnexpectedStatus = errors.New("unexpected device response status")

// Client fetches telemetry from the device status endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for url. A non-positive timeout disables the
// per request limit.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout < 0 {
		timeout = 0
	}
	return &Client{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// URL returns the polled endpoint.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET and decodes the payload.
func (c *Client) Fetch(ctx context.Context) (Telemetry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Telemetry{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Telemetry{}, fmt.Errorf("request %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Telemetry{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload Telemetry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Telemetry{}, fmt.Errorf("decode telemetry: %w", err)
	}
	return payload, nil
}
