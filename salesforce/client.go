package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

const maxResponseBytes = 1 << 20

// Client performs bearer authenticated GETs against Salesforce REST
// endpoints. Every call runs under the configured timeout.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient returns a Client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, timeout: timeout}
}

// HTTPClient returns the underlying client, for collaborators that need to
// share the transport (token exchange, JWKS fetch).
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// Timeout returns the per call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// GetJSON fetches rawURL with the access token and decodes a JSON object.
// Transport failures, timeouts, non-2xx responses and undecodable bodies are
// returned as *UpstreamError.
func (c *Client) GetJSON(ctx context.Context, op, rawURL, accessToken string) (map[string]any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &apperrors.UpstreamError{Op: op, URL: rawURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{Op: op, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &apperrors.UpstreamError{Op: op, URL: rawURL, StatusCode: resp.StatusCode}
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, &apperrors.UpstreamError{Op: op, URL: rawURL, Err: err}
	}
	return body, nil
}
