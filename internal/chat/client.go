// Package chat performs request/response exchanges with an OpenAI-compatible
// chat completion endpoint.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Startup errors returned by NewClient.
var (
	ErrInvalidAPIKey   = errors.New("API key is empty or contains characters not allowed in a header")
	ErrInvalidEndpoint = errors.New("invalid endpoint URL")
)

// Client sends serialized conversations to a fixed endpoint with fixed headers.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets an overall request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient validates the endpoint and key and builds a client.
func NewClient(endpoint, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" || strings.ContainsAny(apiKey, "\r\n\x00") {
		return nil, ErrInvalidAPIKey
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		endpoint:   u.String(),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Post sends body as a JSON POST. The caller must close the response body.
func (c *Client) Post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.httpClient.Do(req)
}
