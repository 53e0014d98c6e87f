// Package api provides a client for the E*TRADE REST API.
//
// Requests are signed by an OAuth1 http.Client supplied at construction.
// A client without a session can still be created; authenticated calls
// then fail with KindUnauthenticated before touching the network.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client handles HTTP requests to the E*TRADE API.
type Client struct {
	BaseURL     string
	ConsumerKey string
	HTTPClient  *http.Client
}

// NewClient creates a new API client. httpClient is the OAuth1-signing
// client from the session package; pass nil when no session exists.
func NewClient(baseURL, consumerKey string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		ConsumerKey: consumerKey,
		HTTPClient:  httpClient,
	}
}

// NewUnsignedClient creates a client without OAuth signing. Used in tests
// and for endpoints that tolerate unsigned requests.
func NewUnsignedClient(baseURL, consumerKey string) *Client {
	return &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		ConsumerKey: consumerKey,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// HasSession reports whether an authenticated session handle is attached.
func (c *Client) HasSession() bool {
	return c != nil && c.HTTPClient != nil
}

// Get performs a GET request to the specified path with query parameters.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (*http.Response, error) {
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// PostXML performs a POST request with an XML body. E*TRADE's order
// endpoints take XML requests and return JSON responses.
func (c *Client) PostXML(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body, "application/xml")
}

// PutXML performs a PUT request with an XML body.
func (c *Client) PutXML(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body, "application/xml")
}

// do performs a single HTTP request with the consumer key header set.
func (c *Client) do(ctx context.Context, method, path string, bodyBytes []byte, contentType string) (*http.Response, error) {
	if !c.HasSession() {
		return nil, Errorf(KindUnauthenticated, "no E*TRADE session; run 'etrade-mcp auth' first")
	}

	url := c.BaseURL + path

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.ConsumerKey != "" {
		req.Header.Set("consumerkey", c.ConsumerKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
