package base

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeoutSec bounds every outbound provider call.
const DefaultTimeoutSec = 30

// HTTPClient provides common HTTP functionality for providers.
// TLS verification is chosen per call, never fixed at construction.
type HTTPClient struct {
	verified   *http.Client
	unverified *http.Client
	name       string // provider name for logging
}

// NewHTTPClient creates a new HTTP client with default settings
func NewHTTPClient(providerName string, timeoutSec int) *HTTPClient {
	if timeoutSec == 0 {
		timeoutSec = DefaultTimeoutSec
	}
	timeout := time.Duration(timeoutSec) * time.Second

	insecure := http.DefaultTransport.(*http.Transport).Clone()
	insecure.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // sandbox environments only

	return &HTTPClient{
		verified:   &http.Client{Timeout: timeout},
		unverified: &http.Client{Timeout: timeout, Transport: insecure},
		name:       providerName,
	}
}

// Request describes one outbound call.
type Request struct {
	Method    string
	URL       string
	Body      []byte
	Headers   map[string]string
	VerifyTLS bool
}

// Do sends req and reads the whole response body.
func (c *HTTPClient) Do(ctx context.Context, r Request) (*HTTPResponse, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("CreditGW/%s", c.name))
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	// Log the request (without sensitive data)
	log.Debug().
		Str("provider", c.name).
		Str("method", r.Method).
		Str("url", r.URL).
		Bool("verify_tls", r.VerifyTLS).
		Msg("making HTTP request")

	client := c.verified
	if !r.VerifyTLS {
		client = c.unverified
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Error().
			Str("provider", c.name).
			Str("url", r.URL).
			Err(err).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return c.handleResponse(resp)
}

// PostJSON makes a POST request with JSON payload
func (c *HTTPClient) PostJSON(ctx context.Context, url string, payload any, headers map[string]string, verifyTLS bool) (*HTTPResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body, Headers: h, VerifyTLS: verifyTLS})
}

// Get makes a GET request
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string, verifyTLS bool) (*HTTPResponse, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers, VerifyTLS: verifyTLS})
}

// handleResponse processes the HTTP response
func (c *HTTPClient) handleResponse(resp *http.Response) (*HTTPResponse, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	// Log response (without sensitive data in body)
	log.Debug().
		Str("provider", c.name).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Msg("received HTTP response")

	return httpResp, nil
}

// HTTPResponse represents an HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess checks if the response indicates success (2xx status code)
func (r *HTTPResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into the provided value
func (r *HTTPResponse) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the response body as a string
func (r *HTTPResponse) String() string {
	return string(r.Body)
}
