// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package webapi implements a small HTTP client
// for the JSON web services used by the resolver.
//
// The client never retries:
// retry policies belong to the callers.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/js-arias/otresolver/metric"
)

// DefaultTimeout is the default timeout of a request.
const DefaultTimeout = 60 * time.Second

// MaxResponse is the maximum size of a response body.
const MaxResponse = 32 << 20

// ErrTooLarge is returned when a response body
// is larger than MaxResponse.
var ErrTooLarge = errors.New("webapi: response body too large")

// maxBody is the maximum size of an error body
// kept in an APIError message.
const maxBody = 512

// An APIError is a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Status     string

	// Raw is the complete body of the response.
	Raw []byte
}

func (e *APIError) Error() string {
	body := string(e.Raw)
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// Decode decodes the body of the error response
// as a JSON value.
func (e *APIError) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// Client is an HTTP client for JSON services.
type Client struct {
	httpClient *http.Client
	metrics    *metric.Metrics
	service    string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records each request
// under the given service name.
func WithMetrics(m *metric.Metrics, service string) Option {
	return func(c *Client) {
		c.metrics = m
		c.service = service
	}
}

// New creates a new client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON sends a value as a JSON body
// and decodes the JSON response into dest.
func (c *Client) PostJSON(ctx context.Context, url string, in, dest any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("webapi: marshal: %w", err)
	}
	return c.Post(ctx, url, "application/json; charset=utf-8", body, nil, dest)
}

// Post sends a body with the given content type and headers,
// and decodes the JSON response into dest.
// If dest is nil the response body is discarded.
// It returns an *APIError for non-2xx responses.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte, header map[string]string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webapi: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return c.do(req, dest)
}

// Get sends a GET request and returns the body of the response.
// It returns an *APIError for non-2xx responses.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("webapi: %w", err)
	}
	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(c.service, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponse+1))
	c.metrics.RecordRequest(c.service, resp.StatusCode, time.Since(start))
	if err != nil {
		return err
	}
	if len(body) > MaxResponse {
		return fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, MaxResponse, req.URL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Raw:        body,
		}
	}

	if dest == nil {
		return nil
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &DecodeError{Raw: body, Err: err}
	}
	return nil
}

// A DecodeError is a successful response
// with a body that cannot be decoded.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("webapi: malformed response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
