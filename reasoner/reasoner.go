// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reasoner implements a client
// for a remote phyloreference reasoner.
//
// The ontology is sent as a form-encoded "jsonld" parameter,
// signed with a shared secret
// in the X-Hub-Signature header.
// At most one submission is in flight at any time.
package reasoner

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/webapi"
)

// Defaults of a client.
const (
	DefaultURL       = "https://phyloref.rc.ufl.edu/hooks/reason"
	DefaultSecret    = "undefined"
	DefaultAlgorithm = "sha1"
)

// SignatureHeader is the header with the signature of the body.
const SignatureHeader = "X-Hub-Signature"

// ErrInProgress is returned when a submission
// is made while another one is in flight.
var ErrInProgress = errors.New("reasoner: reasoning already in progress")

// unknownError is the message used
// when the server does not report an error.
const unknownError = "unknown error"

// Results are the node identifiers
// resolved for each phyloreference,
// the first node is the primary match.
type Results map[string][]string

// A ServerError is an error reported by the reasoner.
type ServerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	return "Error occurred on server while reasoning: " + e.Message
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// Client is a reasoner client.
type Client struct {
	url       string
	secret    string
	algorithm string

	api     *webapi.Client
	metrics *metric.Metrics
	logger  *slog.Logger

	busy atomic.Bool
}

// Option is a client option.
type Option func(*Client)

// WithAlgorithm sets the hash algorithm of the signature.
// Valid values are "sha1" and "sha256".
func WithAlgorithm(alg string) Option {
	return func(c *Client) {
		c.algorithm = strings.ToLower(alg)
	}
}

// WithAPI sets the HTTP client used for the requests.
func WithAPI(api *webapi.Client) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// WithMetrics records the outcome of each submission.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger of the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a new client for a reasoner
// using a shared secret.
func New(url, secret string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:       url,
		secret:    secret,
		algorithm: DefaultAlgorithm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		c.api = webapi.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// InProgress returns true
// if a submission is in flight.
func (c *Client) InProgress() bool {
	return c.busy.Load()
}

// Body returns the form-encoded body
// of a JSON-LD document.
func Body(jsonld []byte) []byte {
	v := url.Values{}
	v.Set("jsonld", string(jsonld))
	return []byte(v.Encode())
}

// Sign returns the signature of a body
// as "<algorithm>=<hex digest>".
func Sign(alg, secret string, body []byte) (string, error) {
	var h func() hash.Hash
	switch alg {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	default:
		return "", fmt.Errorf("reasoner: unsupported signature algorithm %q", alg)
	}
	mac := hmac.New(h, []byte(secret))
	mac.Write(body)
	return alg + "=" + hex.EncodeToString(mac.Sum(nil)), nil
}

type response struct {
	Phylorefs Results `json:"phylorefs"`
}

type failure struct {
	Error string `json:"error"`
}

// Submit sends a JSON-LD document to the reasoner
// and returns the resolved nodes of each phyloreference.
//
// If another submission is in flight,
// it returns ErrInProgress without contacting the server.
func (c *Client) Submit(ctx context.Context, jsonld []byte) (Results, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.metrics.RecordSubmission("busy")
		return nil, ErrInProgress
	}
	defer c.busy.Store(false)

	body := Body(jsonld)
	sig, err := Sign(c.algorithm, c.secret, body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("reasoner: submit", "url", c.url, "bytes", len(body), "signature", sig)

	var resp response
	h := map[string]string{SignatureHeader: sig}
	if err := c.api.Post(ctx, c.url, "application/x-www-form-urlencoded; charset=UTF-8", body, h, &resp); err != nil {
		c.metrics.RecordSubmission("error")
		se := serverError(err)
		c.logger.Error("reasoner: submission failed", "url", c.url, "err", se)
		return nil, se
	}

	c.metrics.RecordSubmission("ok")
	if resp.Phylorefs == nil {
		resp.Phylorefs = Results{}
	}
	return resp.Phylorefs, nil
}

func serverError(err error) *ServerError {
	se := &ServerError{Message: unknownError, Err: err}
	var apiErr *webapi.APIError
	if !errors.As(err, &apiErr) {
		return se
	}
	se.StatusCode = apiErr.StatusCode
	var f failure
	if apiErr.Decode(&f) == nil && f.Error != "" {
		se.Message = f.Error
		return se
	}
	if st := http.StatusText(apiErr.StatusCode); st != "" {
		se.Message = st
	}
	return se
}
