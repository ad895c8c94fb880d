// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package subtree implements a client
// for the induced subtree service
// of the Open Tree of Life synthetic tree.
//
// A request that fails because some nodes
// are not in the synthetic tree
// is retried exactly once,
// on a secondary endpoint,
// without the offending nodes.
package subtree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/js-arias/otresolver/webapi"
)

// Default endpoints.
const (
	DefaultURL      = "https://ot39.opentreeoflife.org/v3/tree_of_life/induced_subtree"
	DefaultFallback = "https://api.opentreeoflife.org/v3/tree_of_life/induced_subtree"
)

// notFound is the message reported by the service
// when some nodes are not in the synthetic tree.
const notFound = "Nodes not found"

// ErrNoNodes is returned when every requested node
// was rejected by the service.
var ErrNoNodes = errors.New("subtree: no nodes left after removing unknown nodes")

// State is the state of an induced subtree request.
type State int

// Request states.
const (
	Requesting State = iota
	Retrying
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Requesting:
		return "requesting"
	case Retrying:
		return "retrying"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown state " + strconv.Itoa(int(s))
}

// A Sink receives the results of a request.
type Sink interface {
	// ResetUnknown removes the unknown IDs
	// of the previous request.
	ResetUnknown()

	// SetUnknown sets the IDs rejected by the service,
	// keyed as "ott<id>", with its reasons.
	SetUnknown(unknown map[string]string)

	// SetNewick sets the retrieved phylogeny.
	SetNewick(newick string)
}

// Outcome is the result of a request.
type Outcome struct {
	State  State
	Newick string

	// Unknown are the IDs rejected by the primary endpoint.
	Unknown map[string]string

	// Reduced is the list of IDs
	// sent to the secondary endpoint.
	Reduced []int64

	Err error
}

// Client is a client for the induced subtree service.
type Client struct {
	primary   string
	secondary string
	api       *webapi.Client
	logger    *slog.Logger
}

// Option is a client option.
type Option func(*Client)

// WithAPI sets the HTTP client used for the requests.
func WithAPI(api *webapi.Client) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
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

// New returns a client with a primary endpoint
// and a secondary endpoint used for the retry.
func New(primary, secondary string, opts ...Option) *Client {
	if primary == "" {
		primary = DefaultURL
	}
	if secondary == "" {
		secondary = DefaultFallback
	}
	c := &Client{
		primary:   primary,
		secondary: secondary,
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

type request struct {
	OTTIDs []int64 `json:"ott_ids"`
}

type response struct {
	Newick string `json:"newick"`
}

type failure struct {
	Message string            `json:"message"`
	Unknown map[string]string `json:"unknown"`
}

// Fetch retrieves the induced subtree of the given OTT IDs.
//
// If ids is empty, nothing is done
// and the returned outcome is Done with an empty tree.
// Otherwise the unknown IDs of the sink are reset,
// and the phylogeny of the sink is only updated
// on a successful request.
//
// If the primary endpoint rejects every ID
// the outcome is Failed with ErrNoNodes
// and the secondary endpoint is never called.
// The Open Tree Resolver web application
// posts the empty reduced list anyway.
func (c *Client) Fetch(ctx context.Context, ids []int64, sink Sink) Outcome {
	if len(ids) == 0 {
		return Outcome{State: Done}
	}
	sink.ResetUnknown()

	out := Outcome{State: Requesting}
	for {
		switch out.State {
		case Requesting:
			nwk, err := c.post(ctx, c.primary, ids)
			if err == nil {
				out.Newick = nwk
				out.State = Done
				continue
			}
			unknown, ok := nodesNotFound(err)
			if !ok {
				c.logger.Error("subtree: request failed", "url", c.primary, "err", err)
				out.Err = err
				out.State = Failed
				continue
			}
			c.logger.Info("subtree: nodes not in synthetic tree", "unknown", unknown)
			sink.SetUnknown(unknown)
			out.Unknown = unknown
			out.Reduced = reduce(ids, unknown)
			if len(out.Reduced) == 0 {
				out.Err = ErrNoNodes
				out.State = Failed
				continue
			}
			c.logger.Info("subtree: query reduced", "ids", out.Reduced)
			out.State = Retrying

		case Retrying:
			nwk, err := c.post(ctx, c.secondary, out.Reduced)
			if err != nil {
				c.logger.Error("subtree: retry failed", "url", c.secondary, "err", err)
				out.Err = err
				out.State = Failed
				continue
			}
			out.Newick = nwk
			out.State = Done

		case Done:
			sink.SetNewick(out.Newick)
			return out

		case Failed:
			return out
		}
	}
}

func (c *Client) post(ctx context.Context, url string, ids []int64) (string, error) {
	var resp response
	if err := c.api.PostJSON(ctx, url, request{OTTIDs: ids}, &resp); err != nil {
		return "", err
	}
	if resp.Newick == "" {
		return "", fmt.Errorf("subtree: empty newick from %s", url)
	}
	return resp.Newick, nil
}

// nodesNotFound returns the unknown nodes
// reported by a "nodes not found" error.
func nodesNotFound(err error) (map[string]string, bool) {
	var apiErr *webapi.APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	var f failure
	if err := apiErr.Decode(&f); err != nil {
		return nil, false
	}
	if !strings.Contains(f.Message, notFound) {
		return nil, false
	}
	if f.Unknown == nil {
		f.Unknown = map[string]string{}
	}
	return f.Unknown, true
}

// reduce returns the IDs not in the unknown set.
func reduce(ids []int64, unknown map[string]string) []int64 {
	var ls []int64
	for _, id := range ids {
		if _, ok := unknown[Key(id)]; ok {
			continue
		}
		ls = append(ls, id)
	}
	return ls
}

// Key returns the key used by the service
// for an OTT ID.
func Key(id int64) string {
	return "ott" + strconv.FormatInt(id, 10)
}
