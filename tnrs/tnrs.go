// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tnrs implements a client
// for the name matching service
// of the Open Tree of Life Taxonomy.
//
// Names are deduplicated and sorted,
// and sent in batches
// (the service accepts at most 1000 names per request).
// Each successful batch is written into a Sink
// as soon as it arrives,
// so when two queries with overlapping names run at the same time,
// the last response to arrive wins.
package tnrs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/js-arias/otresolver/webapi"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultURL is the default URL of the name matching service.
const DefaultURL = "https://api.opentreeoflife.org/v3/tnrs/match_names"

// MaxBatch is the maximum number of names
// sent in a single request.
const MaxBatch = 999

// Taxon is a taxon of the Open Tree Taxonomy.
type Taxon struct {
	OTTID        int64    `json:"ott_id"`
	Name         string   `json:"name"`
	UniqueName   string   `json:"unique_name"`
	Rank         string   `json:"rank"`
	Flags        []string `json:"flags"`
	IsSuppressed bool     `json:"is_suppressed"`
	Sources      []string `json:"tax_sources"`
}

// Match is a taxonomy match for a name.
type Match struct {
	MatchedName      string  `json:"matched_name"`
	Score            float64 `json:"score"`
	IsApproximate    bool    `json:"is_approximate_match"`
	IsSynonym        bool    `json:"is_synonym"`
	NomenclatureCode string  `json:"nomenclature_code"`
	Taxon            Taxon   `json:"taxon"`
}

// Result is the list of matches of a queried name.
type Result struct {
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

type response struct {
	Results   []Result `json:"results"`
	Unmatched []string `json:"unmatched_names"`
}

// OTTID returns the OTT ID of the top match.
func OTTID(matches []Match) (int64, bool) {
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Taxon.OTTID, true
}

// A Sink receives the results of a query.
type Sink interface {
	// ClearMatches removes any previous matches
	// of the given names.
	ClearMatches(names []string)

	// SetMatches sets the matches of a name.
	SetMatches(name string, matches []Match)

	// SetUnmatched records names without matches.
	SetUnmatched(names []string)
}

// A Disqualifier returns the reasons
// for which a match cannot be used.
// An empty list means that the match is valid.
type Disqualifier func(m Match) []string

// AnyFlag disqualifies a match
// with at least one flag.
func AnyFlag(m Match) []string {
	return m.Taxon.Flags
}

// FlagSet returns a disqualifier
// that only rejects matches with any of the given flags.
// Flags are compared without case.
// If no flag is given,
// it is the same as AnyFlag.
func FlagSet(flags ...string) Disqualifier {
	if len(flags) == 0 {
		return AnyFlag
	}
	set := make(map[string]bool, len(flags))
	for _, f := range flags {
		set[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return func(m Match) []string {
		var reasons []string
		for _, f := range m.Taxon.Flags {
			if set[strings.ToLower(f)] {
				reasons = append(reasons, f)
			}
		}
		return reasons
	}
}

// Client is a client for the name matching service.
type Client struct {
	url         string
	api         *webapi.Client
	batch       int
	contextName string
	approximate bool
	inFlight    int
	limiter     *rate.Limiter
	disqualify  Disqualifier
	logger      *slog.Logger
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

// WithBatch sets the maximum number of names per request.
// Values outside [1, MaxBatch] are ignored.
func WithBatch(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= MaxBatch {
			c.batch = n
		}
	}
}

// WithContextName restricts the matches
// to a named taxonomic context
// (for example "Animals").
func WithContextName(name string) Option {
	return func(c *Client) {
		c.contextName = name
	}
}

// WithApproximate enables fuzzy matching.
func WithApproximate(ok bool) Option {
	return func(c *Client) {
		c.approximate = ok
	}
}

// WithInFlight sets the maximum number of batches
// requested at the same time.
func WithInFlight(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.inFlight = n
		}
	}
}

// WithRate sets a rate limit between batch requests.
func WithRate(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithDisqualifier sets the rule used to reject top matches.
func WithDisqualifier(d Disqualifier) Option {
	return func(c *Client) {
		if d != nil {
			c.disqualify = d
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

// New returns a new client for the service at the given URL.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		batch:      MaxBatch,
		inFlight:   4,
		disqualify: AnyFlag,
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

// Normalize returns the sorted list of distinct names,
// without empty names.
func Normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	var ls []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		ls = append(ls, n)
	}
	slices.Sort(ls)
	return ls
}

// Query queries the given names
// and writes the results into the sink.
//
// Before any request is made,
// the previous matches of the names are cleared.
// Batches are independent:
// a failed batch is logged and its names are left unresolved,
// while the other batches are still stored.
// The returned error joins the errors of all failed batches.
func (c *Client) Query(ctx context.Context, names []string, sink Sink) error {
	names = Normalize(names)
	if len(names) == 0 {
		return nil
	}
	sink.ClearMatches(names)

	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	g.SetLimit(c.inFlight)
	for i, b := range batches(names, c.batch) {
		g.Go(func() error {
			if err := c.query(ctx, b, sink); err != nil {
				c.logger.Warn("tnrs: batch failed", "batch", i, "names", len(b), "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("tnrs: batch %d: %w", i, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

func (c *Client) query(ctx context.Context, names []string, sink Sink) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req := map[string]any{
		"names": names,
	}
	if c.contextName != "" {
		req["context_name"] = c.contextName
	}
	if c.approximate {
		req["do_approximate_matching"] = true
	}

	var resp response
	if err := c.api.PostJSON(ctx, c.url, req, &resp); err != nil {
		return err
	}

	unmatched := resp.Unmatched
	for _, r := range resp.Results {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		if len(r.Matches) == 0 {
			unmatched = append(unmatched, name)
			continue
		}
		if reasons := c.disqualify(r.Matches[0]); len(reasons) > 0 {
			c.logger.Info("tnrs: ignoring match", "name", name, "flags", reasons)
			continue
		}
		sink.SetMatches(name, r.Matches)
	}
	if len(unmatched) > 0 {
		sink.SetUnmatched(unmatched)
	}
	return nil
}

func batches(names []string, size int) [][]string {
	var bs [][]string
	for len(names) > size {
		bs = append(bs, names[:size:size])
		names = names[size:]
	}
	if len(names) > 0 {
		bs = append(bs, names)
	}
	return bs
}
