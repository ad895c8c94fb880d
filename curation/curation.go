// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package curation binds the actions of a user
// to the session state and the remote services.
package curation

import (
	"context"
	"io"
	"log/slog"

	"github.com/js-arias/otresolver/config"
	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/ontology"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/tnrs"
	"github.com/js-arias/otresolver/webapi"
	"golang.org/x/time/rate"
)

// Resolver is a curation session
// connected to the remote services.
type Resolver struct {
	State     *session.State
	Assembler *ontology.Assembler

	TNRS     *tnrs.Client
	Subtree  *subtree.Client
	Reasoner *reasoner.Client

	loader *webapi.Client
	logger *slog.Logger
}

// New returns a resolver for a session
// using the given configuration.
// Metrics can be nil.
func New(cfg config.Config, st *session.State, m *metric.Metrics, logger *slog.Logger) *Resolver {
	if st == nil {
		st = session.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	api := func(service string) *webapi.Client {
		return webapi.New(
			webapi.WithTimeout(cfg.HTTP.Timeout),
			webapi.WithMetrics(m, service),
		)
	}

	a := ontology.New(cfg.Ontology.Base, cfg.Ontology.Context)
	if len(cfg.Ontology.Imports) > 0 {
		a.Imports = cfg.Ontology.Imports
	}

	return &Resolver{
		State:     st,
		Assembler: a,
		TNRS: tnrs.New(cfg.TNRS.URL,
			tnrs.WithAPI(api("tnrs")),
			tnrs.WithBatch(cfg.TNRS.Batch),
			tnrs.WithInFlight(cfg.TNRS.InFlight),
			tnrs.WithContextName(cfg.TNRS.Context),
			tnrs.WithApproximate(cfg.TNRS.Approximate),
			tnrs.WithDisqualifier(tnrs.FlagSet(cfg.TNRS.Flags...)),
			tnrs.WithRate(rate.NewLimiter(rate.Limit(10), 1)),
			tnrs.WithLogger(logger),
		),
		Subtree: subtree.New(cfg.Subtree.URL, cfg.Subtree.Fallback,
			subtree.WithAPI(api("subtree")),
			subtree.WithLogger(logger),
		),
		Reasoner: reasoner.New(cfg.Reasoning.URL, cfg.Reasoning.Secret,
			reasoner.WithAlgorithm(cfg.Reasoning.Algorithm),
			reasoner.WithAPI(api("reasoner")),
			reasoner.WithMetrics(m),
			reasoner.WithLogger(logger),
		),
		loader: api("import"),
		logger: logger,
	}
}

// QueryTaxonomy queries the scientific names
// of all specifiers in the taxonomy.
func (r *Resolver) QueryTaxonomy(ctx context.Context) error {
	return r.TNRS.Query(ctx, r.State.ScientificNames(), r.State.TaxonomySink())
}

// FetchSubtree replaces the phylogeny of the session
// with the induced subtree of the OTT IDs
// of all specifiers.
func (r *Resolver) FetchSubtree(ctx context.Context) subtree.Outcome {
	return r.Subtree.Fetch(ctx, r.State.OTTIDs(), r.State.SubtreeSink())
}

// Ontology returns the JSON-LD document of the session.
func (r *Resolver) Ontology() ([]byte, error) {
	doc, _ := r.State.Ontology(r.Assembler)
	return doc.JSON()
}

// Reason submits the session to the reasoner.
// On success the reasoning results of the session are replaced.
// On failure the previous results are kept.
func (r *Resolver) Reason(ctx context.Context) (reasoner.Results, error) {
	if r.Reasoner.InProgress() {
		return nil, reasoner.ErrInProgress
	}
	b, err := r.Ontology()
	if err != nil {
		return nil, err
	}
	res, err := r.Reasoner.Submit(ctx, b)
	if err != nil {
		return nil, err
	}
	r.State.SetResults(res)
	return res, nil
}

// Import adds the phyloreferences of a JSON-LD file or URL.
// Valid phyloreferences are added
// even if some objects have an invalid shape.
func (r *Resolver) Import(ctx context.Context, src string) (session.Change, error) {
	ps, err := phyloref.Load(ctx, r.loader, src)
	return r.add(ps, err)
}

// ImportData adds the phyloreferences of a JSON-LD document
// read from a reader.
func (r *Resolver) ImportData(in io.Reader, name string) (session.Change, error) {
	ps, err := phyloref.Read(in, name)
	return r.add(ps, err)
}

// Example adds the phyloreferences of a bundled example.
func (r *Resolver) Example(name string) (session.Change, error) {
	ps, err := phyloref.Example(name)
	return r.add(ps, err)
}

func (r *Resolver) add(ps []*phyloref.Phyloref, err error) (session.Change, error) {
	if err != nil {
		r.logger.Warn("curation: import", "err", err)
	}
	if len(ps) == 0 {
		return session.Change{Kind: session.Phylorefs}, err
	}
	return r.State.AddPhylorefs(ps), err
}
