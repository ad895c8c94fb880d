// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package curation_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/otresolver/config"
	"github.com/js-arias/otresolver/curation"
	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/subtree"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var otts = map[string]int64{
	"Alligator mississippiensis": 335590,
	"Caiman crocodilus":          335592,
	"Crocodylus niloticus":       35864,
	"Gavialis gangeticus":        1023154,
	"Osteolaemus tetraspis":      35868,
	"Tomistoma schlegelii":       1023153,
}

type services struct {
	tnrs, subtree, reasoner *httptest.Server
	submitted               string
}

func newServices(t *testing.T) *services {
	s := &services{}
	s.tnrs = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Names []string `json:"names"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		var res []any
		for _, n := range req.Names {
			res = append(res, map[string]any{
				"name": n,
				"matches": []any{map[string]any{
					"matched_name": n,
					"taxon":        map[string]any{"ott_id": otts[n], "name": n},
				}},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": res})
	}))
	s.subtree = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"newick": "((Alligator_mississippiensis_ott335590,Caiman_crocodilus_ott335592)mrcaott335590ott335592,Crocodylus_niloticus_ott35864)mrcaott335590ott35864;"}`))
	}))
	s.reasoner = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		v, _ := url.ParseQuery(string(b))
		s.submitted = v.Get("jsonld")

		var doc []map[string]any
		if err := json.Unmarshal([]byte(s.submitted), &doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "malformed JSON-LD"}`))
			return
		}
		res := make(map[string][]string)
		for _, o := range doc {
			id, _ := o["@id"].(string)
			if strings.HasPrefix(id, config.Default().Ontology.Base+"phyloref_") {
				res[id] = []string{"http://example.org/phyloref_open_tree_resolver#phylogeny_node0"}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"phylorefs": res})
	}))
	t.Cleanup(func() {
		s.tnrs.Close()
		s.subtree.Close()
		s.reasoner.Close()
	})
	return s
}

func (s *services) config() config.Config {
	c := config.Default()
	c.TNRS.URL = s.tnrs.URL
	c.Subtree.URL = s.subtree.URL
	c.Subtree.Fallback = s.subtree.URL
	c.Reasoning.URL = s.reasoner.URL
	return c
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkflow(t *testing.T) {
	srv := newServices(t)
	m := metric.New()
	r := curation.New(srv.config(), nil, m, quiet())
	ctx := context.Background()

	c, err := r.Example("brochu_2003")
	if err != nil {
		t.Fatalf("example: %v", err)
	}
	if len(c.Keys) == 0 {
		t.Fatalf("example: no phylorefs added")
	}
	if c, _ := r.Example("brochu_2003"); len(c.Keys) != 0 {
		t.Errorf("example imported twice: %q", c.Keys)
	}

	if err := r.QueryTaxonomy(ctx); err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	ids := r.State.OTTIDs()
	if len(ids) != len(otts) {
		t.Errorf("OTT IDs: got %v", ids)
	}

	out := r.FetchSubtree(ctx)
	if out.State != subtree.Done {
		t.Fatalf("subtree: got %v (%v)", out.State, out.Err)
	}
	if !strings.HasPrefix(r.State.Newick(), "((Alligator_mississippiensis_ott335590") {
		t.Errorf("newick: got %q", r.State.Newick())
	}

	res, err := r.Reason(ctx)
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if len(res) != len(c.Keys) {
		t.Errorf("results: got %v", res)
	}
	if !reflect.DeepEqual(r.State.Results(), res) {
		t.Errorf("session results: got %v, want %v", r.State.Results(), res)
	}
	for _, p := range r.State.Phylorefs() {
		if _, ok := res[p.ID]; !ok {
			t.Errorf("phyloref %q (%s) without results", p.Label, p.ID)
		}
	}
	if !strings.Contains(srv.submitted, "owl:Ontology") {
		t.Errorf("submitted document without header")
	}

	if v := testutil.ToFloat64(m.Requests.WithLabelValues("reasoner", "200")); v != 1 {
		t.Errorf("reasoner requests: got %v, want 1", v)
	}
}

func TestReasonFailureKeepsResults(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "reasoner crashed"}`))
	}))
	defer failing.Close()

	cfg := config.Default()
	cfg.Reasoning.URL = failing.URL
	r := curation.New(cfg, nil, nil, quiet())
	r.State.SetResults(reasoner.Results{"#p": {"#n"}})

	_, err := r.Reason(context.Background())
	var se *reasoner.ServerError
	if !errors.As(err, &se) || se.Message != "reasoner crashed" {
		t.Fatalf("error: got %v", err)
	}
	if got := r.State.Results(); !reflect.DeepEqual(got, reasoner.Results{"#p": {"#n"}}) {
		t.Errorf("results: got %v", got)
	}
	if r.Reasoner.InProgress() {
		t.Errorf("guard not released")
	}
}

func TestImportData(t *testing.T) {
	r := curation.New(config.Default(), nil, nil, quiet())
	in := strings.NewReader(`[{"subClassOf": "phyloref:Phyloreference", "label": "A"}, {"subClassOf": "phyloref:Phyloreference", "label": 3}]`)
	c, err := r.ImportData(in, "test.jsonld")
	if err == nil {
		t.Errorf("expecting shape error")
	}
	if !reflect.DeepEqual(c.Keys, []string{"A"}) {
		t.Errorf("added: got %q", c.Keys)
	}

	_, err = r.ImportData(strings.NewReader("{"), "bad.jsonld")
	if err == nil || !strings.Contains(err.Error(), "bad.jsonld") {
		t.Errorf("malformed import: got %v", err)
	}
}

func TestImportAfterDownload(t *testing.T) {
	r := curation.New(config.Default(), nil, nil, quiet())

	c, err := r.Example("brochu_2003")
	if err != nil {
		t.Fatalf("example: %v", err)
	}
	n := len(r.State.Phylorefs())
	if n != len(c.Keys) {
		t.Fatalf("phylorefs: got %d, want %d", n, len(c.Keys))
	}

	if _, err := r.Ontology(); err != nil {
		t.Fatalf("ontology: %v", err)
	}
	if c, _ := r.Example("brochu_2003"); len(c.Keys) != 0 {
		t.Errorf("example imported again after download: %q", c.Keys)
	}
	if got := len(r.State.Phylorefs()); got != n {
		t.Errorf("phylorefs: got %d, want %d", got, n)
	}
}
