// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tnrs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/js-arias/otresolver/tnrs"
)

type table struct {
	mu        sync.Mutex
	cleared   []string
	matches   map[string][]tnrs.Match
	unmatched []string
}

func newTable() *table {
	return &table{matches: make(map[string][]tnrs.Match)}
}

func (t *table) ClearMatches(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleared = append(t.cleared, names...)
	for _, n := range names {
		delete(t.matches, n)
	}
}

func (t *table) SetMatches(name string, m []tnrs.Match) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.matches[name] = m
}

func (t *table) SetUnmatched(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unmatched = append(t.unmatched, names...)
}

func (t *table) ott(name string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, _ := tnrs.OTTID(t.matches[name])
	return id
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type request struct {
	Names   []string `json:"names"`
	Context string   `json:"context_name"`
}

func result(name string, id int64, flags ...string) map[string]any {
	if flags == nil {
		flags = []string{}
	}
	return map[string]any{
		"name": name,
		"matches": []any{
			map[string]any{
				"matched_name": name,
				"score":        1.0,
				"taxon": map[string]any{
					"ott_id": id,
					"name":   name,
					"flags":  flags,
				},
			},
		},
	}
}

func TestNormalize(t *testing.T) {
	got := tnrs.Normalize([]string{"Homo sapiens", "Homo sapiens", "", "Canis lupus"})
	want := []string{"Canis lupus", "Homo sapiens"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalize: got %q, want %q", got, want)
	}
	if got := tnrs.Normalize(nil); len(got) != 0 {
		t.Errorf("normalize nil: got %q", got)
	}
}

func TestQuery(t *testing.T) {
	var mu sync.Mutex
	var reqs []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"results": []any{
				result(" Canis lupus ", 247341),
				result("Homo sapiens", 770315, "extinct_inherited"),
			},
		})
	}))
	defer srv.Close()

	c := tnrs.New(srv.URL, tnrs.WithLogger(quiet()), tnrs.WithContextName("Animals"))
	tab := newTable()
	tab.matches["Homo sapiens"] = []tnrs.Match{{}}

	if err := c.Query(context.Background(), []string{"Homo sapiens", "Homo sapiens", "", "Canis lupus"}, tab); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reqs) != 1 {
		t.Fatalf("requests: got %d, want 1", len(reqs))
	}
	want := []string{"Canis lupus", "Homo sapiens"}
	if !reflect.DeepEqual(reqs[0].Names, want) {
		t.Errorf("query names: got %q, want %q", reqs[0].Names, want)
	}
	if reqs[0].Context != "Animals" {
		t.Errorf("context name: got %q, want %q", reqs[0].Context, "Animals")
	}
	if !reflect.DeepEqual(tab.cleared, want) {
		t.Errorf("cleared: got %q, want %q", tab.cleared, want)
	}

	if id := tab.ott("Canis lupus"); id != 247341 {
		t.Errorf("Canis lupus: got %d, want %d", id, 247341)
	}
	if _, ok := tab.matches["Homo sapiens"]; ok {
		t.Errorf("flagged match for Homo sapiens should be excluded")
	}
}

func TestFlagSet(t *testing.T) {
	m := tnrs.Match{Taxon: tnrs.Taxon{Flags: []string{"sibling_higher", "EXTINCT"}}}

	if got := tnrs.AnyFlag(m); len(got) != 2 {
		t.Errorf("any flag: got %v", got)
	}
	d := tnrs.FlagSet("extinct", "hybrid")
	if got := d(m); !reflect.DeepEqual(got, []string{"EXTINCT"}) {
		t.Errorf("flag set: got %v", got)
	}
	if got := d(tnrs.Match{Taxon: tnrs.Taxon{Flags: []string{"incertae_sedis"}}}); len(got) != 0 {
		t.Errorf("flag set: unexpected reasons %v", got)
	}
}

func TestBatches(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req request
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		sizes = append(sizes, len(req.Names))
		mu.Unlock()

		var res []any
		for i, n := range req.Names {
			res = append(res, result(n, int64(i+1)))
		}
		json.NewEncoder(w).Encode(map[string]any{"results": res})
	}))
	defer srv.Close()

	var names []string
	for i := 0; i < 5; i++ {
		names = append(names, fmt.Sprintf("Genus species%c", 'a'+i))
	}

	c := tnrs.New(srv.URL, tnrs.WithBatch(2), tnrs.WithInFlight(1), tnrs.WithLogger(quiet()))
	tab := newTable()
	if err := c.Query(context.Background(), names, tab); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls: got %d, want 3", n)
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Errorf("batch sizes: got %v", sizes)
	}
	if len(tab.matches) != 5 {
		t.Errorf("matches: got %d, want 5", len(tab.matches))
	}
}

func TestBatchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Names[0] == "Alligator mississippiensis" {
			http.Error(w, "server down", http.StatusBadGateway)
			return
		}
		var res []any
		for _, n := range req.Names {
			res = append(res, result(n, 10))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results":         res,
			"unmatched_names": []string{"Nomen nudum"},
		})
	}))
	defer srv.Close()

	names := []string{"Alligator mississippiensis", "Caiman crocodilus", "Crocodylus niloticus"}
	c := tnrs.New(srv.URL, tnrs.WithBatch(2), tnrs.WithLogger(quiet()))
	tab := newTable()
	err := c.Query(context.Background(), names, tab)
	if err == nil {
		t.Fatalf("expecting error")
	}
	if _, ok := tab.matches["Alligator mississippiensis"]; ok {
		t.Errorf("failed batch should be unresolved")
	}
	if id := tab.ott("Crocodylus niloticus"); id != 10 {
		t.Errorf("Crocodylus niloticus: got %d, want 10", id)
	}
	if !reflect.DeepEqual(tab.unmatched, []string{"Nomen nudum"}) {
		t.Errorf("unmatched: got %q", tab.unmatched)
	}
}

// TestLastWriteWins documents that overlapping queries are not sequenced:
// a stale response that arrives late overwrites a newer one.
func TestLastWriteWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []any{result("Homo sapiens", int64(n))},
		})
	}))
	defer srv.Close()

	c := tnrs.New(srv.URL, tnrs.WithLogger(quiet()))
	tab := newTable()

	done := make(chan error)
	go func() {
		done <- c.Query(context.Background(), []string{"Homo sapiens"}, tab)
	}()
	<-started

	if err := c.Query(context.Background(), []string{"Homo sapiens"}, tab); err != nil {
		t.Fatalf("second query: %v", err)
	}
	if id := tab.ott("Homo sapiens"); id != 2 {
		t.Fatalf("after second query: got %d, want 2", id)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first query: %v", err)
	}
	if id := tab.ott("Homo sapiens"); id != 1 {
		t.Errorf("after stale response: got %d, want 1 (last response wins)", id)
	}
}
