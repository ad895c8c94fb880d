// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subtree_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/webapi"
)

type sink struct {
	resets  int
	unknown map[string]string
	newick  string
}

func (s *sink) ResetUnknown()                  { s.resets++; s.unknown = nil }
func (s *sink) SetUnknown(u map[string]string) { s.unknown = u }
func (s *sink) SetNewick(nwk string)           { s.newick = nwk }

func quiet() subtree.Option {
	return subtree.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const notFound = `{"message":"[/v3/tree_of_life/induced_subtree] Error: Nodes not found!","unknown":{"ott3":"pruned_ott_id"}}`

func decode(t *testing.T, r *http.Request) []int64 {
	t.Helper()
	var req struct {
		IDs []int64 `json:"ott_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("bad request: %v", err)
	}
	return req.IDs
}

func TestRetry(t *testing.T) {
	var primaryIDs, secondaryIDs []int64
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryIDs = decode(t, r)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(notFound))
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryIDs = decode(t, r)
		w.Write([]byte(`{"newick":"(A_ott1,B_ott2)mrcaott1ott2;"}`))
	}))
	defer secondary.Close()

	c := subtree.New(primary.URL, secondary.URL, quiet())
	s := &sink{newick: "()"}
	out := c.Fetch(context.Background(), []int64{1, 2, 3}, s)

	if out.State != subtree.Done {
		t.Fatalf("state: got %v, want %v (err: %v)", out.State, subtree.Done, out.Err)
	}
	if !reflect.DeepEqual(primaryIDs, []int64{1, 2, 3}) {
		t.Errorf("primary ids: got %v", primaryIDs)
	}
	if !reflect.DeepEqual(secondaryIDs, []int64{1, 2}) {
		t.Errorf("retry ids: got %v, want %v", secondaryIDs, []int64{1, 2})
	}
	want := map[string]string{"ott3": "pruned_ott_id"}
	if !reflect.DeepEqual(s.unknown, want) {
		t.Errorf("unknown: got %v, want %v", s.unknown, want)
	}
	if s.newick != "(A_ott1,B_ott2)mrcaott1ott2;" {
		t.Errorf("newick: got %q", s.newick)
	}
	if s.resets != 1 {
		t.Errorf("resets: got %d, want 1", s.resets)
	}
}

func TestSuccess(t *testing.T) {
	var secondary atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"newick":"(A,B);"}`))
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondary.Add(1)
	}))
	defer fallback.Close()

	c := subtree.New(primary.URL, fallback.URL, quiet())
	s := &sink{unknown: map[string]string{"ott9": "old"}}
	out := c.Fetch(context.Background(), []int64{1, 2}, s)
	if out.State != subtree.Done || s.newick != "(A,B);" {
		t.Errorf("outcome: got %+v, newick %q", out, s.newick)
	}
	if s.unknown != nil {
		t.Errorf("unknown IDs not reset: %v", s.unknown)
	}
	if n := secondary.Load(); n != 0 {
		t.Errorf("secondary calls: got %d, want 0", n)
	}
}

func TestEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := subtree.New(srv.URL, srv.URL, quiet())
	s := &sink{newick: "(A,B);", unknown: map[string]string{"ott1": "x"}}
	out := c.Fetch(context.Background(), nil, s)
	if out.State != subtree.Done {
		t.Errorf("state: got %v", out.State)
	}
	if calls.Load() != 0 || s.resets != 0 {
		t.Errorf("empty request must be a no-op")
	}
	if s.newick != "(A,B);" {
		t.Errorf("newick changed: %q", s.newick)
	}
}

func TestOtherFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"internal error"}`))
	}))
	defer srv.Close()

	c := subtree.New(srv.URL, srv.URL, quiet())
	s := &sink{newick: "(A,B);"}
	out := c.Fetch(context.Background(), []int64{1}, s)
	if out.State != subtree.Failed {
		t.Errorf("state: got %v, want %v", out.State, subtree.Failed)
	}
	var apiErr *webapi.APIError
	if !errors.As(out.Err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("error: got %v", out.Err)
	}
	if s.newick != "(A,B);" {
		t.Errorf("newick changed: %q", s.newick)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls: got %d, want 1", n)
	}
}

func TestSecondNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(notFound))
	}))
	defer srv.Close()

	c := subtree.New(srv.URL, srv.URL, quiet())
	s := &sink{newick: "()"}
	out := c.Fetch(context.Background(), []int64{1, 2, 3}, s)
	if out.State != subtree.Failed {
		t.Errorf("state: got %v, want %v", out.State, subtree.Failed)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls: got %d, want 2", n)
	}
	if s.newick != "()" {
		t.Errorf("newick changed: %q", s.newick)
	}
	if s.unknown["ott3"] != "pruned_ott_id" {
		t.Errorf("unknown: got %v", s.unknown)
	}
}

func TestAllUnknown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(notFound))
	}))
	defer srv.Close()

	c := subtree.New(srv.URL, srv.URL, quiet())
	out := c.Fetch(context.Background(), []int64{3}, &sink{})
	if out.State != subtree.Failed || !errors.Is(out.Err, subtree.ErrNoNodes) {
		t.Errorf("outcome: got %+v", out)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls: got %d, want 1", n)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[subtree.State]string{
		subtree.Requesting: "requesting",
		subtree.Retrying:   "retrying",
		subtree.Done:       "done",
		subtree.Failed:     "failed",
	} {
		if got := s.String(); got != want {
			t.Errorf("state %d: got %q, want %q", s, got, want)
		}
	}
}
