// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package session_test

import (
	"reflect"
	"testing"

	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/ontology"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/taxon"
	"github.com/js-arias/otresolver/tnrs"
)

func crocodylia() *phyloref.Phyloref {
	p := phyloref.New("Crocodylia")
	p.AddSpecifier(phyloref.Internal, taxon.NewScientificName("Alligator mississippiensis"))
	p.AddSpecifier(phyloref.Internal, taxon.NewScientificName("Crocodylus niloticus"))
	p.AddSpecifier(phyloref.External, taxon.NewScientificName("Alligator mississippiensis"))
	p.EquivalentClass = map[string]any{"@type": "owl:Class"}
	return p
}

func TestNew(t *testing.T) {
	s := session.New()
	if s.Newick() != newick.Empty {
		t.Errorf("newick: got %q, want %q", s.Newick(), newick.Empty)
	}
	if len(s.Phylorefs()) != 0 || len(s.Results()) != 0 || len(s.Unknown()) != 0 {
		t.Errorf("new session is not empty")
	}
}

func TestAddPhylorefs(t *testing.T) {
	s := session.New()
	var changes []session.Change
	cancel := s.Subscribe(func(c session.Change) {
		changes = append(changes, c)
	})

	c := s.AddPhylorefs([]*phyloref.Phyloref{crocodylia(), phyloref.New("")})
	if !reflect.DeepEqual(c.Keys, []string{"Crocodylia", "Phyloref 2"}) {
		t.Errorf("added: got %q", c.Keys)
	}
	c = s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})
	if len(c.Keys) != 0 {
		t.Errorf("duplicated phyloref added: %q", c.Keys)
	}
	if n := len(s.Phylorefs()); n != 2 {
		t.Errorf("phylorefs: got %d, want 2", n)
	}

	cancel()
	s.Clear()
	if len(changes) != 2 {
		t.Errorf("notified changes: got %d, want 2", len(changes))
	}
	if changes[0].Kind != session.Phylorefs || changes[1].Seq <= changes[0].Seq {
		t.Errorf("changes: got %+v", changes)
	}
}

func TestPhylorefsAreCopies(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})

	ps := s.Phylorefs()
	ps[0].Label = "changed"
	ps[0].AddSpecifier(phyloref.Internal, taxon.NewScientificName("Gavialis gangeticus"))
	if got := s.Phylorefs()[0]; got.Label != "Crocodylia" || len(got.Internal) != 2 {
		t.Errorf("session modified through a copy: %q, %d", got.Label, len(got.Internal))
	}

	if _, err := s.UpdatePhyloref(0, func(p *phyloref.Phyloref) error {
		_, err := p.RemoveSpecifier(phyloref.External, 0)
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := s.Phylorefs()[0]; len(got.External) != 0 {
		t.Errorf("external specifiers: got %d, want 0", len(got.External))
	}
	if _, err := s.UpdatePhyloref(3, func(*phyloref.Phyloref) error { return nil }); err == nil {
		t.Errorf("expecting error for invalid phyloref")
	}
	if _, err := s.RemovePhyloref(0); err != nil {
		t.Errorf("remove: %v", err)
	}
	if len(s.Phylorefs()) != 0 {
		t.Errorf("phyloref not removed")
	}
}

func TestClear(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})
	s.SetResults(reasoner.Results{"#p": {"#n"}})
	s.SetNewick("(A,B);")

	s.Clear()
	if len(s.Phylorefs()) != 0 || len(s.Results()) != 0 {
		t.Errorf("clear must remove phylorefs and results")
	}
	if s.Newick() != "(A,B);" {
		t.Errorf("clear must keep the phylogeny")
	}
}

func TestTaxonomy(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})

	names := s.ScientificNames()
	want := []string{"Alligator mississippiensis", "Crocodylus niloticus", "Alligator mississippiensis"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names: got %q, want %q", names, want)
	}

	sink := s.TaxonomySink()
	sink.ClearMatches(tnrs.Normalize(names))
	sink.SetMatches("Crocodylus niloticus", []tnrs.Match{{Taxon: tnrs.Taxon{OTTID: 35864}}})
	sink.SetMatches("Alligator mississippiensis", []tnrs.Match{{Taxon: tnrs.Taxon{OTTID: 335590}}})
	sink.SetUnmatched([]string{"Nomen nudum"})

	if ids := s.OTTIDs(); !reflect.DeepEqual(ids, []int64{335590, 35864}) {
		t.Errorf("OTT IDs: got %v", ids)
	}
	if id, ok := s.OTTID(taxon.NewScientificName("Crocodylus niloticus")); !ok || id != 35864 {
		t.Errorf("OTT ID: got %d, %v", id, ok)
	}
	if !reflect.DeepEqual(s.Unmatched(), []string{"Nomen nudum"}) {
		t.Errorf("unmatched: got %q", s.Unmatched())
	}

	s.ClearMatches([]string{"Crocodylus niloticus", "Nomen nudum"})
	if _, ok := s.OTTID(taxon.NewScientificName("Crocodylus niloticus")); ok {
		t.Errorf("match not cleared")
	}
	if len(s.Unmatched()) != 0 {
		t.Errorf("unmatched not cleared")
	}
}

func TestSubtreeSink(t *testing.T) {
	s := session.New()
	sink := s.SubtreeSink()
	sink.SetUnknown(map[string]string{"ott3": "pruned_ott_id"})
	sink.SetNewick("(A,B);")
	if s.Newick() != "(A,B);" || s.Unknown()["ott3"] != "pruned_ott_id" {
		t.Errorf("sink: got %q, %v", s.Newick(), s.Unknown())
	}
	sink.ResetUnknown()
	if len(s.Unknown()) != 0 {
		t.Errorf("unknown not reset")
	}
}

func TestResultsReplace(t *testing.T) {
	s := session.New()
	s.SetResults(reasoner.Results{"#a": {"#n1"}, "#b": {"#n2"}})
	s.SetResults(reasoner.Results{"#c": {"#n3"}})
	want := reasoner.Results{"#c": {"#n3"}}
	if got := s.Results(); !reflect.DeepEqual(got, want) {
		t.Errorf("results: got %v, want %v", got, want)
	}
}

func TestOntology(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})
	s.SetNewick("(Alligator_mississippiensis,Crocodylus_niloticus);")

	a := ontology.New("", "")
	a.NewID = func() string { return "1" }
	doc, c := s.Ontology(a)
	if c.Kind != session.Ontology || len(c.Keys) != 1 {
		t.Errorf("change: got %+v", c)
	}
	if len(doc.Objects) != 5 {
		t.Errorf("objects: got %d, want 5", len(doc.Objects))
	}
	if id := s.Phylorefs()[0].ID; id != ontology.DefaultBaseURI+"phyloref_1" {
		t.Errorf("phyloref ID not stored: %q", id)
	}
	if s.Index().Len() != 3 {
		t.Errorf("index: got %d nodes", s.Index().Len())
	}

	_, c = s.Ontology(a)
	if len(c.Keys) != 0 {
		t.Errorf("second assembly assigned IDs: %q", c.Keys)
	}
}

func TestAddAfterOntology(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})
	s.SetNewick("(Alligator_mississippiensis,Crocodylus_niloticus);")
	s.Ontology(ontology.New("", ""))

	if c := s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()}); len(c.Keys) != 0 {
		t.Errorf("phyloref added again after assembly: %q", c.Keys)
	}

	// different identifiers are different phyloreferences
	p := crocodylia()
	p.ID = "http://example.org/other#crocodylia"
	if c := s.AddPhylorefs([]*phyloref.Phyloref{p}); len(c.Keys) != 1 {
		t.Errorf("phyloref with a different ID: got %q", c.Keys)
	}
	if n := len(s.Phylorefs()); n != 2 {
		t.Errorf("phylorefs: got %d, want 2", n)
	}
}

func TestSnapshot(t *testing.T) {
	s := session.New()
	s.AddPhylorefs([]*phyloref.Phyloref{crocodylia()})
	s.SetNewick("(A,B);")
	s.SetMatches("Crocodylus niloticus", []tnrs.Match{{Taxon: tnrs.Taxon{OTTID: 35864}}})
	s.SetUnmatched([]string{"X y"})
	s.SetUnknown(map[string]string{"ott1": "x"})
	s.SetResults(reasoner.Results{"#p": {"#n"}})

	snap := s.Snapshot()
	r := session.Restore(snap)
	got := r.Snapshot()
	if got.Newick != snap.Newick || !reflect.DeepEqual(got.Unknown, snap.Unknown) ||
		!reflect.DeepEqual(got.Results, snap.Results) || !reflect.DeepEqual(got.Unmatched, snap.Unmatched) ||
		!reflect.DeepEqual(got.Matches, snap.Matches) {
		t.Errorf("restore: got %+v, want %+v", got, snap)
	}
	if len(got.Phylorefs) != 1 || !got.Phylorefs[0].Equal(snap.Phylorefs[0]) {
		t.Errorf("restored phylorefs differ")
	}
}
