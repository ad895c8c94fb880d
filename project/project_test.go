// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/project"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/tnrs"
	"golang.org/x/exp/slices"
)

type setPath struct {
	set  project.Dataset
	path string
}

func TestProject(t *testing.T) {
	p := project.New()

	sets := []setPath{
		{project.Phylorefs, "brochu-2003.jsonld"},
		{project.Phylogeny, "crocodylia.nwk"},
		{project.Taxonomy, "taxonomy.tab"},
		{project.Unknown, "unknown.tab"},
		{project.Results, "results.tab"},
		{project.Ontology, "ontology.jsonld"},
	}

	for _, s := range sets {
		p.Add(s.set, s.path)
	}
	testProject(t, p, sets)

	name := filepath.Join(t.TempDir(), "tmp-project-for-test.tab")
	p.SetName(name)
	if err := p.Write(); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}

	np, err := project.Read(name)
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	testProject(t, np, sets)
}

func testProject(t testing.TB, p *project.Project, sets []setPath) {
	t.Helper()

	for _, s := range sets {
		if path := p.Path(s.set); path != s.path {
			t.Errorf("set %s: got path %q, want %q", s.set, path, s.path)
		}
	}
	datasets := make([]project.Dataset, 0, len(sets))
	for _, v := range sets {
		datasets = append(datasets, v.set)
	}
	slices.Sort(datasets)

	if ls := p.Sets(); !reflect.DeepEqual(ls, datasets) {
		t.Errorf("sets: got %v, want %v", ls, datasets)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "missing.tab")
	p, err := project.Open(name)
	if err != nil {
		t.Fatalf("open: unexpected error: %v", err)
	}
	if p.Name() != name {
		t.Errorf("name: got %q, want %q", p.Name(), name)
	}
	if len(p.Sets()) != 0 {
		t.Errorf("sets: got %v, want none", p.Sets())
	}
	want := filepath.Join(dir, "phylogeny.nwk")
	if got := p.DefaultPath(project.Phylogeny); got != want {
		t.Errorf("default path: got %q, want %q", got, want)
	}
}

func TestReadUnknownDataset(t *testing.T) {
	name := filepath.Join(t.TempDir(), "project.tab")
	data := "# otresolver project files\ndataset\tpath\nphylogeny\ttree.nwk\ntrees\ttrees.tab\n"
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := project.Read(name)
	if err == nil {
		t.Fatalf("expecting error on unknown dataset")
	}
	if !strings.Contains(err.Error(), `unknown dataset "trees"`) {
		t.Errorf("error: got %q", err)
	}
}

func TestTaxonomy(t *testing.T) {
	matches := map[string][]tnrs.Match{
		"Caiman crocodilus": {
			{
				MatchedName: "Caiman crocodilus",
				Score:       1,
				Taxon: tnrs.Taxon{
					OTTID:      335592,
					Name:       "Caiman crocodilus",
					UniqueName: "Caiman crocodilus",
					Rank:       "species",
				},
			},
		},
		"Gavialis gangeticus": {
			{
				MatchedName:   "Gavialis gangeticus",
				Score:         0.9,
				IsApproximate: true,
				IsSynonym:     true,
				Taxon: tnrs.Taxon{
					OTTID:      35875,
					Name:       "Gavialis gangeticus",
					UniqueName: "Gavialis gangeticus",
					Rank:       "species",
					Flags:      []string{"sibling_higher", "extinct"},
				},
			},
		},
	}
	unmatched := []string{"Nonexistent taxon"}

	var buf bytes.Buffer
	if err := project.WriteTaxonomy(&buf, matches, unmatched); err != nil {
		t.Fatalf("write: unexpected error: %v", err)
	}
	gm, gu, err := project.ReadTaxonomy(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("read: unexpected error: %v", err)
	}
	if !reflect.DeepEqual(gm, matches) {
		t.Errorf("matches: got %v, want %v", gm, matches)
	}
	if !reflect.DeepEqual(gu, unmatched) {
		t.Errorf("unmatched: got %v, want %v", gu, unmatched)
	}
}

func TestReadTaxonomyErrors(t *testing.T) {
	tests := map[string]string{
		"no header": "name\tott\n",
		"bad ott":   "name\tott\tmatched\tunique\trank\tscore\tapproximate\tsynonym\tflags\nA\tx\t\t\t\t\t\t\t\n",
		"no name":   "name\tott\tmatched\tunique\trank\tscore\tapproximate\tsynonym\tflags\n\t1\t\t\t\t\t\t\t\n",
	}
	for name, in := range tests {
		if _, _, err := project.ReadTaxonomy(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}

func TestUnknownAndResults(t *testing.T) {
	unknown := map[string]string{
		"ott335590": "pruned_ott_id",
		"ott35864":  "broken",
	}
	var buf bytes.Buffer
	if err := project.WriteUnknown(&buf, unknown); err != nil {
		t.Fatalf("write unknown: unexpected error: %v", err)
	}
	gu, err := project.ReadUnknown(&buf)
	if err != nil {
		t.Fatalf("read unknown: unexpected error: %v", err)
	}
	if !reflect.DeepEqual(gu, unknown) {
		t.Errorf("unknown: got %v, want %v", gu, unknown)
	}

	res := reasoner.Results{
		"http://example.org/phyloref_a": {"http://example.org/phylogeny_node1", "http://example.org/phylogeny_node3"},
		"http://example.org/phyloref_b": {},
	}
	buf.Reset()
	if err := project.WriteResults(&buf, res); err != nil {
		t.Fatalf("write results: unexpected error: %v", err)
	}
	gr, err := project.ReadResults(&buf)
	if err != nil {
		t.Fatalf("read results: unexpected error: %v", err)
	}
	if !reflect.DeepEqual(gr, res) {
		t.Errorf("results: got %v, want %v", gr, res)
	}
}

func TestSession(t *testing.T) {
	dir := t.TempDir()
	p, err := project.Open(filepath.Join(dir, "project.tab"))
	if err != nil {
		t.Fatalf("open: unexpected error: %v", err)
	}

	st := session.New()
	ps, err := phyloref.Example("brochu_2003")
	if err != nil {
		t.Fatalf("example: unexpected error: %v", err)
	}
	st.AddPhylorefs(ps)
	st.SetNewick("((Alligator_mississippiensis_ott335590,Caiman_crocodilus_ott335592),Crocodylus_niloticus_ott35864);")
	st.SetMatches("Caiman crocodilus", []tnrs.Match{{
		MatchedName: "Caiman crocodilus",
		Score:       1,
		Taxon:       tnrs.Taxon{OTTID: 335592, Name: "Caiman crocodilus"},
	}})
	st.SetUnmatched([]string{"Nonexistent taxon"})
	st.SetUnknown(map[string]string{"ott1": "broken"})
	st.SetResults(reasoner.Results{"phyloref_a": {"phylogeny_node0"}})

	if err := p.Save(st); err != nil {
		t.Fatalf("save: unexpected error: %v", err)
	}
	for _, s := range []project.Dataset{project.Phylorefs, project.Phylogeny, project.Taxonomy, project.Unknown, project.Results} {
		if _, err := os.Stat(p.Path(s)); err != nil {
			t.Errorf("dataset %s: %v", s, err)
		}
	}

	np, err := project.Read(p.Name())
	if err != nil {
		t.Fatalf("read: unexpected error: %v", err)
	}
	got, err := np.Session()
	if err != nil {
		t.Fatalf("session: unexpected error: %v", err)
	}

	want := st.Snapshot()
	snap := got.Snapshot()
	if len(snap.Phylorefs) != len(want.Phylorefs) {
		t.Fatalf("phylorefs: got %d, want %d", len(snap.Phylorefs), len(want.Phylorefs))
	}
	for i, ph := range snap.Phylorefs {
		if !ph.Equal(want.Phylorefs[i]) {
			t.Errorf("phyloref %d: got %v, want %v", i, ph.Object(), want.Phylorefs[i].Object())
		}
	}
	if snap.Newick != want.Newick {
		t.Errorf("newick: got %q, want %q", snap.Newick, want.Newick)
	}
	if !reflect.DeepEqual(snap.Matches, want.Matches) {
		t.Errorf("matches: got %v, want %v", snap.Matches, want.Matches)
	}
	if !reflect.DeepEqual(snap.Unmatched, want.Unmatched) {
		t.Errorf("unmatched: got %v, want %v", snap.Unmatched, want.Unmatched)
	}
	if !reflect.DeepEqual(snap.Unknown, want.Unknown) {
		t.Errorf("unknown: got %v, want %v", snap.Unknown, want.Unknown)
	}
	if !reflect.DeepEqual(snap.Results, want.Results) {
		t.Errorf("results: got %v, want %v", snap.Results, want.Results)
	}
}
