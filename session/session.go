// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package session implements the state of a curation session:
// the phyloreferences,
// the phylogeny,
// the taxonomy matches,
// and the results of the reasoner.
//
// Every change of the state is made by a transition method
// that returns a description of the change.
// Subscribers are notified of every change.
package session

import (
	"fmt"
	"sync"

	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/ontology"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/taxon"
	"github.com/js-arias/otresolver/tnrs"
	"golang.org/x/exp/slices"
)

// Kind is the kind of data modified by a change.
type Kind string

// Kinds of changes.
const (
	Phylorefs Kind = "phylorefs"
	Phylogeny Kind = "phylogeny"
	Taxonomy  Kind = "taxonomy"
	Unknown   Kind = "unknown"
	Results   Kind = "results"
	Ontology  Kind = "ontology"
)

// A Change describes a change of the state.
type Change struct {
	Seq  uint64   `json:"seq"`
	Kind Kind     `json:"kind"`
	Keys []string `json:"keys,omitempty"`
}

// State is the state of a session.
// It is safe for concurrent use.
type State struct {
	mu sync.RWMutex

	phylorefs []*phyloref.Phyloref
	newick    string
	matches   map[string][]tnrs.Match
	unmatched map[string]bool
	unknown   map[string]string
	results   reasoner.Results
	index     *ontology.Index

	seq    uint64
	nextID int
	subs   map[int]func(Change)
}

// New returns a new empty session.
func New() *State {
	return &State{
		newick:    newick.Empty,
		matches:   make(map[string][]tnrs.Match),
		unmatched: make(map[string]bool),
		unknown:   make(map[string]string),
		results:   reasoner.Results{},
		subs:      make(map[int]func(Change)),
	}
}

// Subscribe adds a function called after each change.
// It returns a function that removes the subscription.
func (s *State) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// commit must be called with the lock held.
// It returns the change and the subscribers to notify.
func (s *State) commit(k Kind, keys []string) (Change, []func(Change)) {
	s.seq++
	c := Change{Seq: s.seq, Kind: k, Keys: keys}
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return c, subs
}

func notify(c Change, subs []func(Change)) Change {
	for _, fn := range subs {
		fn(c)
	}
	return c
}

// Seq returns the sequence number of the last change.
func (s *State) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Phylorefs returns a copy of the phyloreferences.
func (s *State) Phylorefs() []*phyloref.Phyloref {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePhylorefs(s.phylorefs)
}

func clonePhylorefs(ps []*phyloref.Phyloref) []*phyloref.Phyloref {
	ls := make([]*phyloref.Phyloref, 0, len(ps))
	for _, p := range ps {
		ls = append(ls, p.Clone())
	}
	return ls
}

// AddPhylorefs adds phyloreferences
// that are not already in the session.
// The change keys are the titles of the added phyloreferences.
func (s *State) AddPhylorefs(ps []*phyloref.Phyloref) Change {
	s.mu.Lock()
	var added []string
	for _, p := range ps {
		if slices.ContainsFunc(s.phylorefs, p.Equal) {
			continue
		}
		added = append(added, p.Title(len(s.phylorefs)))
		s.phylorefs = append(s.phylorefs, p.Clone())
	}
	c, subs := s.commit(Phylorefs, added)
	s.mu.Unlock()
	return notify(c, subs)
}

// UpdatePhyloref modifies the i-th phyloreference.
func (s *State) UpdatePhyloref(i int, fn func(p *phyloref.Phyloref) error) (Change, error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.phylorefs) {
		s.mu.Unlock()
		return Change{}, fmt.Errorf("session: phyloref %d not found", i)
	}
	p := s.phylorefs[i].Clone()
	if err := fn(p); err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	s.phylorefs[i] = p
	c, subs := s.commit(Phylorefs, []string{p.Title(i)})
	s.mu.Unlock()
	return notify(c, subs), nil
}

// RemovePhyloref removes the i-th phyloreference.
func (s *State) RemovePhyloref(i int) (Change, error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.phylorefs) {
		s.mu.Unlock()
		return Change{}, fmt.Errorf("session: phyloref %d not found", i)
	}
	t := s.phylorefs[i].Title(i)
	s.phylorefs = slices.Delete(s.phylorefs, i, i+1)
	c, subs := s.commit(Phylorefs, []string{t})
	s.mu.Unlock()
	return notify(c, subs), nil
}

// Clear removes all phyloreferences
// and the reasoning results.
func (s *State) Clear() Change {
	s.mu.Lock()
	s.phylorefs = nil
	s.results = reasoner.Results{}
	c, subs := s.commit(Phylorefs, nil)
	s.mu.Unlock()
	return notify(c, subs)
}

// Newick returns the phylogeny of the session.
func (s *State) Newick() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newick
}

// SetNewick sets the phylogeny of the session.
// An empty string is the empty phylogeny.
func (s *State) SetNewick(nwk string) Change {
	if nwk == "" {
		nwk = newick.Empty
	}
	s.mu.Lock()
	s.newick = nwk
	c, subs := s.commit(Phylogeny, nil)
	s.mu.Unlock()
	return notify(c, subs)
}

// Matches returns the taxonomy matches of a name.
func (s *State) Matches(name string) []tnrs.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matches[name]
}

// ClearMatches removes the matches of the given names.
func (s *State) ClearMatches(names []string) Change {
	s.mu.Lock()
	for _, n := range names {
		delete(s.matches, n)
		delete(s.unmatched, n)
	}
	c, subs := s.commit(Taxonomy, names)
	s.mu.Unlock()
	return notify(c, subs)
}

// SetMatches sets the matches of a name.
func (s *State) SetMatches(name string, m []tnrs.Match) Change {
	s.mu.Lock()
	s.matches[name] = m
	delete(s.unmatched, name)
	c, subs := s.commit(Taxonomy, []string{name})
	s.mu.Unlock()
	return notify(c, subs)
}

// SetUnmatched records names without taxonomy matches.
func (s *State) SetUnmatched(names []string) Change {
	s.mu.Lock()
	for _, n := range names {
		s.unmatched[n] = true
	}
	c, subs := s.commit(Taxonomy, names)
	s.mu.Unlock()
	return notify(c, subs)
}

// Unmatched returns the names without taxonomy matches.
func (s *State) Unmatched() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls := make([]string, 0, len(s.unmatched))
	for n := range s.unmatched {
		ls = append(ls, n)
	}
	slices.Sort(ls)
	return ls
}

// Unknown returns a copy of the OTT IDs
// rejected by the induced subtree service,
// with its reasons.
func (s *State) Unknown() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.unknown)
}

// ResetUnknown removes the unknown OTT IDs.
func (s *State) ResetUnknown() Change {
	s.mu.Lock()
	s.unknown = make(map[string]string)
	c, subs := s.commit(Unknown, nil)
	s.mu.Unlock()
	return notify(c, subs)
}

// SetUnknown sets the unknown OTT IDs.
func (s *State) SetUnknown(u map[string]string) Change {
	s.mu.Lock()
	s.unknown = copyMap(u)
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	c, subs := s.commit(Unknown, keys)
	s.mu.Unlock()
	return notify(c, subs)
}

// Results returns a copy of the reasoning results.
func (s *State) Results() reasoner.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyResults(s.results)
}

// SetResults replaces the reasoning results.
func (s *State) SetResults(r reasoner.Results) Change {
	s.mu.Lock()
	s.results = copyResults(r)
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	c, subs := s.commit(Results, keys)
	s.mu.Unlock()
	return notify(c, subs)
}

// Index returns the node index of the last assembled ontology.
func (s *State) Index() *ontology.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Ontology assembles the phyloreferences and the phylogeny
// of the session into a JSON-LD document.
// Phyloreferences receive the identifiers assigned during the assembly,
// and the node index of the session is updated.
func (s *State) Ontology(a *ontology.Assembler) (*ontology.Document, Change) {
	s.mu.Lock()
	doc := a.Assemble(s.phylorefs, s.newick)
	s.index = doc.Index
	c, subs := s.commit(Ontology, doc.Assigned)
	s.mu.Unlock()
	return doc, notify(c, subs)
}

// Specifiers returns all the specifiers of the session.
func (s *State) Specifiers() []taxon.Specifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ls []taxon.Specifier
	for _, p := range s.phylorefs {
		for _, e := range p.Specifiers() {
			ls = append(ls, e.Specifier)
		}
	}
	return ls
}

// ScientificNames returns the names to be queried
// in the taxonomy:
// the binomials of the specifiers
// in order of appearance.
// Names can be repeated.
func (s *State) ScientificNames() []string {
	var names []string
	for _, sp := range s.Specifiers() {
		if n := taxon.Name(sp); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// OTTID returns the OTT ID of a specifier,
// if the specifier has a taxonomy match.
func (s *State) OTTID(sp taxon.Specifier) (int64, bool) {
	name := taxon.Name(sp)
	if name == "" {
		return 0, false
	}
	return tnrs.OTTID(s.Matches(name))
}

// OTTIDs returns the distinct OTT IDs of the specifiers
// in order of appearance.
func (s *State) OTTIDs() []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, sp := range s.Specifiers() {
		id, ok := s.OTTID(sp)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// TaxonomySink returns the session as a sink
// for taxonomy queries.
func (s *State) TaxonomySink() tnrs.Sink {
	return taxonomySink{s}
}

type taxonomySink struct {
	s *State
}

func (t taxonomySink) ClearMatches(names []string)            { t.s.ClearMatches(names) }
func (t taxonomySink) SetMatches(name string, m []tnrs.Match) { t.s.SetMatches(name, m) }
func (t taxonomySink) SetUnmatched(names []string)            { t.s.SetUnmatched(names) }

// SubtreeSink returns the session as a sink
// for induced subtree requests.
func (s *State) SubtreeSink() subtree.Sink {
	return subtreeSink{s}
}

type subtreeSink struct {
	s *State
}

func (t subtreeSink) ResetUnknown()                  { t.s.ResetUnknown() }
func (t subtreeSink) SetUnknown(u map[string]string) { t.s.SetUnknown(u) }
func (t subtreeSink) SetNewick(nwk string)           { t.s.SetNewick(nwk) }

// A Snapshot is a copy of the state of a session.
type Snapshot struct {
	Phylorefs []*phyloref.Phyloref
	Newick    string
	Matches   map[string][]tnrs.Match
	Unmatched []string
	Unknown   map[string]string
	Results   reasoner.Results
	Index     *ontology.Index
}

// Snapshot returns a consistent copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Phylorefs: clonePhylorefs(s.phylorefs),
		Newick:    s.newick,
		Matches:   make(map[string][]tnrs.Match, len(s.matches)),
		Unknown:   copyMap(s.unknown),
		Results:   copyResults(s.results),
		Index:     s.index,
	}
	for k, v := range s.matches {
		snap.Matches[k] = v
	}
	for n := range s.unmatched {
		snap.Unmatched = append(snap.Unmatched, n)
	}
	slices.Sort(snap.Unmatched)
	return snap
}

// Restore returns a new session
// with the state of a snapshot.
func Restore(snap Snapshot) *State {
	s := New()
	s.phylorefs = clonePhylorefs(snap.Phylorefs)
	if snap.Newick != "" {
		s.newick = snap.Newick
	}
	for k, v := range snap.Matches {
		s.matches[k] = v
	}
	for _, n := range snap.Unmatched {
		s.unmatched[n] = true
	}
	for k, v := range snap.Unknown {
		s.unknown[k] = v
	}
	s.results = copyResults(snap.Results)
	s.index = snap.Index
	return s
}

func copyMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyResults(r reasoner.Results) reasoner.Results {
	c := make(reasoner.Results, len(r))
	for k, v := range r {
		c[k] = slices.Clone(v)
	}
	return c
}
