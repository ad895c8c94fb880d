// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/tnrs"
	"golang.org/x/exp/slices"
)

// Session reads the datasets of the project
// into a new session.
// Undefined datasets are left empty.
func (p *Project) Session() (*session.State, error) {
	snap := session.Snapshot{Newick: newick.Empty}

	if name := p.Path(Phylorefs); name != "" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		ps, err := phyloref.Read(f, name)
		f.Close()
		if err != nil {
			return nil, err
		}
		snap.Phylorefs = ps
	}
	if name := p.Path(Phylogeny); name != "" {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			snap.Newick = s
		}
	}

	readers := []struct {
		set  Dataset
		read func(io.Reader) error
	}{
		{Taxonomy, func(r io.Reader) (err error) {
			snap.Matches, snap.Unmatched, err = ReadTaxonomy(r)
			return err
		}},
		{Unknown, func(r io.Reader) (err error) {
			snap.Unknown, err = ReadUnknown(r)
			return err
		}},
		{Results, func(r io.Reader) (err error) {
			snap.Results, err = ReadResults(r)
			return err
		}},
	}
	for _, rd := range readers {
		name := p.Path(rd.set)
		if name == "" {
			continue
		}
		if err := readFile(name, rd.read); err != nil {
			return nil, err
		}
	}
	return session.Restore(snap), nil
}

func readFile(name string, read func(io.Reader) error) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}

// Save writes the state of a session
// into the dataset files of the project,
// and updates the project file.
// Datasets without a path are written
// in default files.
func (p *Project) Save(st *session.State) error {
	snap := st.Snapshot()

	writers := []struct {
		set   Dataset
		write func(io.Writer) error
	}{
		{Phylorefs, func(w io.Writer) error {
			return WritePhylorefs(w, snap.Phylorefs)
		}},
		{Phylogeny, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, snap.Newick)
			return err
		}},
		{Taxonomy, func(w io.Writer) error {
			return WriteTaxonomy(w, snap.Matches, snap.Unmatched)
		}},
		{Unknown, func(w io.Writer) error {
			return WriteUnknown(w, snap.Unknown)
		}},
		{Results, func(w io.Writer) error {
			return WriteResults(w, snap.Results)
		}},
	}
	for _, wr := range writers {
		name := p.DefaultPath(wr.set)
		if err := writeFile(name, wr.write); err != nil {
			return err
		}
		p.Add(wr.set, name)
	}
	return p.Write()
}

// WriteOntology writes a JSON-LD document
// into the ontology file of the project,
// and updates the project file.
func (p *Project) WriteOntology(doc []byte) error {
	name := p.DefaultPath(Ontology)
	if err := writeFile(name, func(w io.Writer) error {
		_, err := w.Write(doc)
		return err
	}); err != nil {
		return err
	}
	p.Add(Ontology, name)
	return p.Write()
}

func writeFile(name string, write func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}

// WritePhylorefs writes phyloreferences
// as a JSON-LD document.
func WritePhylorefs(w io.Writer, ps []*phyloref.Phyloref) error {
	objs := make([]any, 0, len(ps))
	for _, p := range ps {
		objs = append(objs, p.Object())
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(map[string]any{"phylorefs": objs})
}

var taxonomyHeader = []string{
	"name",
	"ott",
	"matched",
	"unique",
	"rank",
	"score",
	"approximate",
	"synonym",
	"flags",
}

// ReadTaxonomy reads the taxonomy matches from a TSV file.
//
// The TSV must contain the following fields:
//
//   - name, the queried name
//   - ott, the OTT ID of the match,
//     empty if the name was not matched
//   - matched, the matched name
//   - unique, the unique name of the taxon
//   - rank, the taxonomic rank
//   - score, the match score
//   - approximate, true for fuzzy matches
//   - synonym, true if the matched name is a synonym
//   - flags, a comma separated list of taxon flags
//
// The matches of a name are kept in file order.
func ReadTaxonomy(r io.Reader) (map[string][]tnrs.Match, []string, error) {
	tsv, fields, err := newReader(r, taxonomyHeader)
	if err != nil {
		return nil, nil, err
	}

	matches := make(map[string][]tnrs.Match)
	var unmatched []string
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "name"
		name := strings.TrimSpace(row[fields[f]])
		if name == "" {
			return nil, nil, fmt.Errorf("on row %d: field %q: empty name", ln, f)
		}

		f = "ott"
		if row[fields[f]] == "" {
			unmatched = append(unmatched, name)
			continue
		}
		id, err := strconv.ParseInt(row[fields[f]], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		m := tnrs.Match{
			MatchedName: row[fields["matched"]],
			Taxon: tnrs.Taxon{
				OTTID:      id,
				Name:       row[fields["matched"]],
				UniqueName: row[fields["unique"]],
				Rank:       row[fields["rank"]],
			},
		}
		f = "score"
		if v := row[fields[f]]; v != "" {
			m.Score, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
			}
		}
		m.IsApproximate = row[fields["approximate"]] == "true"
		m.IsSynonym = row[fields["synonym"]] == "true"
		if v := row[fields["flags"]]; v != "" {
			m.Taxon.Flags = strings.Split(v, ",")
		}
		matches[name] = append(matches[name], m)
	}
	return matches, unmatched, nil
}

// WriteTaxonomy writes the taxonomy matches as a TSV file.
func WriteTaxonomy(w io.Writer, matches map[string][]tnrs.Match, unmatched []string) error {
	tsv := newWriter(w)
	if err := tsv.Write(taxonomyHeader); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	names := make([]string, 0, len(matches))
	for n := range matches {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		for _, m := range matches[n] {
			row := []string{
				n,
				strconv.FormatInt(m.Taxon.OTTID, 10),
				m.MatchedName,
				m.Taxon.UniqueName,
				m.Taxon.Rank,
				strconv.FormatFloat(m.Score, 'f', -1, 64),
				strconv.FormatBool(m.IsApproximate),
				strconv.FormatBool(m.IsSynonym),
				strings.Join(m.Taxon.Flags, ","),
			}
			if err := tsv.Write(row); err != nil {
				return err
			}
		}
	}
	for _, n := range unmatched {
		row := make([]string, len(taxonomyHeader))
		row[0] = n
		if err := tsv.Write(row); err != nil {
			return err
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}

var unknownHeader = []string{
	"id",
	"reason",
}

// ReadUnknown reads the OTT IDs rejected
// by the induced subtree service,
// from a TSV file with the fields "id"
// (the OTT ID as "ott<number>")
// and "reason".
func ReadUnknown(r io.Reader) (map[string]string, error) {
	tsv, fields, err := newReader(r, unknownHeader)
	if err != nil {
		return nil, err
	}

	unknown := make(map[string]string)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
		id := strings.TrimSpace(row[fields["id"]])
		if id == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty ID", ln, "id")
		}
		unknown[id] = row[fields["reason"]]
	}
	return unknown, nil
}

// WriteUnknown writes the rejected OTT IDs as a TSV file.
func WriteUnknown(w io.Writer, unknown map[string]string) error {
	tsv := newWriter(w)
	if err := tsv.Write(unknownHeader); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	ids := make([]string, 0, len(unknown))
	for id := range unknown {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := tsv.Write([]string{id, unknown[id]}); err != nil {
			return err
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}

var resultsHeader = []string{
	"phyloref",
	"node",
}

// ReadResults reads the reasoning results
// from a TSV file with the fields "phyloref"
// and "node".
// The nodes of each phyloreference are kept in file order,
// so the first node is the primary match.
// A phyloreference without nodes
// has a row with an empty node.
func ReadResults(r io.Reader) (reasoner.Results, error) {
	tsv, fields, err := newReader(r, resultsHeader)
	if err != nil {
		return nil, err
	}

	res := make(reasoner.Results)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
		id := strings.TrimSpace(row[fields["phyloref"]])
		if id == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty ID", ln, "phyloref")
		}
		nodes := res[id]
		if nodes == nil {
			nodes = []string{}
		}
		if n := strings.TrimSpace(row[fields["node"]]); n != "" {
			nodes = append(nodes, n)
		}
		res[id] = nodes
	}
	return res, nil
}

// WriteResults writes the reasoning results as a TSV file.
func WriteResults(w io.Writer, res reasoner.Results) error {
	tsv := newWriter(w)
	if err := tsv.Write(resultsHeader); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	ids := make([]string, 0, len(res))
	for id := range res {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if len(res[id]) == 0 {
			if err := tsv.Write([]string{id, ""}); err != nil {
				return err
			}
			continue
		}
		for _, n := range res[id] {
			if err := tsv.Write([]string{id, n}); err != nil {
				return err
			}
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}

func newReader(r io.Reader, header []string) (*csv.Reader, map[string]int, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, nil, fmt.Errorf("expecting field %q", h)
		}
	}
	return tsv, fields, nil
}

func newWriter(w io.Writer) *csv.Writer {
	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'
	tsv.UseCRLF = true
	return tsv
}
