// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ontology assembles phyloreferences and a phylogeny
// into a single JSON-LD document,
// ready to be downloaded
// or submitted to a reasoner.
package ontology

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/phyloref"
)

// Defaults of an assembler.
const (
	DefaultBaseURI = "http://example.org/phyloref_open_tree_resolver#"
	DefaultContext = "http://www.phyloref.org/phyx.js/context/v0.2.0/phyx.json"
)

// DefaultImports are the ontologies imported by default.
var DefaultImports = []string{
	"http://raw.githubusercontent.com/phyloref/curation-workflow/develop/ontologies/phyloref_testcase.owl",
	"http://ontology.phyloref.org/2018-12-14/phyloref.owl",
	"http://ontology.phyloref.org/2018-12-14/tcan.owl",
}

// JSON-LD terms used in the document.
const (
	// RDFType replaces the "@type" key of the nodes.
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	// RepresentsTU is the CDAO property
	// "represents taxonomic unit".
	RepresentsTU = "obo:CDAO_0000187"
)

// An Assembler builds JSON-LD documents.
type Assembler struct {
	BaseURI string
	Context string
	Imports []string

	// NewID returns a fresh identifier suffix
	// for phyloreferences without one.
	NewID func() string
}

// New returns an assembler with the given base URI and context.
// Empty values are replaced by the defaults.
func New(baseURI, context string) *Assembler {
	if baseURI == "" {
		baseURI = DefaultBaseURI
	}
	if context == "" {
		context = DefaultContext
	}
	return &Assembler{
		BaseURI: baseURI,
		Context: context,
		Imports: append([]string(nil), DefaultImports...),
		NewID:   func() string { return uuid.New().String() },
	}
}

// PhylogenyURI returns the base URI of the phylogeny nodes.
func (a *Assembler) PhylogenyURI() string {
	return a.BaseURI + "phylogeny"
}

// A Document is an assembled JSON-LD document.
type Document struct {
	// Objects are the header,
	// the phyloreferences,
	// and the phylogeny nodes,
	// in that order.
	Objects []any

	// Index is the index of the phylogeny nodes.
	Index *Index

	// Assigned are the identifiers
	// assigned during the assembly.
	Assigned []string

	// Errors are the errors found
	// while parsing the phylogeny.
	Errors []newick.ParseError
}

// Assemble builds a JSON-LD document.
//
// Only phyloreferences with a class expression are included.
// A phyloreference without an identifier,
// or without a context,
// is updated with a fresh identifier
// or with the context of the assembler,
// so assembling the same phyloreferences again
// produces the same document.
func (a *Assembler) Assemble(refs []*phyloref.Phyloref, nwk string) *Document {
	doc := &Document{}
	doc.Objects = append(doc.Objects, a.header())

	for _, p := range refs {
		if !p.HasClassExpression() {
			continue
		}
		if p.ID == "" {
			p.ID = a.BaseURI + "phyloref_" + a.NewID()
			doc.Assigned = append(doc.Assigned, p.ID)
		}
		if p.Context == nil {
			p.Context = a.Context
		}
		doc.Objects = append(doc.Objects, p.Object())
	}

	t, errs := newick.Parse(nwk)
	doc.Errors = errs
	nodes := t.JSONLDNodes(a.PhylogenyURI())
	doc.Index = newIndex(nodes)
	for _, n := range nodes {
		obj := a.node(n)
		doc.Index.objs[n.ID] = obj
		doc.Objects = append(doc.Objects, obj)
	}
	return doc
}

func (a *Assembler) header() map[string]any {
	imports := make([]any, 0, len(a.Imports))
	for _, im := range a.Imports {
		imports = append(imports, im)
	}
	return map[string]any{
		"@context":    a.Context,
		"@id":         a.BaseURI,
		"@type":       "owl:Ontology",
		"owl:imports": imports,
	}
}

// node returns the JSON-LD object of a phylogeny node,
// with a restriction for each represented taxonomic unit
// added to its types.
func (a *Assembler) node(n newick.JSONLDNode) map[string]any {
	obj := n.Object()
	obj["@context"] = a.Context

	var types []any
	switch t := obj["@type"].(type) {
	case nil:
	case []any:
		types = append(types, t...)
	default:
		types = append(types, t)
	}
	for _, tu := range n.TaxonomicUnits {
		ce := tu.ClassExpression()
		if ce == nil {
			continue
		}
		types = append(types, map[string]any{
			"@type":          "owl:Restriction",
			"onProperty":     RepresentsTU,
			"someValuesFrom": ce,
		})
	}

	rdf := make([]any, 0, len(types))
	for _, t := range types {
		if s, ok := t.(string); ok {
			rdf = append(rdf, map[string]any{"@id": s})
			continue
		}
		rdf = append(rdf, t)
	}
	delete(obj, "@type")
	obj[RDFType] = rdf
	return obj
}

// JSON returns the document serialized as indented JSON.
// Object keys are sorted,
// so the same document always produces the same bytes.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d.Objects); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
