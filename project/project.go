// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package project implements reading and writing
// of curation project files.
//
// A project is a tab-delimited file (TSV)
// used to store the paths of the data files
// of a curation session.
package project

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Dataset is a keyword to identify
// the type of a dataset file in a project.
type Dataset string

// Valid dataset types.
const (
	// File for the phyloreferences,
	// in JSON-LD.
	Phylorefs Dataset = "phylorefs"

	// File for the phylogeny,
	// in Newick format.
	Phylogeny Dataset = "phylogeny"

	// File for the taxonomy matches
	// of the specifier names.
	Taxonomy Dataset = "taxonomy"

	// File for the OTT IDs
	// rejected by the induced subtree service.
	Unknown Dataset = "unknown"

	// File for the nodes resolved by the reasoner.
	Results Dataset = "results"

	// File for the last exported ontology,
	// in JSON-LD.
	Ontology Dataset = "ontology"
)

// defaultFiles are the file names used
// for datasets without a path.
var defaultFiles = map[Dataset]string{
	Phylorefs: "phylorefs.jsonld",
	Phylogeny: "phylogeny.nwk",
	Taxonomy:  "taxonomy.tab",
	Unknown:   "unknown.tab",
	Results:   "results.tab",
	Ontology:  "ontology.jsonld",
}

// Known reports whether a dataset keyword
// is a dataset of a curation project.
func Known(set Dataset) bool {
	_, ok := defaultFiles[set]
	return ok
}

// A Project is the set of files
// that store a curation session,
// keyed by dataset.
type Project struct {
	name  string
	paths map[Dataset]string
}

// New creates a new empty project.
func New() *Project {
	return &Project{paths: make(map[Dataset]string)}
}

var header = []string{"dataset", "path"}

// Read reads a project file.
//
// The file is a TSV with the fields
// "dataset" and "path",
// for example:
//
//	# otresolver project files
//	dataset	path
//	phylorefs	brochu-2003.jsonld
//	phylogeny	crocodylia.nwk
//	taxonomy	taxonomy.tab
//	results	results.tab
//
// Unknown datasets are an error.
// If a dataset is repeated, the last path is used.
func Read(name string) (*Project, error) {
	p := New()
	p.name = name
	err := readFile(name, func(r io.Reader) error {
		tsv, fields, err := newReader(r, header)
		if err != nil {
			return err
		}
		for {
			row, err := tsv.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			ln, _ := tsv.FieldPos(0)
			if err != nil {
				return fmt.Errorf("on row %d: %v", ln, err)
			}

			set := Dataset(strings.ToLower(strings.TrimSpace(row[fields["dataset"]])))
			if !Known(set) {
				return fmt.Errorf("on row %d: unknown dataset %q", ln, set)
			}
			p.Add(set, strings.TrimSpace(row[fields["path"]]))
		}
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Add sets the path of a dataset
// and returns the previous one.
// An empty path removes the dataset.
func (p *Project) Add(set Dataset, path string) string {
	prev := p.paths[set]
	if path == "" {
		delete(p.paths, set)
	} else {
		p.paths[set] = path
	}
	return prev
}

// Path returns the path of the given dataset.
func (p *Project) Path(set Dataset) string {
	return p.paths[set]
}

// Sets returns the datasets of the project
// in alphabetical order.
func (p *Project) Sets() []Dataset {
	sets := make([]Dataset, 0, len(p.paths))
	for s := range p.paths {
		sets = append(sets, s)
	}
	slices.Sort(sets)
	return sets
}

// SetName sets the project file name.
func (p *Project) SetName(name string) {
	p.name = name
}

// Name returns the project file name.
func (p *Project) Name() string {
	return p.name
}

// Open reads a project file,
// or returns a new project with that name
// if the file does not exist.
func Open(name string) (*Project, error) {
	p, err := Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		p = New()
		p.name = name
		return p, nil
	}
	return p, err
}

// DefaultPath returns the path of a dataset
// or a default path in the directory of the project file
// if the dataset is not defined.
func (p *Project) DefaultPath(set Dataset) string {
	if path := p.Path(set); path != "" {
		return path
	}
	return filepath.Join(filepath.Dir(p.name), defaultFiles[set])
}

// Write writes the project file.
func (p *Project) Write() error {
	return writeFile(p.name, func(w io.Writer) error {
		fmt.Fprintf(w, "# otresolver project files\n")
		fmt.Fprintf(w, "# saved on: %s\n", time.Now().Format(time.RFC3339))

		tsv := newWriter(w)
		if err := tsv.Write(header); err != nil {
			return fmt.Errorf("while writing header: %v", err)
		}
		for _, s := range p.Sets() {
			if err := tsv.Write([]string{string(s), p.paths[s]}); err != nil {
				return err
			}
		}
		tsv.Flush()
		return tsv.Error()
	})
}
