// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phyloref

import (
	"bytes"
	"embed"
	"fmt"
)

//go:embed examples/*.jsonld
var examples embed.FS

// An ExampleFile is a bundled JSON-LD document.
type ExampleFile struct {
	Name  string
	Title string
}

// Examples returns the bundled example documents.
func Examples() []ExampleFile {
	return []ExampleFile{
		{Name: "brochu_2003", Title: "Brochu 2003"},
	}
}

// Example returns the phyloreferences
// of a bundled example document.
func Example(name string) ([]*Phyloref, error) {
	b, err := examples.ReadFile("examples/" + name + ".jsonld")
	if err != nil {
		return nil, fmt.Errorf("example %q not found", name)
	}
	return Read(bytes.NewReader(b), name)
}
