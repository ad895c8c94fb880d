// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package newick

import (
	"encoding/json"
	"strconv"

	"github.com/js-arias/otresolver/taxon"
)

// NodeType is the CDAO class of a phylogeny node.
const NodeType = "obo:CDAO_0000140"

// A JSONLDNode is a flat record of a tree node,
// in which the relations with other nodes
// are given by node identifiers.
type JSONLDNode struct {
	ID       string
	Pos      int
	Labels   []string
	Parent   string
	Children []string
	Siblings []string

	// TaxonomicUnits are the taxonomic units
	// represented by the node label.
	TaxonomicUnits []taxon.Specifier
}

// NodeURI returns the URI of the node
// at the given pre-order position.
func NodeURI(baseURI string, pos int) string {
	return baseURI + "_node" + strconv.Itoa(pos)
}

// JSONLDNodes returns the nodes of the tree
// as a flat list of records
// with URIs derived from the base URI
// and the pre-order position of each node.
//
// The same tree always produces
// the same node identifiers.
func (t *Tree) JSONLDNodes(baseURI string) []JSONLDNode {
	if t == nil {
		return nil
	}

	nodes := make([]JSONLDNode, 0, len(t.nodes))
	for _, n := range t.nodes {
		jn := JSONLDNode{
			ID:  NodeURI(baseURI, n.ID),
			Pos: n.ID,
		}
		if n.Label != "" {
			jn.Labels = []string{n.Label}
			if tu, ok := taxon.FromLabel(n.Label); ok {
				jn.TaxonomicUnits = []taxon.Specifier{tu}
			}
		}
		if n.Parent != nil {
			jn.Parent = NodeURI(baseURI, n.Parent.ID)
			for _, s := range n.Parent.Children {
				if s == n {
					continue
				}
				jn.Siblings = append(jn.Siblings, NodeURI(baseURI, s.ID))
			}
		}
		for _, c := range n.Children {
			jn.Children = append(jn.Children, NodeURI(baseURI, c.ID))
		}
		nodes = append(nodes, jn)
	}
	return nodes
}

// Object returns the node as a JSON-LD object.
func (n JSONLDNode) Object() map[string]any {
	obj := map[string]any{
		"@id":   n.ID,
		"@type": NodeType,
	}
	if len(n.Labels) > 0 {
		obj["labels"] = strs(n.Labels)
	}
	if n.Parent != "" {
		obj["parent"] = n.Parent
	}
	if len(n.Children) > 0 {
		obj["children"] = strs(n.Children)
	}
	if len(n.Siblings) > 0 {
		obj["siblings"] = strs(n.Siblings)
	}
	if len(n.TaxonomicUnits) > 0 {
		tus := make([]any, 0, len(n.TaxonomicUnits))
		for _, tu := range n.TaxonomicUnits {
			tus = append(tus, tu.Object())
		}
		obj["representsTaxonomicUnits"] = tus
	}
	return obj
}

// MarshalJSON implements the json.Marshaler interface.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Object())
}

func strs(ls []string) []any {
	v := make([]any, len(ls))
	for i, s := range ls {
		v[i] = s
	}
	return v
}
