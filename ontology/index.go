// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ontology

import (
	"github.com/js-arias/otresolver/newick"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// An Index is an index of the nodes of a phylogeny
// by node identifier.
type Index struct {
	nodes map[string]newick.JSONLDNode
	objs  map[string]map[string]any
	ids   []string
	g     *simple.DirectedGraph
}

func newIndex(nodes []newick.JSONLDNode) *Index {
	ix := &Index{
		nodes: make(map[string]newick.JSONLDNode, len(nodes)),
		objs:  make(map[string]map[string]any, len(nodes)),
		ids:   make([]string, len(nodes)),
		g:     simple.NewDirectedGraph(),
	}
	for _, n := range nodes {
		ix.nodes[n.ID] = n
		ix.ids[n.Pos] = n.ID
		ix.g.AddNode(simple.Node(n.Pos))
	}
	for _, n := range nodes {
		p, ok := ix.nodes[n.Parent]
		if !ok {
			continue
		}
		ix.g.SetEdge(ix.g.NewEdge(simple.Node(p.Pos), simple.Node(n.Pos)))
	}
	return ix
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.ids)
}

// IDs returns the node identifiers in pre-order.
func (ix *Index) IDs() []string {
	if ix == nil {
		return nil
	}
	return slices.Clone(ix.ids)
}

// Node returns the JSON-LD object of a node.
func (ix *Index) Node(id string) (map[string]any, bool) {
	if ix == nil {
		return nil, false
	}
	obj, ok := ix.objs[id]
	return obj, ok
}

// Label returns the first label of a node.
func (ix *Index) Label(id string) string {
	if ix == nil {
		return ""
	}
	n, ok := ix.nodes[id]
	if !ok || len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// Position returns the pre-order position of a node.
func (ix *Index) Position(id string) (int, bool) {
	if ix == nil {
		return 0, false
	}
	n, ok := ix.nodes[id]
	return n.Pos, ok
}

// Clade returns the identifiers of a node
// and all of its descendants,
// in pre-order.
func (ix *Index) Clade(id string) []string {
	if ix == nil {
		return nil
	}
	n, ok := ix.nodes[id]
	if !ok {
		return nil
	}

	var pos []int
	df := traverse.DepthFirst{
		Visit: func(v graph.Node) {
			pos = append(pos, int(v.ID()))
		},
	}
	df.Walk(ix.g, simple.Node(n.Pos), nil)
	slices.Sort(pos)

	ids := make([]string, 0, len(pos))
	for _, p := range pos {
		ids = append(ids, ix.ids[p])
	}
	return ids
}
