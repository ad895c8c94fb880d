// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package treeplot draws a phylogeny
// with the clades resolved by the reasoner
// highlighted in colors.
package treeplot

import (
	"image/color"
	"math"

	"github.com/js-arias/blind"
	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/ontology"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"golang.org/x/exp/slices"
)

// Branch is the color of branches
// outside any resolved clade.
var Branch color.Color = color.RGBA{0, 0, 0, 255}

// A Clade is a clade of the phylogeny
// resolved for a phyloreference.
type Clade struct {
	// Title is the title of the phyloreference.
	Title string

	// Node is the identifier of the resolved node.
	Node string

	// Nodes are the pre-order positions
	// of the nodes of the clade.
	Nodes []int

	Color color.Color
}

// Clades returns the clades resolved
// for a set of phyloreferences.
// Only the first node of each result is used.
func Clades(ps []*phyloref.Phyloref, res reasoner.Results, ix *ontology.Index) []Clade {
	var clades []Clade
	for i, p := range ps {
		nodes := res[p.ID]
		if p.ID == "" || len(nodes) == 0 {
			continue
		}
		ids := ix.Clade(nodes[0])
		if len(ids) == 0 {
			continue
		}
		c := Clade{
			Title: p.Title(i),
			Node:  nodes[0],
		}
		for _, id := range ids {
			pos, _ := ix.Position(id)
			c.Nodes = append(c.Nodes, pos)
		}
		clades = append(clades, c)
	}

	for i := range clades {
		v := float64(i+1) / float64(len(clades)+1)
		clades[i].Color = blind.Sequential(blind.Iridescent, v)
	}
	return clades
}

type node struct {
	x     float64
	y     float64
	topY  float64
	botY  float64
	color color.Color

	pos   int
	label string

	anc  *node
	desc []*node
}

// A Tree is a phylogeny prepared for drawing.
type Tree struct {
	root   *node
	nodes  []*node
	clades []Clade

	// width and height in tree units
	width  float64
	height float64
	labels int
}

// New prepares a tree for drawing.
// If every non-root node has a branch length
// the tree is drawn as a phylogram,
// otherwise as a cladogram.
func New(t *newick.Tree, clades []Clade) *Tree {
	tr := &Tree{clades: clades}
	if t == nil || t.Len() == 0 {
		return tr
	}

	phylogram := true
	ids := make(map[*newick.Node]*node, t.Len())
	for _, n := range t.Nodes() {
		nn := &node{
			pos:   n.ID,
			label: n.Label,
			color: Branch,
		}
		if n.Parent != nil {
			nn.anc = ids[n.Parent]
			nn.anc.desc = append(nn.anc.desc, nn)
			if !n.HasLength {
				phylogram = false
			}
		}
		ids[n] = nn
		tr.nodes = append(tr.nodes, nn)
		if len(n.Label) > tr.labels && n.IsTerm() {
			tr.labels = len(n.Label)
		}
	}
	tr.root = tr.nodes[0]

	for _, n := range t.Nodes() {
		nn := ids[n]
		if nn.anc == nil {
			continue
		}
		l := 1.0
		if phylogram {
			l = n.Length
		}
		nn.x = nn.anc.x + l
		tr.width = math.Max(tr.width, nn.x)
	}
	tr.prepare(tr.root)
	tr.setColor()
	return tr
}

func (t *Tree) prepare(n *node) {
	if n.desc == nil {
		n.y = t.height
		t.height++
		return
	}

	topY := math.MaxFloat64
	botY := 0.0
	for _, d := range n.desc {
		t.prepare(d)
		topY = math.Min(topY, d.y)
		botY = math.Max(botY, d.y)
	}
	n.topY = topY
	n.botY = botY
	n.y = topY + (botY-topY)/2
}

// setColor colors each node
// with the color of the smallest clade
// that contains it.
func (t *Tree) setColor() {
	order := make([]int, len(t.clades))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return len(t.clades[b].Nodes) - len(t.clades[a].Nodes)
	})
	for _, i := range order {
		c := t.clades[i]
		for _, p := range c.Nodes {
			if p < 0 || p >= len(t.nodes) {
				continue
			}
			t.nodes[p].color = c.Color
		}
	}
}

// Clades returns the highlighted clades.
func (t *Tree) Clades() []Clade {
	return t.clades
}

// Color returns the color of the node
// at the given pre-order position.
func (t *Tree) Color(pos int) color.Color {
	if pos < 0 || pos >= len(t.nodes) {
		return nil
	}
	return t.nodes[pos].color
}

// Terms returns the number of terminals of the tree.
func (t *Tree) Terms() int {
	return int(t.height)
}
