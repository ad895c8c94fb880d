// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package newick implements a parser
// for phylogenies in Newick (parenthetical) format
// and the conversion of a parsed tree
// into JSON-LD node records.
package newick

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Empty is the Newick string of an empty phylogeny.
const Empty = "()"

// Titles of parse errors.
const (
	NoPhylogeny = "No phylogeny entered"
	Unbalanced  = "Unbalanced parentheses in Newick string"
	BadSyntax   = "Error parsing phylogeny"
)

// A ParseError is a structured error
// found while parsing a Newick string.
type ParseError struct {
	Title   string
	Message string
}

func (e ParseError) Error() string {
	return e.Title + ": " + e.Message
}

// UserErrors returns the errors
// that should be shown to a user,
// i.e., without the "no phylogeny entered" error.
func UserErrors(errs []ParseError) []ParseError {
	var ls []ParseError
	for _, e := range errs {
		if e.Title == NoPhylogeny {
			continue
		}
		ls = append(ls, e)
	}
	return ls
}

// A Node is a node of a phylogeny.
type Node struct {
	// ID is the index of the node
	// in pre-order traversal.
	ID int

	Label     string
	Length    float64
	HasLength bool

	Parent   *Node
	Children []*Node
}

// IsTerm returns true if the node is a terminal.
func (n *Node) IsTerm() bool {
	return len(n.Children) == 0
}

// A Tree is a parsed phylogeny.
type Tree struct {
	Root  *Node
	nodes []*Node
}

// Nodes returns the nodes of the tree
// in pre-order.
func (t *Tree) Nodes() []*Node {
	return t.nodes
}

// Len returns the number of nodes of the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Terms returns the terminal nodes of the tree
// in pre-order.
func (t *Tree) Terms() []*Node {
	var terms []*Node
	for _, n := range t.nodes {
		if n.IsTerm() {
			terms = append(terms, n)
		}
	}
	return terms
}

// Parse parses a Newick string.
// Syntax problems are never panics:
// they are returned as a list of parse errors.
func Parse(s string) (*Tree, []ParseError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, []ParseError{{
			Title:   NoPhylogeny,
			Message: "Enter a phylogeny in Newick format.",
		}}
	}

	if open, closed := countParens(s); open != closed {
		msg := fmt.Sprintf("You have %d more open parentheses than close parentheses", open-closed)
		if closed > open {
			msg = fmt.Sprintf("You have %d more close parentheses than open parentheses", closed-open)
		}
		return nil, []ParseError{{Title: Unbalanced, Message: msg}}
	}

	p := &parser{src: []rune(s)}
	root, err := p.tree()
	if err != nil {
		return nil, []ParseError{{Title: BadSyntax, Message: err.Error()}}
	}

	t := &Tree{Root: root}
	t.index(root)
	return t, nil
}

func (t *Tree) index(n *Node) {
	n.ID = len(t.nodes)
	t.nodes = append(t.nodes, n)
	for _, c := range n.Children {
		t.index(c)
	}
}

// countParens counts parentheses
// outside quoted labels and comments.
func countParens(s string) (open, closed int) {
	quoted := false
	comment := false
	for _, r := range s {
		switch {
		case comment:
			if r == ']' {
				comment = false
			}
		case r == '\'':
			quoted = !quoted
		case quoted:
		case r == '[':
			comment = true
		case r == '(':
			open++
		case r == ')':
			closed++
		}
	}
	return open, closed
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("at position %d: %s", p.pos+1, fmt.Sprintf(format, args...))
}

// skip skips spaces and bracket comments.
func (p *parser) skip() {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsSpace(r) {
			p.pos++
			continue
		}
		if r == '[' {
			for p.pos < len(p.src) && p.src[p.pos] != ']' {
				p.pos++
			}
			p.pos++
			continue
		}
		break
	}
}

func (p *parser) peek() rune {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) tree() (*Node, error) {
	root, err := p.node(nil)
	if err != nil {
		return nil, err
	}
	if p.peek() == ';' {
		p.pos++
	}
	if r := p.peek(); r != 0 {
		return nil, p.errorf("unexpected character %q after the end of the tree", r)
	}
	return root, nil
}

func (p *parser) node(parent *Node) (*Node, error) {
	n := &Node{Parent: parent}
	if p.peek() == '(' {
		p.pos++
		for {
			c, err := p.node(n)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)

			r := p.peek()
			if r == ',' {
				p.pos++
				continue
			}
			if r == ')' {
				p.pos++
				break
			}
			if r == 0 {
				return nil, p.errorf("unexpected end of string")
			}
			return nil, p.errorf("unexpected character %q", r)
		}
	}

	label, err := p.label()
	if err != nil {
		return nil, err
	}
	n.Label = label

	if p.peek() == ':' {
		p.pos++
		l, err := p.length()
		if err != nil {
			return nil, err
		}
		n.Length = l
		n.HasLength = true
	}
	return n, nil
}

const delimiters = "(),:;[]'"

func (p *parser) label() (string, error) {
	if p.peek() == '\'' {
		p.pos++
		var b strings.Builder
		for {
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated quoted label")
			}
			r := p.src[p.pos]
			p.pos++
			if r == '\'' {
				// doubled quotes are an escaped quote
				if p.pos < len(p.src) && p.src[p.pos] == '\'' {
					b.WriteRune('\'')
					p.pos++
					continue
				}
				break
			}
			b.WriteRune(r)
		}
		return b.String(), nil
	}

	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(delimiters, p.src[p.pos]) {
		p.pos++
	}
	label := strings.TrimSpace(string(p.src[start:p.pos]))
	label = strings.ReplaceAll(label, "_", " ")
	return label, nil
}

func (p *parser) length() (float64, error) {
	p.skip()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(delimiters, p.src[p.pos]) && !unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	v := string(p.src[start:p.pos])
	l, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, p.errorf("invalid branch length %q", v)
	}
	return l, nil
}
