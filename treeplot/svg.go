// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package treeplot

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"io"
	"strconv"
)

// Sizes of the SVG layout, in pixels.
const (
	yStep   = 14
	xStep   = 30
	margin  = 10
	charWid = 7
)

// WriteSVG writes the tree as an SVG image.
// Terminals are written in italics
// and internal nodes with a label
// get a tooltip with that label.
func (t *Tree) WriteSVG(w io.Writer) error {
	height, width := 2*margin, 2*margin
	if t.root != nil {
		height = int(t.height)*yStep + margin
		width = int(t.width*xStep) + 2*margin + t.labels*charWid
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	svg := &svgWriter{e: xml.NewEncoder(w)}
	root := svg.open("svg",
		"height", strconv.Itoa(height),
		"width", strconv.Itoa(width),
		"xmlns", "http://www.w3.org/2000/svg",
	)
	g := svg.open("g",
		"stroke-width", "2",
		"stroke", "black",
		"stroke-linecap", "round",
		"font-family", "Verdana",
		"font-size", "11",
	)
	if t.root != nil {
		svg.branches(t.root)
		svg.labels(t.root)
	}
	svg.close(g)
	svg.close(root)
	return svg.flush()
}

// svgWriter keeps the first error
// of an XML encoder.
type svgWriter struct {
	e   *xml.Encoder
	err error
}

func (s *svgWriter) token(t xml.Token) {
	if s.err != nil {
		return
	}
	s.err = s.e.EncodeToken(t)
}

// open starts an element with attributes
// given as name-value pairs.
func (s *svgWriter) open(name string, attrs ...string) xml.StartElement {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	s.token(el)
	return el
}

func (s *svgWriter) close(el xml.StartElement) {
	s.token(el.End())
}

func (s *svgWriter) flush() error {
	if s.err != nil {
		return s.err
	}
	return s.e.Flush()
}

func (s *svgWriter) line(x1, y1, x2, y2 int, c color.Color) {
	s.close(s.open("line",
		"x1", strconv.Itoa(x1),
		"y1", strconv.Itoa(y1),
		"x2", strconv.Itoa(x2),
		"y2", strconv.Itoa(y2),
		"stroke", rgb(c),
	))
}

func (s *svgWriter) branches(n *node) {
	x := px(n.x)
	start := x - 5
	if n.anc != nil {
		start = px(n.anc.x)
	}
	s.line(start, py(n.y), x, py(n.y), n.color)
	if len(n.desc) == 0 {
		return
	}

	s.line(x, py(n.topY), x, py(n.botY), n.color)
	if n.label != "" {
		// node mark, with the label as tooltip
		c := s.open("circle",
			"cx", strconv.Itoa(x),
			"cy", strconv.Itoa(py(n.y)),
			"r", "4",
			"fill", rgb(n.color),
			"stroke-width", "0",
		)
		s.text("title", n.label)
		s.close(c)
	}
	for _, d := range n.desc {
		s.branches(d)
	}
}

func (s *svgWriter) labels(n *node) {
	if len(n.desc) == 0 {
		tx := s.open("text",
			"x", strconv.Itoa(px(n.x)+5),
			"y", strconv.Itoa(py(n.y)+4),
			"stroke-width", "0",
			"fill", rgb(n.color),
			"font-style", "italic",
		)
		s.token(xml.CharData(n.label))
		s.close(tx)
		return
	}
	for _, d := range n.desc {
		s.labels(d)
	}
}

func (s *svgWriter) text(name, value string) {
	el := s.open(name)
	s.token(xml.CharData(value))
	s.close(el)
}

func px(v float64) int {
	return int(v*xStep) + margin
}

func py(v float64) int {
	return int(v*yStep) + margin
}

func rgb(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
}
