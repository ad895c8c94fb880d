// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package treeplot

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// A branchPlot is a plot of the branches of a tree.
type branchPlot struct {
	t     *Tree
	style draw.LineStyle
}

// DataRange implements the plot.DataRanger interface.
func (bp *branchPlot) DataRange() (xMin, xMax, yMin, yMax float64) {
	return 0, bp.t.width, -1, bp.t.height
}

// Plot implements the plot.Plotter interface.
func (bp *branchPlot) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	// tree coordinates grow downwards
	y := func(v float64) vg.Length {
		return trY(bp.t.height - 1 - v)
	}

	for _, n := range bp.t.nodes {
		sty := bp.style
		sty.Color = n.color

		x0 := n.x
		if n.anc != nil {
			x0 = n.anc.x
		}
		c.StrokeLine2(sty, trX(x0), y(n.y), trX(n.x), y(n.y))
		if n.desc != nil {
			c.StrokeLine2(sty, trX(n.x), y(n.topY), trX(n.x), y(n.botY))
		}
	}
}

// swatch is a legend thumbnail filled with a color.
type swatch struct {
	color color.Color
}

// Thumbnail implements the plot.Thumbnailer interface.
func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonXY(pts))
}

// Plot returns the tree as a plot.
func (t *Tree) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()
	if t.root == nil {
		return p, nil
	}

	style := plotter.DefaultLineStyle
	style.Width = vg.Points(1.5)
	p.Add(&branchPlot{t: t, style: style})

	var xys plotter.XYs
	var labels []string
	for _, n := range t.nodes {
		if n.desc != nil {
			continue
		}
		xys = append(xys, plotter.XY{X: n.x, Y: t.height - 1 - n.y})
		labels = append(labels, " "+n.label)
	}
	lb, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	for i := range lb.TextStyle {
		lb.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(lb)

	for _, c := range t.clades {
		p.Legend.Add(c.Title, swatch{color: c.Color})
	}
	p.Legend.Top = true
	return p, nil
}

func (t *Tree) size() (w, h vg.Length) {
	w = 6 * vg.Inch
	h = vg.Length(t.height+2) * 14
	if h < 2*vg.Inch {
		h = 2 * vg.Inch
	}
	return w, h
}

// Save saves the tree plot into a file.
// The image format is taken from the file extension.
func (t *Tree) Save(name string) error {
	p, err := t.Plot()
	if err != nil {
		return err
	}
	w, h := t.size()
	return p.Save(w, h, name)
}

// WriteImage writes the tree plot
// in the given format (e.g., "png", "svg", "pdf").
func (t *Tree) WriteImage(w io.Writer, format string) error {
	p, err := t.Plot()
	if err != nil {
		return err
	}
	wd, h := t.size()
	wt, err := p.WriterTo(wd, h, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
