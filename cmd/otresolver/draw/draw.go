// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package draw implements a command to draw
// the phylogeny of a project.
package draw

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/treeplot"
)

var Command = &command.Command{
	Usage: "draw [--plain] [-o|--output <file>] <project-file>",
	Short: "draw the project phylogeny",
	Long: `
Command draw reads the phylogeny of an otresolver project and draws it as an
image. The clades resolved by the reasoner are colored, with a different
color for each phyloreference.

The argument of the command is the name of the project file.

If every branch of the phylogeny has a length, the tree will be drawn with
branch lengths, otherwise all branches will be drawn with the same length.

By default, the tree will be drawn as an SVG image in the standard output.
Use the flag -o, or --output, to define an output file. The format of the
image is set by the file extension; valid formats are "svg", "png", "jpg",
"pdf", and "eps". Images written into a file include a legend with the
colors of the phyloreferences.

If the flag --plain is defined, the resolved clades will not be colored.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string
var plain bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().BoolVar(&plain, "plain", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	_, res, err := workspace.Resolver(args[0], nil)
	if err != nil {
		return err
	}
	st := res.State

	t, errs := newick.Parse(st.Newick())
	if len(errs) > 0 {
		return fmt.Errorf("on project %q: %v", args[0], errs[0])
	}

	var clades []treeplot.Clade
	if !plain {
		if _, err := res.Ontology(); err != nil {
			return err
		}
		clades = treeplot.Clades(st.Phylorefs(), st.Results(), st.Index())
	}
	tp := treeplot.New(t, clades)

	if output == "" {
		return tp.WriteSVG(c.Stdout())
	}
	return tp.Save(output)
}
