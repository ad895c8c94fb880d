// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phylogeny implements a command to set
// the phylogeny of a project.
package phylogeny

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/newick"
)

var Command = &command.Command{
	Usage: "newick [--print] <project-file> [<newick-file>]",
	Short: "set the phylogeny of a project",
	Long: `
Command newick reads a phylogeny in Newick (parenthetical) format and sets it
as the phylogeny of an otresolver project. Any previous phylogeny will be
replaced.

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

The second argument is the file with the phylogeny. If no file is given, the
phylogeny will be read from the standard input.

Labels of the terminals are read as taxonomic units: underscores are read as
spaces, and a label that starts with a binomial name is read as a scientific
name.

If the flag --print is defined, the phylogeny of the project will be printed
in the standard output, and no phylogeny will be read.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var printFlag bool

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&printFlag, "print", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, st, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	if printFlag {
		fmt.Fprintln(c.Stdout(), st.Newick())
		return nil
	}

	name := "stdin"
	r := c.Stdin()
	if len(args) > 1 {
		name = args[1]
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("while reading %q: %v", name, err)
	}

	nwk := string(b)
	if _, errs := newick.Parse(nwk); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(c.Stderr(), "%s: %s\n", e.Title, e.Message)
		}
		return fmt.Errorf("on file %q: invalid phylogeny", name)
	}
	st.SetNewick(nwk)
	return p.Save(st)
}
