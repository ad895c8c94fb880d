// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to print
// the basic information of a project.
package prj

import (
	"fmt"
	"io"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/project"
	"github.com/js-arias/otresolver/session"
)

var Command = &command.Command{
	Usage: "prj <project-file>",
	Short: "print information about a project",
	Long: `
Command prj reads an otresolver project and prints the information of the
different project elements into the standard output.

The argument of the command is the name of the project file.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, st, err := workspace.Open(args[0])
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	w := c.Stdout()

	printPhylorefs(w, p.Path(project.Phylorefs), snap)
	printPhylogeny(w, p.Path(project.Phylogeny), snap.Newick)
	printTaxonomy(w, p.Path(project.Taxonomy), snap)

	if name := p.Path(project.Unknown); name != "" {
		fmt.Fprintf(w, "Unknown OTT IDs:\n")
		fmt.Fprintf(w, "\tfile: %s\n", name)
		fmt.Fprintf(w, "\tIDs: %d\n", len(snap.Unknown))
		fmt.Fprintf(w, "\n")
	}

	if name := p.Path(project.Results); name != "" {
		resolved := 0
		for _, nodes := range snap.Results {
			if len(nodes) > 0 {
				resolved++
			}
		}
		fmt.Fprintf(w, "Reasoning results:\n")
		fmt.Fprintf(w, "\tfile: %s\n", name)
		fmt.Fprintf(w, "\tresolved phyloreferences: %d of %d\n", resolved, len(snap.Results))
		fmt.Fprintf(w, "\n")
	}

	if name := p.Path(project.Ontology); name != "" {
		fmt.Fprintf(w, "Ontology:\n")
		fmt.Fprintf(w, "\tfile: %s\n", name)
		fmt.Fprintf(w, "\n")
	}
	return nil
}

func printPhylorefs(w io.Writer, name string, snap session.Snapshot) {
	if name == "" {
		return
	}
	specs := 0
	noClass := 0
	for _, p := range snap.Phylorefs {
		specs += len(p.Internal) + len(p.External)
		if !p.HasClassExpression() {
			noClass++
		}
	}
	fmt.Fprintf(w, "Phyloreferences:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tphyloreferences: %d\n", len(snap.Phylorefs))
	fmt.Fprintf(w, "\tspecifiers: %d\n", specs)
	if noClass > 0 {
		fmt.Fprintf(w, "\twithout class expression: %d\n", noClass)
	}
	fmt.Fprintf(w, "\n")
}

func printPhylogeny(w io.Writer, name, nwk string) {
	if name == "" {
		return
	}
	fmt.Fprintf(w, "Phylogeny:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	t, errs := newick.Parse(nwk)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(w, "\terror: %v\n", e)
		}
		fmt.Fprintf(w, "\n")
		return
	}
	fmt.Fprintf(w, "\tnodes: %d\n", t.Len())
	fmt.Fprintf(w, "\tterminals: %d\n", len(t.Terms()))
	fmt.Fprintf(w, "\n")
}

func printTaxonomy(w io.Writer, name string, snap session.Snapshot) {
	if name == "" {
		return
	}
	fmt.Fprintf(w, "Taxonomy matches:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tmatched names: %d\n", len(snap.Matches))
	fmt.Fprintf(w, "\tunmatched names: %d\n", len(snap.Unmatched))
	fmt.Fprintf(w, "\n")
}
