// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package export implements a command to export
// the ontology of a project as a JSON-LD file.
package export

import (
	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/project"
)

var Command = &command.Command{
	Usage: "export [-o|--output <file>] <project-file>",
	Short: "export the ontology of a project",
	Long: `
Command export builds an ontology with the phyloreferences and the phylogeny
of an otresolver project, as a JSON-LD document.

The argument of the command is the name of the project file.

By default, the document will be printed in the standard output. Use the
flag -o, or --output, to write the document into a file. The file will be
stored as the ontology of the project.

Phyloreferences without an identifier receive a new one, which is stored in
the project, so exporting the same project again produces the same document.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, res, err := workspace.Resolver(args[0], nil)
	if err != nil {
		return err
	}

	b, err := res.Ontology()
	if err != nil {
		return err
	}

	if output != "" {
		p.Add(project.Ontology, output)
		if err := p.WriteOntology(b); err != nil {
			return err
		}
	} else if _, err := c.Stdout().Write(b); err != nil {
		return err
	}
	return p.Save(res.State)
}
