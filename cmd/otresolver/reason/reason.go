// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reason implements a command to resolve
// the phyloreferences of a project
// on its phylogeny.
package reason

import (
	"context"
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
)

var Command = &command.Command{
	Usage: "reason <project-file>",
	Short: "resolve phyloreferences on the project phylogeny",
	Long: `
Command reason builds an ontology with the phyloreferences and the phylogeny
of an otresolver project, and submits it to the reasoner. The nodes of the
phylogeny resolved for each phyloreference will be stored in the project.

The argument of the command is the name of the project file.

Only phyloreferences with an OWL class expression are submitted.
Phyloreferences without an identifier receive a new one, which is stored in
the project.

If the reasoning fails, the previous results of the project are kept.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, res, err := workspace.Resolver(args[0], nil)
	if err != nil {
		return err
	}

	results, rErr := res.Reason(context.Background())
	// identifiers assigned in the ontology are stored
	// even if the reasoning fails
	if err := p.Save(res.State); err != nil {
		return err
	}
	if rErr != nil {
		return rErr
	}

	ix := res.State.Index()
	for i, ph := range res.State.Phylorefs() {
		nodes, ok := results[ph.ID]
		if !ok || len(nodes) == 0 {
			continue
		}
		label := ix.Label(nodes[0])
		if label == "" {
			label = nodes[0]
		}
		fmt.Fprintf(c.Stdout(), "%s\t%s\n", ph.Title(i), label)
	}
	return nil
}
