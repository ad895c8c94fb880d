// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tnrscmd implements a command to match
// the specifier names of a project
// with the Open Tree Taxonomy.
package tnrscmd

import (
	"context"
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
)

var Command = &command.Command{
	Usage: "tnrs <project-file>",
	Short: "match specifier names with the Open Tree Taxonomy",
	Long: `
Command tnrs reads the scientific names of the specifiers of an otresolver
project and matches them with the names in the Open Tree Taxonomy, using the
Open Tree TNRS service.

The argument of the command is the name of the project file.

Names are sent in batches. A batch that fails is reported, and its names are
left without a match. A name in which the best match has a disqualifying flag
(for example "extinct", see 'otresolver help config') is not matched.

The command prints the names, with the matched name and OTT ID, in the
standard output.
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

	qErr := res.QueryTaxonomy(context.Background())
	if err := p.Save(res.State); err != nil {
		return err
	}

	for _, n := range res.State.ScientificNames() {
		ms := res.State.Matches(n)
		if len(ms) == 0 {
			fmt.Fprintf(c.Stdout(), "%s\t--\n", n)
			continue
		}
		fmt.Fprintf(c.Stdout(), "%s\t%s\tott%d\n", n, ms[0].MatchedName, ms[0].Taxon.OTTID)
	}
	return qErr
}
