// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package subtreecmd implements a command to set
// the phylogeny of a project
// from the Open Tree synthetic tree.
package subtreecmd

import (
	"context"
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/subtree"
	"golang.org/x/exp/slices"
)

var Command = &command.Command{
	Usage: "subtree <project-file>",
	Short: "download the induced subtree of the specifiers",
	Long: `
Command subtree reads the OTT IDs matched with the specifiers of an
otresolver project and downloads the induced subtree of the Open Tree
synthetic tree that contains those IDs. The subtree will be the new phylogeny
of the project.

The argument of the command is the name of the project file. The names of the
specifiers must be matched before with 'otresolver tnrs'.

If some OTT IDs are not in the synthetic tree, the request is retried once,
on a secondary service, without those IDs. The OTT IDs that are not in the
synthetic tree are printed in the standard output, with the reason given by
the Open Tree.
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
	if len(res.State.OTTIDs()) == 0 {
		return fmt.Errorf("on project %q: no matched OTT IDs", args[0])
	}

	out := res.FetchSubtree(context.Background())
	if err := p.Save(res.State); err != nil {
		return err
	}

	ids := make([]string, 0, len(out.Unknown))
	for id := range out.Unknown {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(c.Stdout(), "%s\t%s\n", id, out.Unknown[id])
	}

	if out.State == subtree.Failed {
		return out.Err
	}
	return nil
}
