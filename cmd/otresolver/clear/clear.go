// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package clear implements a command to remove
// the phyloreferences of a project.
package clear

import (
	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
)

var Command = &command.Command{
	Usage: "clear <project-file>",
	Short: "remove all phyloreferences of a project",
	Long: `
Command clear removes all the phyloreferences of an otresolver project, as
well as the reasoning results. The phylogeny and the taxonomy matches are
kept.

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
	st.Clear()
	return p.Save(st)
}
