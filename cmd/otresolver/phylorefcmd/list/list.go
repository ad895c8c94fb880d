// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package list implements a command to list
// the phyloreferences of a project.
package list

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
)

var Command = &command.Command{
	Usage: "list [--specifiers] [--id] <project-file>",
	Short: "print a list of phyloreferences",
	Long: `
Command list reads the phyloreferences of an otresolver project and prints
the number and title of each phyloreference in the standard output. A
phyloreference without an OWL class expression is marked with an asterisk, as
it can not be submitted to the reasoner.

The argument of the command is the name of the project file.

If the flag --specifiers is defined, the specifiers of each phyloreference
will be printed, with its number, role, and label.

If the flag --id is defined, the identifier of each phyloreference will be
printed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var specFlag bool
var idFlag bool

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&specFlag, "specifiers", false, "")
	c.Flags().BoolVar(&idFlag, "id", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	_, st, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	for i, p := range st.Phylorefs() {
		mark := ""
		if !p.HasClassExpression() {
			mark = " *"
		}
		fmt.Fprintf(c.Stdout(), "%d\t%s%s\n", i+1, p.Title(i), mark)
		if idFlag && p.ID != "" {
			fmt.Fprintf(c.Stdout(), "\t%s\n", p.ID)
		}
		if !specFlag {
			continue
		}
		for j, e := range p.Specifiers() {
			fmt.Fprintf(c.Stdout(), "\t%d\t%s\t%s\n", j+1, e.Role, e.Specifier.Label())
		}
	}
	return nil
}
