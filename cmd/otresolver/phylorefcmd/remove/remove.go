// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package remove implements a command to remove
// phyloreferences or specifiers from a project.
package remove

import (
	"fmt"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/phyloref"
)

var Command = &command.Command{
	Usage: `remove [--specifier <number>] [--swap]
	<project-file> <phyloref-number>`,
	Short: "remove phyloreferences or specifiers from a project",
	Long: `
Command remove removes a phyloreference, or a specifier of a phyloreference,
from an otresolver project.

The first argument of the command is the name of the project file. The second
argument is the number of the phyloreference, as given by
'otresolver phyloref list'.

If the flag --specifier is defined, only the specifier with the given number
(as given by 'otresolver phyloref list --specifiers') will be removed. If the
flag --swap is also defined, the specifier will not be removed, but moved to
the other role (i.e., an internal specifier will be an external specifier, and
vice versa).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var specFlag int
var swap bool

func setFlags(c *command.Command) {
	c.Flags().IntVar(&specFlag, "specifier", 0, "")
	c.Flags().BoolVar(&swap, "swap", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 2 {
		return c.UsageError("expecting project file and phyloreference number")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return c.UsageError(fmt.Sprintf("invalid phyloreference number %q", args[1]))
	}

	p, st, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	if specFlag == 0 {
		if _, err := st.RemovePhyloref(n - 1); err != nil {
			return err
		}
		return p.Save(st)
	}

	_, err = st.UpdatePhyloref(n-1, func(ph *phyloref.Phyloref) error {
		ls := ph.Specifiers()
		if specFlag < 1 || specFlag > len(ls) {
			return fmt.Errorf("phyloref %d: specifier %d not found", n, specFlag)
		}
		e := ls[specFlag-1]
		if swap {
			return ph.ChangeRole(e.Role, e.Index)
		}
		_, err := ph.RemoveSpecifier(e.Role, e.Index)
		return err
	})
	if err != nil {
		return err
	}
	return p.Save(st)
}
