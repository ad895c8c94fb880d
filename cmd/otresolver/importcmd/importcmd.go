// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package importcmd implements a command to import
// phyloreferences into an otresolver project.
package importcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
)

var Command = &command.Command{
	Usage: `import [--example <name>]
	<project-file> [<file-or-url>...]`,
	Short: "import phyloreferences from JSON-LD files",
	Long: `
Command import reads the phyloreferences of one or more JSON-LD files, and
adds them to an otresolver project.

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

One or more files, or URLs, can be given as arguments. If no file is given,
the phyloreferences will be read from the standard input. Phyloreferences are
searched in arrays, in the "phylorefs" array of a phylogeny curation file, and
in any object that is a subclass of "phyloref:Phyloreference".
Phyloreferences already in the project are ignored.

Use the flag --example to import a bundled example. Valid examples are:

	brochu_2003  phyloreferences of Crocodylia from Brochu (2003)

A malformed object is reported, but the valid phyloreferences of the same
file are still imported.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var example string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&example, "example", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, res, err := workspace.Resolver(args[0], nil)
	if err != nil {
		return err
	}

	var errs []error
	add := func(src string, n int, err error) {
		if err != nil {
			errs = append(errs, err)
		}
		fmt.Fprintf(c.Stdout(), "%s: %d phyloreferences added\n", src, n)
	}

	if example != "" {
		ch, err := res.Example(example)
		add(example, len(ch.Keys), err)
	}

	args = args[1:]
	if len(args) == 0 && example == "" {
		args = append(args, "-")
	}
	for _, a := range args {
		if a == "-" {
			ch, err := res.ImportData(c.Stdin(), "stdin")
			add("stdin", len(ch.Keys), err)
			continue
		}
		ch, err := res.Import(context.Background(), a)
		add(a, len(ch.Keys), err)
	}

	if err := p.Save(res.State); err != nil {
		return err
	}

	// only fail if nothing could be read
	if len(res.State.Phylorefs()) == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		fmt.Fprintf(c.Stderr(), "warning: %v\n", err)
	}
	return nil
}
