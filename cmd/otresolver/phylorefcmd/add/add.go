// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add
// phyloreferences and specifiers to a project.
package add

import (
	"encoding/json"
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/taxon"
)

var Command = &command.Command{
	Usage: `add [--to <number>] [--excludes]
	[--label <label>] [--description <text>] [--class <json>]
	<project-file> [<name>...]`,
	Short: "add phyloreferences or specifiers to a project",
	Long: `
Command add creates a new phyloreference, or edits a phyloreference, of an
otresolver project.

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

By default, a new phyloreference is created. Use the flag --to with the
number of a phyloreference (as given by 'otresolver phyloref list') to edit
that phyloreference.

Any other argument is read as a scientific name that will be added as a
specifier of the phyloreference. By default, the specifiers are internal
(i.e., they are included in the clade). Use the flag --excludes to add
external specifiers.

The flag --label sets the label of the phyloreference, and the flag
--description its description.

To be submitted to a reasoner, a phyloreference requires an OWL class
expression. Use the flag --class to set the class expression, as a JSON
value.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var toFlag int
var excludes bool
var label string
var description string
var classFlag string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&toFlag, "to", 0, "")
	c.Flags().BoolVar(&excludes, "excludes", false, "")
	c.Flags().StringVar(&label, "label", "", "")
	c.Flags().StringVar(&description, "description", "", "")
	c.Flags().StringVar(&classFlag, "class", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, st, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	var class any
	if classFlag != "" {
		if err := json.Unmarshal([]byte(classFlag), &class); err != nil {
			return fmt.Errorf("flag --class: %v", err)
		}
	}

	role := phyloref.Internal
	if excludes {
		role = phyloref.External
	}
	edit := func(ph *phyloref.Phyloref) error {
		if label != "" {
			ph.Label = label
		}
		if description != "" {
			ph.Description = description
		}
		if class != nil {
			ph.EquivalentClass = class
		}
		for _, a := range args[1:] {
			ph.AddSpecifier(role, taxon.NewScientificName(a))
		}
		return nil
	}

	if toFlag == 0 {
		ph := phyloref.New(label)
		edit(ph)
		st.AddPhylorefs([]*phyloref.Phyloref{ph})
	} else if _, err := st.UpdatePhyloref(toFlag-1, edit); err != nil {
		return err
	}

	return p.Save(st)
}
