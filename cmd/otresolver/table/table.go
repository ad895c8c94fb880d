// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package table implements a command to print
// the phyloreference table of a project.
package table

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/view"
)

var Command = &command.Command{
	Usage: "table [--links] <project-file>",
	Short: "print the phyloreference table of a project",
	Long: `
Command table reads an otresolver project and prints the phyloreferences,
with its specifiers and resolved nodes, as a tab-delimited table in the
standard output.

The argument of the command is the name of the project file.

The table contains the following columns:

	- phyloref   the label of the phyloreference
	- node       the label of the node resolved by the reasoner
	- role       the role of the specifier ("includes" or "excludes")
	- specifier  the label of the specifier
	- ott        the OTT ID matched with the specifier
	- unknown    the reason for which the OTT ID is not in the synthetic
	             tree

If the flag --links is defined, the Open Tree addresses of the node and the
OTT ID will be added as additional columns.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var links bool

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&links, "links", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	_, res, err := workspace.Resolver(args[0], nil)
	if err != nil {
		return err
	}
	st := res.State

	// the node index is built with the ontology
	if _, err := res.Ontology(); err != nil {
		return err
	}
	results := st.Results()
	ix := st.Index()
	unknown := st.Unknown()

	tsv := csv.NewWriter(c.Stdout())
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	header := []string{"phyloref", "node", "role", "specifier", "ott", "unknown"}
	if links {
		header = append(header, "node-url", "ott-url")
	}
	if err := tsv.Write(header); err != nil {
		return err
	}

	for i, p := range st.Phylorefs() {
		var node string
		if nodes := results[p.ID]; p.ID != "" && len(nodes) > 0 {
			node = ix.Label(nodes[0])
		}
		entries := p.Specifiers()
		if len(entries) == 0 {
			row := []string{p.Title(i), node, "", "", "", ""}
			if links {
				row = append(row, view.NodeURL(node), "")
			}
			if err := tsv.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, e := range entries {
			var ott, ottURL, reason string
			if id, ok := st.OTTID(e.Specifier); ok {
				ott = strconv.FormatInt(id, 10)
				ottURL = view.TaxonURL(id)
				reason = unknown[subtree.Key(id)]
			}
			row := []string{p.Title(i), node, e.Role.String(), e.Specifier.Label(), ott, reason}
			if links {
				row = append(row, view.NodeURL(node), ottURL)
			}
			if err := tsv.Write(row); err != nil {
				return err
			}
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing table: %v", err)
	}
	return nil
}
