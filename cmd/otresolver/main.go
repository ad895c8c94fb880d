// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Otresolver is a tool to resolve phyloreferences
// on the Open Tree of Life.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/clear"
	"github.com/js-arias/otresolver/cmd/otresolver/draw"
	"github.com/js-arias/otresolver/cmd/otresolver/export"
	"github.com/js-arias/otresolver/cmd/otresolver/importcmd"
	"github.com/js-arias/otresolver/cmd/otresolver/phylogeny"
	"github.com/js-arias/otresolver/cmd/otresolver/phylorefcmd"
	"github.com/js-arias/otresolver/cmd/otresolver/prj"
	"github.com/js-arias/otresolver/cmd/otresolver/reason"
	"github.com/js-arias/otresolver/cmd/otresolver/serve"
	"github.com/js-arias/otresolver/cmd/otresolver/subtreecmd"
	"github.com/js-arias/otresolver/cmd/otresolver/table"
	"github.com/js-arias/otresolver/cmd/otresolver/tnrscmd"
)

var app = &command.Command{
	Usage: "otresolver <command> [<argument>...]",
	Short: "a tool to resolve phyloreferences on the Open Tree of Life",
}

func init() {
	app.Add(clear.Command)
	app.Add(draw.Command)
	app.Add(export.Command)
	app.Add(importcmd.Command)
	app.Add(phylogeny.Command)
	app.Add(phylorefcmd.Command)
	app.Add(prj.Command)
	app.Add(reason.Command)
	app.Add(serve.Command)
	app.Add(subtreecmd.Command)
	app.Add(table.Command)
	app.Add(tnrscmd.Command)
}

func main() {
	app.Main()
}
