// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phylorefcmd is a metapackage for commands
// that dealt with phyloreferences.
package phylorefcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/phylorefcmd/add"
	"github.com/js-arias/otresolver/cmd/otresolver/phylorefcmd/list"
	"github.com/js-arias/otresolver/cmd/otresolver/phylorefcmd/remove"
)

var Command = &command.Command{
	Usage: "phyloref <command> [<argument>...]",
	Short: "commands for phyloreferences",
}

func init() {
	Command.Add(add.Command)
	Command.Add(list.Command)
	Command.Add(remove.Command)
}
