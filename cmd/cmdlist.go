// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"strings"

	"gofakk/conlog"
)

type cmdList []string

// ListCommand is the "cmdlist" console command.
func (c *Commands) ListCommand() QFunc {
	return func(a Arguments) error {
		cl := cmdList(c.List())
		switch a.Argc() {
		default:
			cl.printPartialCmdList(a.Argv(1).String())
		case 0, 1:
			cl.printFullCmdList()
		}
		return nil
	}
}

func (cl cmdList) printFullCmdList() {
	for _, c := range cl {
		conlog.SafePrintf("  %s\n", c)
	}
	conlog.SafePrintf("%v commands\n", len(cl))
}

func (cl cmdList) printPartialCmdList(part string) {
	count := 0
	for _, c := range cl {
		if strings.HasPrefix(c, part) {
			conlog.SafePrintf("  %s\n", c)
			count++
		}
	}
	conlog.SafePrintf("%v commands beginning with \"%v\"\n", count, part)
}
