// SPDX-License-Identifier: GPL-2.0-or-later

package cbuf

import (
	"gofakk/cmd"
	"gofakk/conlog"
)

// Efunc tries to run a parsed line and reports whether it handled it.
type Efunc func(*CommandBuffer, cmd.Arguments) (bool, error)

type executors []Efunc

func (ex *executors) execute(c *CommandBuffer, a cmd.Arguments) error {
	if a.Argc() == 0 {
		return nil // no tokens
	}
	for _, e := range *ex {
		if ok, err := e(c, a); err != nil {
			return err
		} else if ok {
			return nil
		}
	}

	conlog.Printf("Unknown command \"%s\"\n", a.Argv(0).String())
	return nil
}
