// SPDX-License-Identifier: GPL-2.0-or-later

// Package cmd holds console command registration and argument tokenizing.
package cmd

import (
	"sort"
	"strings"

	"gofakk/errs"
)

type QFunc func(a Arguments) error

type Commands map[string]QFunc

func New() *Commands {
	c := make(Commands)
	return &c
}

func (c *Commands) Add(name string, f QFunc) error {
	ln := strings.ToLower(name)
	if _, ok := (*c)[ln]; ok {
		return errs.New(errs.Configuration, "Cmd_AddCommand: %s already defined", ln)
	}
	(*c)[ln] = f
	return nil
}

func (c *Commands) Remove(name string) {
	delete(*c, strings.ToLower(name))
}

func (c *Commands) Exists(cmdName string) bool {
	name := strings.ToLower(cmdName)
	_, ok := (*c)[name]
	return ok
}

func (c *Commands) List() []string {
	cmds := make([]string, 0, len(*c))
	for cmd := range *c {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	return cmds
}

// Execute runs the command named by argv[0] and reports whether one was
// found.
func (c *Commands) Execute(a Arguments) (bool, error) {
	if a.Argc() == 0 {
		return false, nil
	}
	name := strings.ToLower(a.Argv(0).String())
	if cmd, ok := (*c)[name]; ok {
		if err := cmd(a); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

func Must(err error) {
	if err != nil {
		panic(err.Error())
	}
}
