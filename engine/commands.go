// SPDX-License-Identifier: GPL-2.0-or-later

package engine

import (
	"strings"

	"gofakk/alias"
	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/filesystem"
)

func (e *Engine) registerCommands() {
	cmd.Must(e.Commands.Add("echo", echo))
	cmd.Must(e.Commands.Add("cmdlist", e.Commands.ListCommand()))
	cmd.Must(e.Commands.Add("exec", e.execFile))
	cmd.Must(e.Commands.Add("zonestat", e.zoneStat))
	cmd.Must(e.Commands.Add("path", e.path))
	cmd.Must(e.Commands.Add("dir", e.dir))
	cmd.Must(e.Commands.Add("alias_dump", e.aliasDump))
	cmd.Must(e.Commands.Add("quit", e.quitCommand))
}

func echo(a cmd.Arguments) error {
	conlog.Printf("%s\n", a.ArgumentString())
	return nil
}

func (e *Engine) execFile(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("exec <filename> : execute a script file\n")
		return nil
	}
	name := filesystem.DefaultExt(a.Argv(1).String(), ".cfg")
	b, err := e.FS.ReadFileBytes(name)
	if err != nil {
		conlog.Printf("couldn't exec %s\n", name)
		return nil
	}
	conlog.Printf("execing %s\n", name)
	e.Cbuf.InsertText(string(b))
	return nil
}

func (e *Engine) zoneStat(a cmd.Arguments) error {
	var b strings.Builder
	e.Zone.Dump(&b)
	conlog.SafePrintf("%s", b.String())
	conlog.SafePrintf("hunk: %d of %d bytes\n", e.Hunk.Used(), e.Hunk.Size())
	return nil
}

func (e *Engine) path(a cmd.Arguments) error {
	conlog.Printf("Current search path:\n")
	for _, p := range e.FS.SearchPaths() {
		conlog.Printf("%s\n", p)
	}
	return nil
}

func (e *Engine) dir(a cmd.Arguments) error {
	if a.Argc() < 2 || a.Argc() > 3 {
		conlog.Printf("usage: dir <directory> [extension]\n")
		return nil
	}
	ext := ""
	if a.Argc() == 3 {
		ext = a.Argv(2).String()
	}
	files := e.FS.ListFiles(a.Argv(1).String(), ext)
	conlog.Printf("Directory of %s %s\n", a.Argv(1).String(), ext)
	conlog.Printf("---------------\n")
	for _, f := range files {
		conlog.Printf("%s\n", f)
	}
	return nil
}

func (e *Engine) aliasDump(a cmd.Arguments) error {
	var b strings.Builder
	e.Aliases.Dump(alias.Global, &b)
	conlog.SafePrintf("%s", b.String())
	return nil
}

func (e *Engine) quitCommand(a cmd.Arguments) error {
	e.quit = true
	return nil
}
