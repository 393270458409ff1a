// SPDX-License-Identifier: GPL-2.0-or-later

package cvar

import (
	"strings"

	"gofakk/cmd"
	"gofakk/conlog"
)

// Execute handles "name" and "name value" console lines.
func (r *Registry) Execute(a cmd.Arguments) (bool, error) {
	if a.Argc() == 0 {
		return false, nil
	}
	cv, ok := r.Find(a.Argv(0).String())
	if !ok {
		return false, nil
	}
	if a.Argc() == 1 {
		conlog.Printf("\"%s\" is:\"%s\" default:\"%s\"\n", cv.Name(), cv.String(), cv.Default())
		return true, nil
	}
	if err := r.Set(cv.Name(), a.ArgsFrom(1)); err != nil {
		conlog.Printf("%v\n", err)
	}
	return true, nil
}

// Register adds the cvar console commands.
func (r *Registry) Register(c *cmd.Commands) {
	cmd.Must(c.Add("cvarlist", r.list))
	cmd.Must(c.Add("cycle", r.cycle))
	cmd.Must(c.Add("inc", r.inc))
	cmd.Must(c.Add("reset", r.reset))
	cmd.Must(c.Add("set", r.setter("set", NONE, c)))
	cmd.Must(c.Add("seta", r.setter("seta", ARCHIVE, c)))
	cmd.Must(c.Add("sets", r.setter("sets", SERVERINFO, c)))
	cmd.Must(c.Add("setu", r.setter("setu", USERINFO, c)))
	cmd.Must(c.Add("toggle", r.toggle))
}

func (r *Registry) setter(name string, flag Flag, c *cmd.Commands) cmd.QFunc {
	return func(a cmd.Arguments) error {
		if a.Argc() < 3 {
			conlog.Printf("usage: %s <variable> <value>\n", name)
			return nil
		}
		n := a.Argv(1).String()
		if c.Exists(n) {
			conlog.Printf("conflict with command\n")
			return nil
		}
		if err := r.Set(n, a.ArgsFrom(2)); err != nil {
			conlog.Printf("%v\n", err)
			return nil
		}
		if flag != NONE {
			if cv, ok := r.Find(n); ok {
				cv.flags |= flag
				r.modified |= flag
			}
		}
		return nil
	}
}

func (r *Registry) toggle(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("toggle <variable> : toggle a cvar on or off\n")
		return nil
	}
	n := a.Argv(1).String()
	if r.VariableValue(n) != 0 {
		return r.report(r.Set(n, "0"))
	}
	return r.report(r.Set(n, "1"))
}

func (r *Registry) report(err error) error {
	if err != nil {
		conlog.Printf("%v\n", err)
	}
	return nil
}

func (r *Registry) inc(a cmd.Arguments) error {
	switch a.Argc() {
	case 2:
		return r.report(r.SetValue(a.Argv(1).String(), r.VariableValue(a.Argv(1).String())+1))
	case 3:
		n := a.Argv(1).String()
		return r.report(r.SetValue(n, r.VariableValue(n)+a.Argv(2).Float32()))
	}
	conlog.Printf("inc <cvar> [amount] : increment cvar\n")
	return nil
}

func (r *Registry) reset(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("reset <variable> : reset cvar to default\n")
		return nil
	}
	return r.report(r.Reset(a.Argv(1).String()))
}

func (r *Registry) list(a cmd.Arguments) error {
	match := ""
	if a.Argc() > 1 {
		match = strings.ToLower(a.Argv(1).String())
	}
	n := 0
	for _, v := range r.sorted() {
		if match != "" && !strings.HasPrefix(key(v.name), match) {
			continue
		}
		n++
		conlog.SafePrintf("%s%s%s%s%s %s \"%s\"\n",
			flagChar(v.flags, SERVERINFO, 'S'),
			flagChar(v.flags, USERINFO, 'U'),
			flagChar(v.flags, ROM, 'R'),
			flagChar(v.flags, ARCHIVE, 'A'),
			flagChar(v.flags, LATCH, 'L'),
			v.Name(),
			v.String())
	}
	conlog.SafePrintf("%v cvars\n", n)
	return nil
}

func flagChar(f, want Flag, c byte) string {
	if f&want != 0 {
		return string(c)
	}
	return " "
}

func (r *Registry) cycle(a cmd.Arguments) error {
	args := a.Args()[1:]
	if len(args) < 2 {
		conlog.Printf("cycle <cvar> <value list>: cycle cvar through a list of values\n")
		return nil
	}
	cv, ok := r.Find(args[0].String())
	if !ok {
		conlog.Printf("Cvar_Set: variable %v not found\n", args[0].String())
		return nil
	}
	oldValue := cv.String()
	i := 0
	for i < len(args)-1 {
		i++
		if oldValue == args[i].String() {
			break
		}
	}
	i %= len(args) - 1
	i++
	return r.report(r.Set(cv.Name(), args[i].String()))
}
