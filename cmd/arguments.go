// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"log"
	"strconv"
	"strings"
	"unicode"

	"gofakk/parser"
)

const MaxArgs = 1024

type QArg struct {
	a string
}

func (a QArg) String() string {
	return a.a
}

func (a QArg) Int() int {
	r, err := strconv.ParseInt(a.a, 10, 0)
	if err != nil {
		return int(a.Float64())
	}
	return int(r)
}

func (a QArg) Float32() float32 {
	r, err := strconv.ParseFloat(a.a, 32)
	if err != nil {
		return 0
	}
	return float32(r)
}

func (a QArg) Float64() float64 {
	r, err := strconv.ParseFloat(a.a, 64)
	if err != nil {
		return 0
	}
	return r
}

func (a QArg) Bool() bool {
	switch a.a {
	case "1", "t", "T", "true", "TRUE", "True", "On", "ON", "on":
		return true
	default:
		return false
	}
}

type Arguments struct {
	// each arg on its own
	args []QArg
	// the trimmed line the args were parsed from
	full string
}

func (c *Arguments) Argc() int {
	return len(c.args)
}

// Argv returns argument i or an empty argument when i is out of range.
func (c *Arguments) Argv(i int) QArg {
	if i < 0 || i >= len(c.args) {
		return QArg{""}
	}
	return c.args[i]
}

func (c *Arguments) Full() string {
	return c.full
}

func (c *Arguments) Args() []QArg {
	return c.args
}

// ArgsFrom joins the arguments starting at i with single spaces.
func (c *Arguments) ArgsFrom(i int) string {
	if i >= len(c.args) {
		return ""
	}
	parts := make([]string, 0, len(c.args)-i)
	for _, a := range c.args[i:] {
		parts = append(parts, a.a)
	}
	return strings.Join(parts, " ")
}

// ArgumentString is the raw line after argv[0].
func (c *Arguments) ArgumentString() string {
	// args[0] is the cmd
	if len(c.args) < 2 {
		return ""
	}
	r := c.full
	if strings.HasPrefix(r, `"`) {
		r = strings.TrimPrefix(r, `"`+c.args[0].String()+`"`)
	} else {
		r = strings.TrimPrefix(r, c.args[0].String())
	}
	r = strings.TrimLeftFunc(r, unicode.IsSpace)
	// we want to remove " around the text.
	// the end is not that important but the result should not start with " or
	// space.
	if len(r) > 1 {
		if r[0] == '"' {
			r = strings.Trim(r, "\"\t\n\v\f\r ")
		}
	}
	return r
}

// Parse tokenizes a single command line. Parsing stops at the first newline
// or line comment.
func Parse(s string) (args Arguments) {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	args.full = strings.TrimFunc(s, unicode.IsSpace)
	args.args = []QArg{}

	c := parser.New("", args.full)
	for {
		t, ok := c.Next(false)
		if !ok {
			return
		}
		if len(args.args) == MaxArgs {
			log.Printf("too many arguments in %.32q", args.full)
			return
		}
		args.args = append(args.args, QArg{t})
	}
}

// FromStrings builds arguments without tokenizing.
func FromStrings(argv ...string) Arguments {
	args := Arguments{args: make([]QArg, 0, len(argv))}
	for _, a := range argv {
		args.args = append(args.args, QArg{a})
	}
	args.full = strings.Join(argv, " ")
	return args
}
