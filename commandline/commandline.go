// SPDX-License-Identifier: GPL-2.0-or-later

// Package commandline parses the driver flags and the trailing +cmd
// segments.
package commandline

import (
	"strings"

	"github.com/alecthomas/kong"

	"gofakk/engine"
	"gofakk/errs"
)

// Flags are the driver flags. Everything after the first +word is left to
// the command buffer.
type Flags struct {
	Config      string `short:"c" help:"Engine configuration file (yaml)." type:"existingfile"`
	BaseDir     string `name:"basedir" help:"Directory holding the game directories."`
	Game        string `help:"Game directory below basedir."`
	Developer   bool   `help:"Print developer messages."`
	Debug       bool   `help:"Enable debug logging."`
	HunkMegs    int    `name:"hunkmegs" help:"Size of the level hunk in megabytes."`
	ModuleDir   string `name:"moduledir" help:"Directory searched for game and cgame plugins."`
	MetricsAddr string `name:"metrics" help:"Serve engine metrics on this address."`
	NoConfig    bool   `name:"noconfig" help:"Do not write config.cfg on exit."`
}

type Options struct {
	Flags
	// SetLines are the +set segments, they run before any config file.
	SetLines []string
	// Commands are all other + segments in order.
	Commands []string
}

// Split separates the driver flags from the + segments. A segment runs from
// a +word to the next one.
func Split(args []string) (flags []string, segments [][]string) {
	i := 0
	for i < len(args) && !isSegment(args[i]) {
		i++
	}
	flags = args[:i]
	for _, a := range args[i:] {
		if isSegment(a) {
			segments = append(segments, []string{a[1:]})
			continue
		}
		s := segments[len(segments)-1]
		segments[len(segments)-1] = append(s, a)
	}
	return flags, segments
}

func isSegment(a string) bool {
	return len(a) > 1 && a[0] == '+'
}

// line joins a segment into a console line, quoting arguments that would
// be split otherwise.
func line(segment []string) string {
	parts := make([]string, len(segment))
	for i, s := range segment {
		if s == "" || strings.ContainsAny(s, " \t;") {
			s = `"` + s + `"`
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}

func newParser(f *Flags, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("gofakk"),
		kong.Description("Heavy Metal: FAKK2 engine core. Trailing +cmd arguments run as console commands, e.g. +set developer 1 +map test."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	}, opts...)
	return kong.New(f, opts...)
}

// Parse parses args without the program name.
func Parse(args []string, opts ...kong.Option) (*Options, error) {
	flags, segments := Split(args)
	o := &Options{}
	k, err := newParser(&o.Flags, opts...)
	if err != nil {
		return nil, errs.Wrap(err, errs.Configuration, "command line")
	}
	if _, err := k.Parse(flags); err != nil {
		return nil, errs.Wrap(err, errs.Configuration, "command line")
	}
	for _, s := range segments {
		l := line(s)
		if strings.EqualFold(s[0], "set") {
			o.SetLines = append(o.SetLines, l)
		} else {
			o.Commands = append(o.Commands, l)
		}
	}
	return o, nil
}

// EngineConfig loads the config file, if any, and lays the flags over it.
func (o *Options) EngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if o.Config != "" {
		var err error
		if cfg, err = engine.LoadConfig(o.Config); err != nil {
			return cfg, err
		}
	}
	if o.BaseDir != "" {
		cfg.BaseDir = o.BaseDir
	}
	if o.Game != "" {
		cfg.Game = o.Game
	}
	if o.Developer {
		cfg.Developer = true
	}
	if o.HunkMegs > 0 {
		cfg.HunkMegs = o.HunkMegs
	}
	if o.ModuleDir != "" {
		cfg.ModuleDir = o.ModuleDir
	}
	if o.NoConfig {
		cfg.WriteConfig = false
	}
	cfg.SetLines = append(cfg.SetLines, o.SetLines...)
	cfg.Commands = append(cfg.Commands, o.Commands...)
	return cfg, nil
}
