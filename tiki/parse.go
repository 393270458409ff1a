// SPDX-License-Identifier: GPL-2.0-or-later

package tiki

import (
	pathpkg "path"
	"strconv"
	"strings"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/parser"
)

// Loader reads whole files from the virtual filesystem. A missing file is
// reported with an errs.NotFound error.
type Loader interface {
	ReadFileBytes(name string) ([]byte, error)
}

// session holds the state shared by a root descriptor and its includes.
type session struct {
	load    Loader
	m       *Model
	defines map[string]string
}

// Parse reads the descriptor name and every file it includes.
func Parse(load Loader, name string) (*Model, error) {
	data, err := load.ReadFileBytes(name)
	if err != nil {
		return nil, err
	}
	s := &session{
		load:    load,
		m:       newModel(name),
		defines: make(map[string]string),
	}
	c := parser.New(name, string(data))
	if t := c.Parse(true); !strings.EqualFold(t, "TIKI") {
		return nil, errs.New(errs.BadFormat, "TIKI_ParseFile: %s does not start with TIKI", name)
	}
	if err := s.parseFile(c, 0); err != nil {
		return nil, err
	}
	s.m.IsCharacter = s.m.SkelModel != ""
	return s.m, nil
}

func (s *session) warn(c *parser.Cursor, format string, v ...interface{}) {
	conlog.Warnf("%s(%d): "+format+"\n", append([]interface{}{c.Name(), c.Line()}, v...)...)
}

func (s *session) parseFile(c *parser.Cursor, depth int) error {
	for {
		t, ok := c.Next(true)
		if !ok {
			return nil
		}
		switch strings.ToLower(t) {
		case "tiki":
			// included files may carry their own header
		case "$define":
			name := c.ParseLine()
			value := s.subst(c.ParseLine())
			if name == "" {
				s.warn(c, "$define without a name")
				continue
			}
			s.define(c, name, value)
		case "$include":
			p := s.subst(c.ParseLine())
			if p == "" {
				s.warn(c, "$include without a file name")
				continue
			}
			if err := s.include(p, depth+1); err != nil {
				return err
			}
		case "setup":
			s.parseSetup(c)
		case "init":
			s.parseInit(c)
		case "animations":
			s.parseAnimations(c)
		default:
			s.warn(c, "unknown keyword %q", t)
			c.SkipRestOfLine()
		}
	}
}

func (s *session) define(c *parser.Cursor, name, value string) {
	k := strings.ToLower(name)
	if _, ok := s.defines[k]; !ok && len(s.defines) >= MaxDefines {
		s.warn(c, "too many $defines, %q ignored", name)
		return
	}
	s.defines[k] = value
}

func (s *session) include(name string, depth int) error {
	if depth >= MaxIncludeDepth {
		return errs.New(errs.LimitExceeded, "TIKI_ParseFile: %s included too deep (%d)", name, depth)
	}
	data, err := s.load.ReadFileBytes(name)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			conlog.Warnf("TIKI_ParseFile: could not include %s\n", name)
			return nil
		}
		return err
	}
	return s.parseFile(parser.New(name, string(data)), depth)
}

// subst replaces every $name$ with its define. Names without a define are
// kept as written.
func (s *session) subst(t string) string {
	if len(s.defines) == 0 || !strings.Contains(t, "$") {
		return t
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(t, '$')
		if i < 0 {
			break
		}
		j := strings.IndexByte(t[i+1:], '$')
		if j < 0 {
			break
		}
		if v, ok := s.defines[strings.ToLower(t[i+1:i+1+j])]; ok {
			b.WriteString(t[:i])
			b.WriteString(v)
			t = t[i+2+j:]
			continue
		}
		b.WriteString(t[:i+1])
		t = t[i+1:]
	}
	b.WriteString(t)
	return b.String()
}

func (s *session) token(c *parser.Cursor, allowNewline bool) string {
	return s.subst(c.Parse(allowNewline))
}

// lineTokens returns the remaining tokens of the current line. A closing
// brace ends the line early and is left for the caller.
func (s *session) lineTokens(c *parser.Cursor) []string {
	var out []string
	for {
		save := *c
		t, ok := c.Next(false)
		if !ok {
			return out
		}
		if t == "}" {
			*c = save
			return out
		}
		out = append(out, s.subst(t))
	}
}

func (s *session) open(c *parser.Cursor, block string) bool {
	if t := c.Parse(true); t != "{" {
		s.warn(c, "expected { after %s, found %q", block, t)
		return false
	}
	return true
}

func atof(t string) float32 {
	f, err := strconv.ParseFloat(t, 32)
	if err != nil {
		return 0
	}
	return float32(f)
}

func atoi(t string) int {
	i, err := strconv.Atoi(t)
	if err != nil {
		return int(atof(t))
	}
	return i
}

func (s *session) float(c *parser.Cursor) float32 {
	return atof(s.token(c, false))
}

func (s *session) vec3(c *parser.Cursor) vec.Vec3 {
	var v vec.Vec3
	for i := range v {
		v[i] = s.float(c)
	}
	return v
}

func (s *session) file(name string) string {
	if s.m.Path == "" {
		return name
	}
	return pathpkg.Join(s.m.Path, name)
}

func (s *session) parseSetup(c *parser.Cursor) {
	if !s.open(c, "setup") {
		return
	}
	m := s.m
	for {
		t := s.token(c, true)
		switch strings.ToLower(t) {
		case "":
			s.warn(c, "unexpected end of file in setup")
			return
		case "}":
			return
		case "scale":
			m.Scale = s.float(c)
		case "lod_scale":
			m.LodScale = s.float(c)
		case "lod_bias":
			m.LodBias = s.float(c)
		case "radius":
			m.Radius = s.float(c)
		case "path":
			m.Path = s.token(c, false)
		case "skelmodel":
			m.SkelModel = s.file(s.token(c, false))
		case "surface":
			s.parseSurface(c)
		case "light_offset":
			m.LightOffset = s.vec3(c)
		case "load_origin":
			m.LoadOrigin = s.vec3(c)
		default:
			s.warn(c, "unknown setup key %q", t)
			c.SkipRestOfLine()
		}
	}
}

func (s *session) surface(name string) *Surface {
	for i := range s.m.Surfaces {
		if strings.EqualFold(s.m.Surfaces[i].Name, name) {
			return &s.m.Surfaces[i]
		}
	}
	if len(s.m.Surfaces) >= MaxSurfaces {
		return nil
	}
	s.m.Surfaces = append(s.m.Surfaces, Surface{Name: name})
	return &s.m.Surfaces[len(s.m.Surfaces)-1]
}

func (s *session) parseSurface(c *parser.Cursor) {
	args := s.lineTokens(c)
	if len(args) < 3 {
		s.warn(c, "surface needs a name, a key and a value")
		return
	}
	surf := s.surface(args[0])
	if surf == nil {
		s.warn(c, "too many surfaces, %q ignored", args[0])
		return
	}
	key, value := strings.ToLower(args[1]), args[2]
	switch key {
	case "shader":
		surf.Shaders = append(surf.Shaders, value)
	case "flags":
		f, ok := surfaceFlagNames[strings.ToLower(value)]
		if !ok {
			s.warn(c, "unknown surface flag %q", value)
			return
		}
		surf.Flags |= f
	case "surfacetype":
		surf.Flags = surf.Flags&^SurfaceTypeMask | (atoi(value)<<SurfaceTypeShift)&SurfaceTypeMask
	default:
		s.warn(c, "unknown surface key %q", args[1])
	}
}

func (s *session) parseInit(c *parser.Cursor) {
	if !s.open(c, "init") {
		return
	}
	for {
		t := s.token(c, true)
		switch strings.ToLower(t) {
		case "":
			s.warn(c, "unexpected end of file in init")
			return
		case "}":
			return
		case "server":
			s.m.ServerInit = s.parseCommands(c, "server", s.m.ServerInit)
		case "client":
			s.m.ClientInit = s.parseCommands(c, "client", s.m.ClientInit)
		default:
			s.warn(c, "unknown init section %q", t)
			c.SkipRestOfLine()
		}
	}
}

func (s *session) capArgs(c *parser.Cursor, args []string) []string {
	if len(args) > MaxCmdArgs {
		s.warn(c, "%s has more than %d arguments", args[0], MaxCmdArgs)
		args = args[:MaxCmdArgs]
	}
	return args
}

func (s *session) parseCommands(c *parser.Cursor, side string, list []Command) []Command {
	if !s.open(c, side) {
		return list
	}
	for {
		t := s.token(c, true)
		if t == "" || t == "}" {
			return list
		}
		args := s.capArgs(c, append([]string{t}, s.lineTokens(c)...))
		if len(list) >= MaxInitCmds {
			s.warn(c, "too many %s init commands", side)
			continue
		}
		list = append(list, Command{Args: args})
	}
}

func (s *session) parseAnimations(c *parser.Cursor) {
	if !s.open(c, "animations") {
		return
	}
	for {
		t := s.token(c, true)
		switch t {
		case "":
			s.warn(c, "unexpected end of file in animations")
			return
		case "}":
			return
		}
		a := Anim{
			Alias:     t,
			Weight:    1,
			BlendTime: DefaultBlendTime,
		}
		f := s.token(c, false)
		if f == "" {
			s.warn(c, "animation %q has no file", t)
			continue
		}
		a.Filename = s.file(f)
		s.lineTokens(c)
		if c.Peek(true) == "{" {
			c.Parse(true)
			s.parseAnimBlock(c, &a)
		}
		if len(s.m.Anims) >= MaxAnims {
			s.warn(c, "too many animations, %q ignored", a.Alias)
			continue
		}
		s.m.Anims = append(s.m.Anims, a)
	}
}

func (s *session) parseAnimBlock(c *parser.Cursor, a *Anim) {
	for {
		t := s.token(c, true)
		switch strings.ToLower(t) {
		case "":
			s.warn(c, "unexpected end of file in animation %s", a.Alias)
			return
		case "}":
			return
		case "server":
			a.Server = s.parseFrameCommands(c, "server", a.Server)
		case "client":
			a.Client = s.parseFrameCommands(c, "client", a.Client)
		case "weight":
			a.Weight = s.float(c)
		case "blendtime":
			a.BlendTime = atoi(s.token(c, false))
		case "deltadriven":
			a.Flags |= AnimDeltaDriven
		case "default_angles":
			a.Flags |= AnimDefaultAngles
		default:
			s.warn(c, "unknown animation key %q", t)
			c.SkipRestOfLine()
		}
	}
}

func frameNumber(t string) (int, bool) {
	switch strings.ToLower(t) {
	case "first", "enter", "entry":
		return FrameEntry, true
	case "last":
		return FrameLast, true
	case "exit":
		return FrameExit, true
	case "every":
		return FrameEvery, true
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *session) parseFrameCommands(c *parser.Cursor, side string, list []FrameCommand) []FrameCommand {
	if !s.open(c, side) {
		return list
	}
	for {
		t := s.token(c, true)
		if t == "" || t == "}" {
			return list
		}
		frame, ok := frameNumber(t)
		if !ok {
			s.warn(c, "bad frame number %q", t)
			s.lineTokens(c)
			continue
		}
		args := s.lineTokens(c)
		if len(args) == 0 {
			s.warn(c, "frame %s has no command", t)
			continue
		}
		if len(list) >= MaxFrameCmds {
			s.warn(c, "too many %s frame commands", side)
			continue
		}
		list = append(list, FrameCommand{Frame: frame, Args: s.capArgs(c, args)})
	}
}
