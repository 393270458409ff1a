// SPDX-License-Identifier: GPL-2.0-or-later

package tiki

import (
	"strings"

	"gofakk/alias"
	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/filesystem/vfs"
	"gofakk/math/vec"
	"gofakk/rand"
	"gofakk/zone"
)

// Handle identifies a registered model. 0 is never valid.
type Handle int

type cached struct {
	model *Model
	skel  *Skeleton
	anims []*Animation
}

// Cache owns every registered model and the binaries they reference.
type Cache struct {
	load    Loader
	z       *zone.Zone
	aliases *alias.Registry
	rng     *rand.Generator

	models  map[Handle]*cached
	byName  map[string]Handle
	missing map[string]bool
	skels   map[string]*Skeleton
	anims   map[string]*Animation
	next    Handle
}

// NewCache creates an empty cache. aliases may be nil when per model aliases
// are not wanted.
func NewCache(load Loader, z *zone.Zone, aliases *alias.Registry, rng *rand.Generator) *Cache {
	c := &Cache{
		load:    load,
		z:       z,
		aliases: aliases,
		rng:     rng,
		next:    1,
	}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.models = make(map[Handle]*cached)
	c.byName = make(map[string]Handle)
	c.missing = make(map[string]bool)
	c.skels = make(map[string]*Skeleton)
	c.anims = make(map[string]*Animation)
}

func key(name string) string {
	return strings.ToLower(vfs.Clean(name))
}

// RegisterModel parses name and loads what it references. The same name
// returns the same handle until FlushAll. Malformed binaries and includes
// nested too deep raise a fatal error.
func (c *Cache) RegisterModel(name string) Handle {
	k := key(name)
	if k == "" {
		return 0
	}
	if h, ok := c.byName[k]; ok {
		return h
	}
	if c.missing[k] {
		return 0
	}
	if len(c.models) >= MaxModels {
		conlog.Warnf("TIKI_RegisterModel: too many models, %s not loaded\n", name)
		return 0
	}
	m, err := Parse(c.load, name)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			conlog.Warnf("TIKI_RegisterModel: couldn't find %s\n", name)
			c.missing[k] = true
			return 0
		}
		if errs.Is(err, errs.LimitExceeded) {
			panic(errs.Com(errs.Fatal, err))
		}
		conlog.Errorf(err, "TIKI_RegisterModel: %s", name)
		return 0
	}
	e := &cached{model: m, anims: make([]*Animation, len(m.Anims))}
	if m.SkelModel != "" {
		e.skel = c.skeleton(m.SkelModel)
	}
	for i := range m.Anims {
		e.anims[i] = c.animation(m.Anims[i].Filename)
	}
	h := c.next
	c.next++
	c.models[h] = e
	c.byName[k] = h
	c.registerAliases(h, m)
	return h
}

func (c *Cache) readBinary(name string) ([]byte, bool) {
	data, err := c.load.ReadFileBytes(name)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			conlog.DPrintf("TIKI: couldn't load %s\n", name)
			return nil, false
		}
		panic(errs.Com(errs.Fatal, err))
	}
	return data, true
}

func (c *Cache) skeleton(name string) *Skeleton {
	k := key(name)
	if s, ok := c.skels[k]; ok {
		return s
	}
	data, ok := c.readBinary(name)
	if !ok {
		c.skels[k] = nil
		return nil
	}
	s, err := LoadSkeleton(c.z, name, data)
	if err != nil {
		panic(errs.Com(errs.Fatal, err))
	}
	c.skels[k] = s
	return s
}

func (c *Cache) animation(name string) *Animation {
	k := key(name)
	if a, ok := c.anims[k]; ok {
		return a
	}
	data, ok := c.readBinary(name)
	if !ok {
		c.anims[k] = nil
		return nil
	}
	a, err := LoadAnimation(c.z, name, data)
	if err != nil {
		panic(errs.Com(errs.Fatal, err))
	}
	c.anims[k] = a
	return a
}

// registerAliases turns "alias <name> <file> [params]" init commands into
// aliases scoped to the model.
func (c *Cache) registerAliases(h Handle, m *Model) {
	if c.aliases == nil {
		return
	}
	for _, l := range [][]Command{m.ServerInit, m.ClientInit} {
		for _, cmd := range l {
			if len(cmd.Args) < 3 || !strings.EqualFold(cmd.Args[0], "alias") {
				continue
			}
			c.aliases.Add(alias.Model(int(h)), cmd.Args[1], cmd.Args[2], strings.Join(cmd.Args[3:], " "))
		}
	}
}

// FlushAll drops every model. Old handles stay invalid, new registrations
// get fresh numbers.
func (c *Cache) FlushAll() {
	c.z.FreeByTag(zone.TagTiki)
	if c.aliases != nil {
		c.aliases.ClearModels()
	}
	c.reset()
}

// NumModels reports how many models are registered.
func (c *Cache) NumModels() int {
	return len(c.models)
}

func (c *Cache) get(h Handle) *cached {
	return c.models[h]
}

// Model returns the parsed descriptor behind h.
func (c *Cache) Model(h Handle) (*Model, bool) {
	e := c.get(h)
	if e == nil {
		return nil, false
	}
	return e.model, true
}

func (c *Cache) Skeleton(h Handle) *Skeleton {
	if e := c.get(h); e != nil {
		return e.skel
	}
	return nil
}

func (c *Cache) anim(h Handle, a int) (*Anim, *Animation) {
	e := c.get(h)
	if e == nil || a < 0 || a >= len(e.model.Anims) {
		return nil, nil
	}
	return &e.model.Anims[a], e.anims[a]
}

func (c *Cache) NameForNum(h Handle) string {
	if e := c.get(h); e != nil {
		return e.model.Name
	}
	return ""
}

func (c *Cache) NumAnims(h Handle) int {
	if e := c.get(h); e != nil {
		return len(e.model.Anims)
	}
	return 0
}

func (c *Cache) NumSurfaces(h Handle) int {
	if e := c.get(h); e != nil {
		return len(e.model.Surfaces)
	}
	return 0
}

// NumTags is the number of bones. Every bone can serve as a tag.
func (c *Cache) NumTags(h Handle) int {
	if s := c.Skeleton(h); s != nil {
		return len(s.Bones)
	}
	return 0
}

// NumSkins is the largest number of shaders any surface declares.
func (c *Cache) NumSkins(h Handle) int {
	e := c.get(h)
	if e == nil {
		return 0
	}
	n := 0
	for _, s := range e.model.Surfaces {
		if len(s.Shaders) > n {
			n = len(s.Shaders)
		}
	}
	return n
}

func (c *Cache) AnimNameForNum(h Handle, a int) string {
	if d, _ := c.anim(h, a); d != nil {
		return d.Alias
	}
	return ""
}

// AnimNumForName returns the index of the animation alias or -1.
func (c *Cache) AnimNumForName(h Handle, name string) int {
	e := c.get(h)
	if e == nil {
		return -1
	}
	for i := range e.model.Anims {
		if strings.EqualFold(e.model.Anims[i].Alias, name) {
			return i
		}
	}
	return -1
}

// AnimRandom picks one of the animations whose alias starts with name, so
// "idle" selects among "idle1" and "idle2". It returns -1 without a match.
func (c *Cache) AnimRandom(h Handle, name string) int {
	e := c.get(h)
	if e == nil {
		return -1
	}
	prefix := strings.ToLower(name)
	var l []int
	for i := range e.model.Anims {
		if strings.HasPrefix(strings.ToLower(e.model.Anims[i].Alias), prefix) {
			l = append(l, i)
		}
	}
	if len(l) == 0 {
		return -1
	}
	return l[c.rng.Intn(len(l))]
}

func (c *Cache) AnimNumFrames(h Handle, a int) int {
	if _, b := c.anim(h, a); b != nil {
		return b.NumFrames
	}
	return 0
}

// AnimTime is the length of the animation in seconds.
func (c *Cache) AnimTime(h Handle, a int) float32 {
	if _, b := c.anim(h, a); b != nil {
		return b.TotalTime
	}
	return 0
}

func (c *Cache) AnimDelta(h Handle, a int) vec.Vec3 {
	if _, b := c.anim(h, a); b != nil {
		return b.TotalDelta
	}
	return vec.Vec3{}
}

// AnimAbsoluteDelta sums the absolute movement of every frame.
func (c *Cache) AnimAbsoluteDelta(h Handle, a int) vec.Vec3 {
	_, b := c.anim(h, a)
	var d vec.Vec3
	for f := 0; b != nil && f < b.NumFrames; f++ {
		fr, _ := b.Frame(f)
		for i := range d {
			if fr.Delta[i] < 0 {
				d[i] -= fr.Delta[i]
			} else {
				d[i] += fr.Delta[i]
			}
		}
	}
	return d
}

func (c *Cache) AnimFlags(h Handle, a int) int {
	if d, _ := c.anim(h, a); d != nil {
		return d.Flags
	}
	return 0
}

// AnimCrossblendTime is the blend time in milliseconds.
func (c *Cache) AnimCrossblendTime(h Handle, a int) int {
	if d, _ := c.anim(h, a); d != nil {
		return d.BlendTime
	}
	return 0
}

func (c *Cache) AnimHasCommands(h Handle, a int) bool {
	d, _ := c.anim(h, a)
	return d != nil && len(d.Server)+len(d.Client) > 0
}

// FrameCommands returns the commands of side that fire on frame: those bound
// to the frame itself, the entry commands on frame 0, and the every frame
// commands. Exit and last frame commands are left to the caller.
func (c *Cache) FrameCommands(h Handle, a, frame int, side Side) []FrameCommand {
	d, _ := c.anim(h, a)
	if d == nil {
		return nil
	}
	var out []FrameCommand
	for _, fc := range d.commands(side) {
		switch {
		case fc.Frame == frame,
			fc.Frame == FrameEntry && frame == 0,
			fc.Frame == FrameEvery:
			out = append(out, fc)
		}
	}
	return out
}

func (c *Cache) frame(h Handle, a, f int) (Frame, bool) {
	_, b := c.anim(h, a)
	if b == nil {
		return Frame{}, false
	}
	return b.Frame(f)
}

func (c *Cache) FrameDelta(h Handle, a, f int) vec.Vec3 {
	fr, _ := c.frame(h, a, f)
	return fr.Delta
}

// FrameTime is the time in seconds at which frame f starts.
func (c *Cache) FrameTime(h Handle, a, f int) float32 {
	_, b := c.anim(h, a)
	if b == nil || f < 0 || f >= b.NumFrames {
		return 0
	}
	return float32(f) * b.FrameTime
}

func defaultBounds(scale float32) (vec.Vec3, vec.Vec3) {
	return vec.Vec3{-16, -16, 0}.Scale(scale), vec.Vec3{16, 16, 72}.Scale(scale)
}

func (c *Cache) FrameBounds(h Handle, a, f int, scale float32) (vec.Vec3, vec.Vec3) {
	fr, ok := c.frame(h, a, f)
	if !ok {
		return defaultBounds(scale)
	}
	return fr.Mins.Scale(scale), fr.Maxs.Scale(scale)
}

func (c *Cache) FrameRadius(h Handle, a, f int) float32 {
	fr, _ := c.frame(h, a, f)
	return fr.Radius
}

// CalculateBounds is the union of the bounds of every frame of every
// animation.
func (c *Cache) CalculateBounds(h Handle, scale float32) (vec.Vec3, vec.Vec3) {
	e := c.get(h)
	if e == nil {
		return defaultBounds(scale)
	}
	var mins, maxs vec.Vec3
	found := false
	for _, b := range e.anims {
		for f := 0; b != nil && f < b.NumFrames; f++ {
			fr, _ := b.Frame(f)
			if !found {
				mins, maxs = fr.Mins, fr.Maxs
				found = true
				continue
			}
			for i := 0; i < 3; i++ {
				if fr.Mins[i] < mins[i] {
					mins[i] = fr.Mins[i]
				}
				if fr.Maxs[i] > maxs[i] {
					maxs[i] = fr.Maxs[i]
				}
			}
		}
	}
	if !found {
		return defaultBounds(scale)
	}
	return mins.Scale(scale), maxs.Scale(scale)
}

func (c *Cache) surface(h Handle, s int) *Surface {
	e := c.get(h)
	if e == nil || s < 0 || s >= len(e.model.Surfaces) {
		return nil
	}
	return &e.model.Surfaces[s]
}

// SurfaceNameToNum returns the index of the surface or -1.
func (c *Cache) SurfaceNameToNum(h Handle, name string) int {
	e := c.get(h)
	if e == nil {
		return -1
	}
	for i := range e.model.Surfaces {
		if strings.EqualFold(e.model.Surfaces[i].Name, name) {
			return i
		}
	}
	return -1
}

func (c *Cache) SurfaceNumToName(h Handle, s int) string {
	if sf := c.surface(h, s); sf != nil {
		return sf.Name
	}
	return ""
}

func (c *Cache) SurfaceFlags(h Handle, s int) int {
	if sf := c.surface(h, s); sf != nil {
		return sf.Flags
	}
	return 0
}

func (c *Cache) SurfaceNumSkins(h Handle, s int) int {
	if sf := c.surface(h, s); sf != nil {
		return len(sf.Shaders)
	}
	return 0
}

// TagNumForName returns the bone index or -1.
func (c *Cache) TagNumForName(h Handle, name string) int {
	if s := c.Skeleton(h); s != nil {
		return s.BoneNumForName(name)
	}
	return -1
}

func (c *Cache) TagNameForNum(h Handle, t int) string {
	s := c.Skeleton(h)
	if s == nil || t < 0 || t >= len(s.Bones) {
		return ""
	}
	return s.Bones[t].Name
}

// TagOrientation returns where bone t sits in frame f of animation a. The
// origin is multiplied by scale.
func (c *Cache) TagOrientation(h Handle, a, f, t int, scale float32) Orientation {
	s := c.Skeleton(h)
	if s == nil || t < 0 || t >= len(s.Bones) {
		return Orientation{Axis: vec.IdentityAxis()}
	}
	_, b := c.anim(h, a)
	out := make([]vec.Transform, len(s.Bones))
	s.Compose(b, f, out)
	return Orientation{
		Origin: out[t].Origin.Scale(scale),
		Axis:   out[t].Axis,
	}
}

// BoneTransforms returns the model space transform of every bone in frame f
// of animation a.
func (c *Cache) BoneTransforms(h Handle, a, f int) []vec.Transform {
	s := c.Skeleton(h)
	if s == nil {
		return nil
	}
	_, b := c.anim(h, a)
	out := make([]vec.Transform, len(s.Bones))
	s.Compose(b, f, out)
	return out
}

func (c *Cache) InitCommands(h Handle, side Side) []Command {
	if e := c.get(h); e != nil {
		return e.model.initCommands(side)
	}
	return nil
}
