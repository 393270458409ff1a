// SPDX-License-Identifier: GPL-2.0-or-later

package game

import (
	"io"

	"gofakk/alias"
	"gofakk/math/vec"
	"gofakk/tiki"
)

// TIKI is the model query surface shared by the game and cgame tables.
// Models are addressed by the index the caller knows them by, the resolver
// passed to NewTIKI maps it to a cache handle.
type TIKI struct {
	NumAnims        func(model int) int
	NumSkins        func(model int) int
	NumSurfaces     func(model int) int
	NumTags         func(model int) int
	InitCommands    func(model int, side tiki.Side) []tiki.Command
	CalculateBounds func(model int, scale float32) (vec.Vec3, vec.Vec3)
	NameForNum      func(model int) string

	AnimNameForNum      func(model, anim int) string
	AnimNumForName      func(model int, name string) int
	AnimRandom          func(model int, name string) int
	AnimNumFrames       func(model, anim int) int
	AnimTime            func(model, anim int) float32
	AnimDelta           func(model, anim int) vec.Vec3
	AnimAbsoluteDelta   func(model, anim int) vec.Vec3
	AnimFlags           func(model, anim int) int
	AnimCrossblendTime  func(model, anim int) int
	AnimHasCommands     func(model, anim int) bool
	FrameCommands       func(model, anim, frame int, side tiki.Side) []tiki.FrameCommand
	FrameDelta          func(model, anim, frame int) vec.Vec3
	FrameTime           func(model, anim, frame int) float32
	FrameBounds         func(model, anim, frame int, scale float32) (vec.Vec3, vec.Vec3)
	FrameRadius         func(model, anim, frame int) float32
	SurfaceNameToNum    func(model int, name string) int
	SurfaceNumToName    func(model, surface int) string
	SurfaceFlags        func(model, surface int) int
	SurfaceNumSkins     func(model, surface int) int
	TagNumForName       func(model int, name string) int
	TagNameForNum       func(model, tag int) string
	TagOrientation      func(model, anim, frame, tag int, scale float32) tiki.Orientation
	BoneWorldTransforms func(model, anim, frame int) []vec.Transform
}

// NewTIKI binds the query surface to c. resolve turns a caller model index
// into a handle, nil uses the index as the handle.
func NewTIKI(c *tiki.Cache, resolve func(model int) tiki.Handle) TIKI {
	if resolve == nil {
		resolve = func(m int) tiki.Handle { return tiki.Handle(m) }
	}
	h := resolve
	return TIKI{
		NumAnims:        func(m int) int { return c.NumAnims(h(m)) },
		NumSkins:        func(m int) int { return c.NumSkins(h(m)) },
		NumSurfaces:     func(m int) int { return c.NumSurfaces(h(m)) },
		NumTags:         func(m int) int { return c.NumTags(h(m)) },
		InitCommands:    func(m int, s tiki.Side) []tiki.Command { return c.InitCommands(h(m), s) },
		CalculateBounds: func(m int, scale float32) (vec.Vec3, vec.Vec3) { return c.CalculateBounds(h(m), scale) },
		NameForNum:      func(m int) string { return c.NameForNum(h(m)) },

		AnimNameForNum:     func(m, a int) string { return c.AnimNameForNum(h(m), a) },
		AnimNumForName:     func(m int, n string) int { return c.AnimNumForName(h(m), n) },
		AnimRandom:         func(m int, n string) int { return c.AnimRandom(h(m), n) },
		AnimNumFrames:      func(m, a int) int { return c.AnimNumFrames(h(m), a) },
		AnimTime:           func(m, a int) float32 { return c.AnimTime(h(m), a) },
		AnimDelta:          func(m, a int) vec.Vec3 { return c.AnimDelta(h(m), a) },
		AnimAbsoluteDelta:  func(m, a int) vec.Vec3 { return c.AnimAbsoluteDelta(h(m), a) },
		AnimFlags:          func(m, a int) int { return c.AnimFlags(h(m), a) },
		AnimCrossblendTime: func(m, a int) int { return c.AnimCrossblendTime(h(m), a) },
		AnimHasCommands:    func(m, a int) bool { return c.AnimHasCommands(h(m), a) },
		FrameCommands: func(m, a, f int, s tiki.Side) []tiki.FrameCommand {
			return c.FrameCommands(h(m), a, f, s)
		},
		FrameDelta: func(m, a, f int) vec.Vec3 { return c.FrameDelta(h(m), a, f) },
		FrameTime:  func(m, a, f int) float32 { return c.FrameTime(h(m), a, f) },
		FrameBounds: func(m, a, f int, scale float32) (vec.Vec3, vec.Vec3) {
			return c.FrameBounds(h(m), a, f, scale)
		},
		FrameRadius:      func(m, a, f int) float32 { return c.FrameRadius(h(m), a, f) },
		SurfaceNameToNum: func(m int, n string) int { return c.SurfaceNameToNum(h(m), n) },
		SurfaceNumToName: func(m, s int) string { return c.SurfaceNumToName(h(m), s) },
		SurfaceFlags:     func(m, s int) int { return c.SurfaceFlags(h(m), s) },
		SurfaceNumSkins:  func(m, s int) int { return c.SurfaceNumSkins(h(m), s) },
		TagNumForName:    func(m int, n string) int { return c.TagNumForName(h(m), n) },
		TagNameForNum:    func(m, t int) string { return c.TagNameForNum(h(m), t) },
		TagOrientation: func(m, a, f, t int, scale float32) tiki.Orientation {
			return c.TagOrientation(h(m), a, f, t, scale)
		},
		BoneWorldTransforms: func(m, a, f int) []vec.Transform {
			return c.BoneTransforms(h(m), a, f)
		},
	}
}

// Alias is the alias surface. Model functions take the same model index as
// the TIKI table, the Global ones work on the global list.
type Alias struct {
	Add            func(model int, alias, name, params string) bool
	FindRandom     func(model int, alias string) string
	Dump           func(model int, w io.Writer)
	Clear          func(model int)
	FindDialog     func(model int, alias string, random bool, entity int) string
	UpdateDialog   func(model int, alias string, timesPlayed int, playedThisLoop bool, lastTimePlayed int)
	AddActorDialog func(model int, alias string, actor, timesPlayed int, playedThisLoop bool, lastTimePlayed int)
	NameForNum     func(model, n int) string

	GlobalAdd        func(alias, name, params string) bool
	GlobalFindRandom func(alias string) string
	GlobalDump       func(w io.Writer)
	GlobalClear      func()
}

func NewAlias(r *alias.Registry, resolve func(model int) tiki.Handle) Alias {
	if resolve == nil {
		resolve = func(m int) tiki.Handle { return tiki.Handle(m) }
	}
	scope := func(m int) alias.Scope { return alias.Model(int(resolve(m))) }
	found := func(s string, _ bool) string { return s }
	return Alias{
		Add:        func(m int, a, n, p string) bool { return r.Add(scope(m), a, n, p) },
		FindRandom: func(m int, a string) string { return found(r.FindRandom(scope(m), a)) },
		Dump:       func(m int, w io.Writer) { r.Dump(scope(m), w) },
		Clear:      func(m int) { r.Clear(scope(m)) },
		FindDialog: func(m int, a string, random bool, ent int) string {
			return found(r.FindDialog(scope(m), a, random, ent))
		},
		UpdateDialog: func(m int, a string, times int, played bool, last int) {
			r.UpdateDialog(scope(m), a, times, played, last)
		},
		AddActorDialog: func(m int, a string, actor, times int, played bool, last int) {
			r.AddActorDialog(scope(m), a, actor, times, played, last)
		},
		NameForNum: func(m, n int) string { return found(r.NameForNum(scope(m), n)) },

		GlobalAdd:        func(a, n, p string) bool { return r.Add(alias.Global, a, n, p) },
		GlobalFindRandom: func(a string) string { return found(r.FindRandom(alias.Global, a)) },
		GlobalDump:       func(w io.Writer) { r.Dump(alias.Global, w) },
		GlobalClear:      func() { r.Clear(alias.Global) },
	}
}
