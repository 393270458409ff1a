// SPDX-License-Identifier: GPL-2.0-or-later

package cgame

import (
	"gofakk/bsp"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/snd"
	"gofakk/tiki"
	"gofakk/zone"
)

// Import is what the client hands to Export.Init.
type Import struct {
	APIVersion int

	Printf       func(format string, v ...interface{})
	DPrintf      func(format string, v ...interface{})
	DebugPrintf  func(format string, v ...interface{})
	Malloc       func(size int) *zone.Block
	Free         func(b *zone.Block)
	Error        func(code errs.Code, format string, v ...interface{})
	Milliseconds func() int

	Cvar    func(name, value string, flags cvar.Flag) *cvar.Cvar
	CvarSet func(name, value string)

	Argc       func() int
	Argv       func(n int) string
	Args       func() string
	AddCommand func(name string)

	FSReadFile  func(name string) (*zone.Block, error)
	FSFreeFile  func(b *zone.Block)
	FSWriteFile func(name string, data []byte) error

	SendConsoleCommand func(text string)
	SendClientCommand  func(text string)

	CMLoadMap                  func(name string) error
	CMInlineModel              func(index int) (bsp.ClipHandle, error)
	CMNumInlineModels          func() int
	CMPointContents            func(p vec.Vec3, model bsp.ClipHandle) int
	CMTransformedPointContents func(p vec.Vec3, model bsp.ClipHandle, origin, angles vec.Vec3) int
	CMBoxTrace                 func(start, end, mins, maxs vec.Vec3, model bsp.ClipHandle, mask int, cylinder bool) bsp.Trace
	CMTransformedBoxTrace      func(start, end, mins, maxs vec.Vec3, model bsp.ClipHandle, mask int, origin, angles vec.Vec3, cylinder bool) bsp.Trace
	CMTempBoxModel             func(mins, maxs vec.Vec3, contents int) bsp.ClipHandle
	CMMarkFragments            func(points []vec.Vec3, projection vec.Vec3, maxPoints, maxFragments int) ([]vec.Vec3, []bsp.MarkFragment)

	SStartSound         func(origin *vec.Vec3, entnum, channel int, sfx snd.Handle, volume, minDist float32)
	SStartLocalSound    func(name string)
	SStopSound          func(entnum, channel int)
	SClearLoopingSounds func()
	SAddLoopingSound    func(origin, velocity vec.Vec3, sfx snd.Handle, volume, minDist float32)
	SRespatialize       func(entnum int, origin vec.Vec3, axis vec.Axis)
	SRegisterSound      func(name string) snd.Handle

	MusicNewSoundtrack func(name string)
	MusicUpdateMood    func(current, fallback int)
	MusicUpdateVolume  func(volume, fadeTime float32)

	LipLength     func(name string) float32
	LipAmplitudes func(name string) []byte

	RClearScene          func()
	RRenderScene         func(fd *RefDef)
	RLoadWorldMap        func(name string)
	RRegisterModel       func(name string) int
	RRegisterSkin        func(name string) int
	RRegisterShader      func(name string) int
	RRegisterShaderNoMip func(name string) int
	RAddRefEntityToScene func(ent *RefEntity)
	RAddLightToScene     func(origin vec.Vec3, intensity, r, g, b float32, typ int)
	RAddPolyToScene      func(shader int, verts []PolyVert, renderFX int)
	RSetColor            func(rgba *[4]float32)
	RDrawStretchPic      func(x, y, w, h, s1, t1, s2, t2 float32, shader int)
	RModelBounds         func(model bsp.ClipHandle) (vec.Vec3, vec.Vec3)
	RDebugLine           func(start, end vec.Vec3, r, g, b, alpha float32)
	RSwipeBegin          func(thisTime, life float32, shader int)
	RSwipePoint          func(p1, p2 vec.Vec3, time float32)
	RSwipeEnd            func()

	GetGameState             func() *protocol.GameState
	GetSnapshot              func(n int) (*protocol.Snapshot, bool)
	GetCurrentSnapshotNumber func() (snapshot, serverTime int)
	GetRendererConfig        func() RendererConfig
	GetCurrentCmdNumber      func() int
	GetUserCmd               func(n int) (protocol.UserCmd, bool)
	// GetServerCommand makes Argc and Argv return the tokens of command seq.
	GetServerCommand func(seq int) bool

	// TIKIGetHandle turns a renderer model into a TIKI handle.
	TIKIGetHandle func(model int) tiki.Handle
	TIKI          game.TIKI
	Alias         game.Alias
}

type Export struct {
	APIVersion int

	Init              func(imp *Import, serverMessageNum, serverCommandSequence int)
	Shutdown          func()
	DrawActiveFrame   func(serverTime int, stereo StereoFrame, demoPlayback bool)
	ConsoleCommand    func() bool
	GetRendererConfig func()
	Draw2D            func()
}
