// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"gofakk/cgame"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/snd"
)

// Renderer draws what the cgame builds each frame.
type Renderer interface {
	ClearScene()
	RenderScene(fd *cgame.RefDef)
	LoadWorldMap(name string)
	RegisterModel(name string) int
	RegisterSkin(name string) int
	RegisterShader(name string, mipmap bool) int
	AddRefEntityToScene(ent *cgame.RefEntity)
	AddLightToScene(origin vec.Vec3, intensity, r, g, b float32, typ int)
	AddPolyToScene(shader int, verts []cgame.PolyVert, renderFX int)
	SetColor(rgba *[4]float32)
	DrawStretchPic(x, y, w, h, s1, t1, s2, t2 float32, shader int)
	DebugLine(start, end vec.Vec3, r, g, b, alpha float32)
	SwipeBegin(thisTime, life float32, shader int)
	SwipePoint(p1, p2 vec.Vec3, time float32)
	SwipeEnd()
	Config() cgame.RendererConfig
}

// SoundOutput receives sound events. *snd.Queue implements it.
type SoundOutput interface {
	Start(origin *vec.Vec3, entnum, channel int, sfx snd.Handle, volume, minDist float32)
	Stop(entnum, channel int)
	StopAll()
	Respatialize(entnum int, origin vec.Vec3, axis vec.Axis)
	ClearLoopingSounds()
	AddLoopingSound(origin, velocity vec.Vec3, sfx snd.Handle, volume, minDist float32)
}

type Music interface {
	NewSoundtrack(name string)
	UpdateMood(current, fallback int)
	UpdateVolume(volume, fadeTime float32)
}

// Input fills the movement part of the next usercmd.
type Input interface {
	Sample(cmd *protocol.UserCmd, msec int)
}

// NullRenderer hands out model handles and draws nothing.
type NullRenderer struct {
	models  []string
	shaders []string
}

func (r *NullRenderer) ClearScene()                                                             {}
func (r *NullRenderer) RenderScene(fd *cgame.RefDef)                                            {}
func (r *NullRenderer) LoadWorldMap(name string)                                                {}
func (r *NullRenderer) AddRefEntityToScene(ent *cgame.RefEntity)                                {}
func (r *NullRenderer) AddLightToScene(origin vec.Vec3, intensity, cr, cg, cb float32, typ int) {}
func (r *NullRenderer) AddPolyToScene(shader int, verts []cgame.PolyVert, renderFX int)         {}
func (r *NullRenderer) SetColor(rgba *[4]float32)                                               {}
func (r *NullRenderer) DrawStretchPic(x, y, w, h, s1, t1, s2, t2 float32, shader int)           {}
func (r *NullRenderer) DebugLine(start, end vec.Vec3, cr, cg, cb, alpha float32)                {}
func (r *NullRenderer) SwipeBegin(thisTime, life float32, shader int)                           {}
func (r *NullRenderer) SwipePoint(p1, p2 vec.Vec3, time float32)                                {}
func (r *NullRenderer) SwipeEnd()                                                               {}

func (r *NullRenderer) RegisterSkin(name string) int { return 0 }

func (r *NullRenderer) Config() cgame.RendererConfig {
	return cgame.RendererConfig{
		RendererString: "null",
		VidWidth:       640,
		VidHeight:      480,
		WindowAspect:   640.0 / 480.0,
	}
}

// RegisterModel returns the same handle for the same name, 0 is never used.
func (r *NullRenderer) RegisterModel(name string) int {
	return register(&r.models, name)
}

func (r *NullRenderer) RegisterShader(name string, mipmap bool) int {
	return register(&r.shaders, name)
}

func register(l *[]string, name string) int {
	if name == "" {
		return 0
	}
	for i, n := range *l {
		if n == name {
			return i + 1
		}
	}
	*l = append(*l, name)
	return len(*l)
}

type NullMusic struct{}

func (NullMusic) NewSoundtrack(name string)             {}
func (NullMusic) UpdateMood(current, fallback int)      {}
func (NullMusic) UpdateVolume(volume, fadeTime float32) {}

type NullInput struct{}

func (NullInput) Sample(cmd *protocol.UserCmd, msec int) {}
