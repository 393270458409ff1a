// SPDX-License-Identifier: GPL-2.0-or-later

// Package tiki loads TIKI model descriptors together with the skeletons and
// animations they reference and answers queries about them by handle.
package tiki

import (
	"gofakk/math/vec"
)

const (
	MaxCmdArgs      = 10
	MaxDefines      = 64
	MaxIncludeDepth = 8
	MaxAnims        = 512
	MaxSurfaces     = 32
	MaxInitCmds     = 256
	MaxFrameCmds    = 64
	MaxBones        = 128
	MaxModels       = 512

	DefaultBlendTime = 200
)

// Special frame numbers of a frame command.
const (
	FrameEvery = -1
	FrameExit  = -2
	FrameEntry = -3
	FrameLast  = -4
)

// Animation flags.
const (
	AnimDeltaDriven   = 1 << 0
	AnimDefaultAngles = 1 << 3
)

// Surface flags.
const (
	SurfaceSkinOffset0 = 1 << 0
	SurfaceSkinOffset1 = 1 << 1
	SurfaceNoDraw      = 1 << 2
	SurfaceTypeShift   = 3
	SurfaceTypeMask    = 7 << SurfaceTypeShift
	SurfaceCrossfade   = 1 << 6
	SurfaceNoDamage    = 1 << 7
	SurfaceNoMipmaps   = 1 << 8
	SurfaceNoPicmip    = 1 << 9
)

var surfaceFlagNames = map[string]int{
	"skinoffset0": SurfaceSkinOffset0,
	"skinoffset1": SurfaceSkinOffset1,
	"nodraw":      SurfaceNoDraw,
	"crossfade":   SurfaceCrossfade,
	"nodamage":    SurfaceNoDamage,
	"nomipmaps":   SurfaceNoMipmaps,
	"nopicmip":    SurfaceNoPicmip,
}

// Side selects the server or the client command lists.
type Side int

const (
	Server Side = iota
	Client
)

func (s Side) String() string {
	if s == Client {
		return "client"
	}
	return "server"
}

// Command is one init command. Args[0] is the command name.
type Command struct {
	Args []string
}

// FrameCommand is a command bound to a frame number or one of the Frame*
// sentinels.
type FrameCommand struct {
	Frame int
	Args  []string
}

type Surface struct {
	Name string
	// Shaders holds one shader per skin.
	Shaders []string
	Flags   int
}

type Anim struct {
	Alias     string
	Filename  string
	Weight    float32
	BlendTime int
	Flags     int
	Server    []FrameCommand
	Client    []FrameCommand
}

func (a *Anim) commands(s Side) []FrameCommand {
	if s == Client {
		return a.Client
	}
	return a.Server
}

// Model is a parsed descriptor. It is not changed after registration.
type Model struct {
	Name        string
	Path        string
	SkelModel   string
	Scale       float32
	LodScale    float32
	LodBias     float32
	Radius      float32
	LightOffset vec.Vec3
	LoadOrigin  vec.Vec3
	Surfaces    []Surface
	Anims       []Anim
	ServerInit  []Command
	ClientInit  []Command
	IsCharacter bool
}

func newModel(name string) *Model {
	return &Model{
		Name:     name,
		Scale:    1,
		LodScale: 1,
	}
}

func (m *Model) initCommands(s Side) []Command {
	if s == Client {
		return m.ClientInit
	}
	return m.ServerInit
}

// Orientation is the placement of a tag relative to the model origin.
type Orientation struct {
	Origin vec.Vec3
	Axis   vec.Axis
}
