// SPDX-License-Identifier: GPL-2.0-or-later

// Package cgame defines the contract between the client and the client game
// module.
package cgame

import (
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/tiki"
)

const APIVersion = 3

type StereoFrame int

const (
	StereoCenter StereoFrame = iota
	StereoLeft
	StereoRight
)

// Render entity flags.
const (
	RFMinLight       = 0x0001
	RFThirdPerson    = 0x0002
	RFFirstPerson    = 0x0004
	RFDepthHack      = 0x0008
	RFNoShadow       = 0x0040
	RFLightingOrigin = 0x0080
	RFShadowPlane    = 0x0100
	RFWrapFrames     = 0x0200
	RFAdditiveDLight = 0x0400
	RFSkyEntity      = 0x0800
	RFFullbright     = 0x1000
)

// RefEntity is an entity handed to the renderer.
type RefEntity struct {
	Model int

	LightingOrigin vec.Vec3
	ShadowPlane    float32

	Axis              vec.Axis
	NonNormalizedAxes bool

	Origin vec.Vec3
	Frame  int

	OldOrigin vec.Vec3
	OldFrame  int
	BackLerp  float32

	SkinNum      int
	CustomSkin   int
	CustomShader int

	ShaderRGBA     [4]byte
	ShaderTexCoord [2]float32
	ShaderTime     float32

	RenderFX int

	Scale      float32
	ShaderData [2]float32
	FrameInfo  [protocol.MaxFrameInfo]protocol.FrameInfo
	BoneTag    [protocol.MaxBoneControls]int
	BoneAngles [protocol.MaxBoneControls]vec.Vec3
	Surfaces   [protocol.MaxSurfaces]byte
	TIKI       tiki.Handle
}

type RefDef struct {
	X, Y, Width, Height int
	FOVX, FOVY          float32

	ViewOrigin vec.Vec3
	ViewAxis   vec.Axis

	Time    int
	RDFlags int

	AreaMask         [protocol.MaxMapAreaBytes]byte
	AreaMaskModified bool

	Blend [4]float32

	SkyAlpha  float32
	SkyOrigin vec.Vec3
	SkyAxis   vec.Axis
}

type PolyVert struct {
	XYZ      vec.Vec3
	ST       [2]float32
	Modulate [4]byte
}

// RendererConfig describes the display the renderer runs on.
type RendererConfig struct {
	RendererString string
	VendorString   string
	VersionString  string

	MaxTextureSize int
	ColorBits      int
	DepthBits      int
	StencilBits    int

	VidWidth     int
	VidHeight    int
	WindowAspect float32
	Fullscreen   bool
}
