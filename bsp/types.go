// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"encoding/binary"

	"gofakk/math/vec"
)

const (
	Version        = 12
	MaxSubModels   = 256
	MaxAreas       = 256
	MaxShaders     = 1024
	BoxModelHandle = ClipHandle(255)
)

var ident = [4]byte{'F', 'A', 'K', 'K'}

const (
	lumpShaders = iota
	lumpPlanes
	lumpLightmaps
	lumpSurfaces
	lumpDrawVerts
	lumpDrawIndexes
	lumpLeafBrushes
	lumpLeafSurfaces
	lumpLeafs
	lumpNodes
	lumpBrushSides
	lumpBrushes
	lumpFogs
	lumpModels
	lumpEntities
	lumpVisibility
	lumpLightGrid
	lumpEntLights
	lumpEntLightsVis
	lumpLightDefs
	numLumps
)

const (
	ContentsSolid       = 0x1
	ContentsLava        = 0x8
	ContentsSlime       = 0x10
	ContentsWater       = 0x20
	ContentsFog         = 0x40
	ContentsPlayerClip  = 0x10000
	ContentsMonsterClip = 0x20000
	ContentsWeaponClip  = 0x40000
	ContentsBody        = 0x2000000
	ContentsCorpse      = 0x4000000
	ContentsDetail      = 0x8000000
	ContentsStructural  = 0x10000000
	ContentsTranslucent = 0x20000000
	ContentsTrigger     = 0x40000000
	ContentsNoDrop      = 0x80000000

	MaskSolid       = ContentsSolid
	MaskPlayerSolid = ContentsSolid | ContentsPlayerClip | ContentsBody
	MaskShot        = ContentsSolid | ContentsBody | ContentsCorpse
)

const (
	SurfNoDamage = 1 << iota
	SurfSlick
	SurfSky
	SurfLadder
	SurfNoImpact
	SurfNoMarks
	SurfFlesh
	SurfNoDraw
)

// called lump_t in c
type lump struct {
	Offset int32
	Length int32
}

type header struct {
	Ident    [4]byte
	Version  int32
	Checksum int32
	Lumps    [numLumps]lump
}

type dShader struct {
	Name         [64]byte
	SurfaceFlags int32
	ContentFlags int32
	Subdivisions int32
}

type dPlane struct {
	Normal [3]float32
	Dist   float32
}

// children < 0 are -(leaf+1)
type dNode struct {
	PlaneNum int32
	Children [2]int32
	Mins     [3]int32
	Maxs     [3]int32
}

type dLeaf struct {
	Cluster          int32
	Area             int32
	Mins             [3]int32
	Maxs             [3]int32
	FirstLeafSurface int32
	NumLeafSurfaces  int32
	FirstLeafBrush   int32
	NumLeafBrushes   int32
}

type dBrushSide struct {
	PlaneNum  int32
	ShaderNum int32
}

type dBrush struct {
	FirstSide int32
	NumSides  int32
	ShaderNum int32
}

type dModel struct {
	Mins         [3]float32
	Maxs         [3]float32
	FirstSurface int32
	NumSurfaces  int32
	FirstBrush   int32
	NumBrushes   int32
}

type dVis struct {
	NumClusters  int32
	ClusterBytes int32
}

var (
	headerSize     = binary.Size(header{})
	dShaderSize    = binary.Size(dShader{})
	dPlaneSize     = binary.Size(dPlane{})
	dNodeSize      = binary.Size(dNode{})
	dLeafSize      = binary.Size(dLeaf{})
	dBrushSideSize = binary.Size(dBrushSide{})
	dBrushSize     = binary.Size(dBrush{})
	dModelSize     = binary.Size(dModel{})
	dVisSize       = binary.Size(dVis{})
)

// ClipHandle names a collision model: 0 is the world, 1.. are inline
// models and BoxModelHandle is the temporary box.
type ClipHandle int

type Shader struct {
	Name         string
	SurfaceFlags int
	Contents     int
}

// Plane types 0-2 are axial along x, y and z.
type Plane struct {
	Normal   vec.Vec3
	Dist     float32
	Type     uint8
	SignBits uint8
}

type BrushSide struct {
	Plane        *Plane
	SurfaceFlags int
	ShaderNum    int
}

type Brush struct {
	Sides      []BrushSide
	Contents   int
	checkcount int
}

type Leaf struct {
	Cluster int
	Area    int
	Brushes []int
}

type Node struct {
	Plane    *Plane
	Children [2]int
}

type Model struct {
	Mins    vec.Vec3
	Maxs    vec.Vec3
	Brushes []int
}

type area struct {
	floodNum   int
	floodValid int
}

type Trace struct {
	AllSolid     bool
	StartSolid   bool
	Fraction     float32
	EndPos       vec.Vec3
	Plane        Plane
	SurfaceFlags int
	Contents     int
	EntityNum    int
}

// MarkFragment is a piece of a decal clipped to world surfaces.
type MarkFragment struct {
	FirstPoint int
	NumPoints  int
}
