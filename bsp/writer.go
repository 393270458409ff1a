// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"bytes"
	"encoding/binary"

	"gofakk/math/vec"
)

// Builder assembles a FAKK BSP holding the collision lumps. Tools and tests
// use it to produce maps without a map compiler.
type Builder struct {
	Checksum    int
	shaders     []dShader
	planes      []dPlane
	nodes       []dNode
	leafs       []dLeaf
	leafBrushes []int32
	sides       []dBrushSide
	brushes     []dBrush
	models      []dModel
	vis         []byte
	entities    string
}

// LeafChild encodes leaf l as a node child.
func LeafChild(l int) int {
	return -1 - l
}

func (b *Builder) Shader(name string, surfaceFlags, contents int) int {
	var s dShader
	copy(s.Name[:], name)
	s.SurfaceFlags = int32(surfaceFlags)
	s.ContentFlags = int32(contents)
	b.shaders = append(b.shaders, s)
	return len(b.shaders) - 1
}

func (b *Builder) Plane(normal vec.Vec3, dist float32) int {
	b.planes = append(b.planes, dPlane{Normal: normal, Dist: dist})
	return len(b.planes) - 1
}

// Brush adds a brush bounded by the given planes.
func (b *Builder) Brush(shader int, planes ...int) int {
	b.brushes = append(b.brushes, dBrush{
		FirstSide: int32(len(b.sides)),
		NumSides:  int32(len(planes)),
		ShaderNum: int32(shader),
	})
	for _, p := range planes {
		b.sides = append(b.sides, dBrushSide{PlaneNum: int32(p), ShaderNum: int32(shader)})
	}
	return len(b.brushes) - 1
}

// BoxBrush adds an axial box brush.
func (b *Builder) BoxBrush(mins, maxs vec.Vec3, shader int) int {
	var planes []int
	for axis := 0; axis < 3; axis++ {
		var n vec.Vec3
		n[axis] = 1
		planes = append(planes, b.Plane(n, maxs[axis]))
		n[axis] = -1
		planes = append(planes, b.Plane(n, -mins[axis]))
	}
	return b.Brush(shader, planes...)
}

// Room adds six walls of the given thickness enclosing mins..maxs and
// returns their brush numbers.
func (b *Builder) Room(mins, maxs vec.Vec3, thickness float32, shader int) []int {
	var walls []int
	for axis := 0; axis < 3; axis++ {
		lo, hi := vec.Sub(mins, vec.Vec3{thickness, thickness, thickness}), vec.Add(maxs, vec.Vec3{thickness, thickness, thickness})
		wmax := hi
		wmax[axis] = mins[axis]
		walls = append(walls, b.BoxBrush(lo, wmax, shader))
		wmin := lo
		wmin[axis] = maxs[axis]
		walls = append(walls, b.BoxBrush(wmin, hi, shader))
	}
	return walls
}

// Node adds a node. Children are node numbers or LeafChild values.
func (b *Builder) Node(plane, front, back int) int {
	b.nodes = append(b.nodes, dNode{PlaneNum: int32(plane), Children: [2]int32{int32(front), int32(back)}})
	return len(b.nodes) - 1
}

func (b *Builder) Leaf(cluster, area int, brushes ...int) int {
	b.leafs = append(b.leafs, dLeaf{
		Cluster:        int32(cluster),
		Area:           int32(area),
		FirstLeafBrush: int32(len(b.leafBrushes)),
		NumLeafBrushes: int32(len(brushes)),
	})
	for _, br := range brushes {
		b.leafBrushes = append(b.leafBrushes, int32(br))
	}
	return len(b.leafs) - 1
}

// Model adds an inline model owning brushes first..first+num-1.
func (b *Builder) Model(mins, maxs vec.Vec3, first, num int) int {
	b.models = append(b.models, dModel{
		Mins:       mins,
		Maxs:       maxs,
		FirstBrush: int32(first),
		NumBrushes: int32(num),
	})
	return len(b.models) - 1
}

// Vis sets the cluster visibility. rows[i] lists the clusters cluster i
// sees.
func (b *Builder) Vis(rows [][]int) {
	n := len(rows)
	cb := (n + 7) >> 3
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &dVis{NumClusters: int32(n), ClusterBytes: int32(cb)})
	for _, r := range rows {
		row := make([]byte, cb)
		for _, c := range r {
			row[c>>3] |= 1 << (c & 7)
		}
		buf.Write(row)
	}
	b.vis = buf.Bytes()
}

func (b *Builder) Entities(s string) {
	b.entities = s
}

// Bytes encodes the map.
func (b *Builder) Bytes() []byte {
	var body bytes.Buffer
	h := header{Ident: ident, Version: Version, Checksum: int32(b.Checksum)}
	put := func(l int, data interface{}) {
		var lb bytes.Buffer
		switch d := data.(type) {
		case []byte:
			lb.Write(d)
		default:
			binary.Write(&lb, binary.LittleEndian, d)
		}
		h.Lumps[l] = lump{Offset: int32(headerSize + body.Len()), Length: int32(lb.Len())}
		body.Write(lb.Bytes())
	}
	put(lumpShaders, b.shaders)
	put(lumpPlanes, b.planes)
	put(lumpLeafBrushes, b.leafBrushes)
	put(lumpLeafs, b.leafs)
	put(lumpNodes, b.nodes)
	put(lumpBrushSides, b.sides)
	put(lumpBrushes, b.brushes)
	put(lumpModels, b.models)
	put(lumpVisibility, b.vis)
	ents := []byte(b.entities)
	if len(ents) > 0 {
		ents = append(ents, 0)
	}
	put(lumpEntities, ents)
	for l := range h.Lumps {
		if h.Lumps[l] == (lump{}) {
			h.Lumps[l].Offset = int32(headerSize)
		}
	}
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, &h)
	out.Write(body.Bytes())
	return out.Bytes()
}
