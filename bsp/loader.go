// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"bytes"
	"encoding/binary"

	"gofakk/errs"
	"gofakk/math/vec"
)

type decoder struct {
	name string
	data []byte
	h    header
}

func (d *decoder) lump(l, size int) ([]byte, int, error) {
	lp := d.h.Lumps[l]
	if lp.Offset < 0 || lp.Length < 0 || int64(lp.Offset)+int64(lp.Length) > int64(len(d.data)) {
		return nil, 0, errs.New(errs.BadFormat, "CM_LoadMap: %s lump %d outside file", d.name, l)
	}
	if size > 0 && int(lp.Length)%size != 0 {
		return nil, 0, errs.New(errs.BadFormat, "CM_LoadMap: %s funny lump %d size", d.name, l)
	}
	b := d.data[lp.Offset : lp.Offset+lp.Length]
	if size == 0 {
		return b, len(b), nil
	}
	return b, len(b) / size, nil
}

func records[T any](d *decoder, l int, size int) ([]T, error) {
	b, n, err := d.lump(l, size)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, out); err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, d.name)
	}
	return out, nil
}

func (d *decoder) bad(format string, args ...interface{}) error {
	return errs.New(errs.BadFormat, "CM_LoadMap: "+d.name+": "+format, args...)
}

// Parse decodes the collision lumps of a FAKK BSP.
func Parse(name string, data []byte) (*Map, error) {
	d := &decoder{name: name, data: data}
	if len(data) < headerSize {
		return nil, errs.New(errs.BadFormat, "CM_LoadMap: %s is too short (%d bytes)", name, len(data))
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &d.h); err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, name)
	}
	if d.h.Ident != ident {
		return nil, errs.New(errs.BadFormat, "CM_LoadMap: %s has wrong ident %q", name, d.h.Ident[:])
	}
	if d.h.Version != Version {
		return nil, errs.New(errs.BadFormat, "CM_LoadMap: %s has wrong version number (%d should be %d)", name, d.h.Version, Version)
	}
	m := &Map{Name: name, Checksum: int(d.h.Checksum)}

	shaders, err := records[dShader](d, lumpShaders, dShaderSize)
	if err != nil {
		return nil, err
	}
	if len(shaders) > MaxShaders {
		return nil, errs.New(errs.LimitExceeded, "CM_LoadMap: %s has %d shaders (max %d)", name, len(shaders), MaxShaders)
	}
	for _, s := range shaders {
		m.Shaders = append(m.Shaders, Shader{
			Name:         cString(s.Name[:]),
			SurfaceFlags: int(s.SurfaceFlags),
			Contents:     int(s.ContentFlags),
		})
	}

	planes, err := records[dPlane](d, lumpPlanes, dPlaneSize)
	if err != nil {
		return nil, err
	}
	m.Planes = make([]Plane, len(planes))
	for i, p := range planes {
		m.Planes[i] = NewPlane(vec.Vec3(p.Normal), p.Dist)
	}

	if err := d.brushes(m); err != nil {
		return nil, err
	}
	if err := d.leafs(m); err != nil {
		return nil, err
	}
	if err := d.nodes(m); err != nil {
		return nil, err
	}
	if err := d.models(m); err != nil {
		return nil, err
	}
	if err := d.visibility(m); err != nil {
		return nil, err
	}
	ents, _, err := d.lump(lumpEntities, 0)
	if err != nil {
		return nil, err
	}
	m.Entities = cString(ents)
	return m, nil
}

func (d *decoder) brushes(m *Map) error {
	sides, err := records[dBrushSide](d, lumpBrushSides, dBrushSideSize)
	if err != nil {
		return err
	}
	all := make([]BrushSide, len(sides))
	for i, s := range sides {
		if s.PlaneNum < 0 || int(s.PlaneNum) >= len(m.Planes) {
			return d.bad("brush side %d has bad plane %d", i, s.PlaneNum)
		}
		all[i] = BrushSide{Plane: &m.Planes[s.PlaneNum], ShaderNum: int(s.ShaderNum)}
		if s.ShaderNum >= 0 && int(s.ShaderNum) < len(m.Shaders) {
			all[i].SurfaceFlags = m.Shaders[s.ShaderNum].SurfaceFlags
		}
	}
	brushes, err := records[dBrush](d, lumpBrushes, dBrushSize)
	if err != nil {
		return err
	}
	m.Brushes = make([]Brush, len(brushes))
	for i, b := range brushes {
		if b.FirstSide < 0 || b.NumSides < 0 || int(b.FirstSide+b.NumSides) > len(all) {
			return d.bad("brush %d sides outside lump", i)
		}
		m.Brushes[i].Sides = all[b.FirstSide : b.FirstSide+b.NumSides]
		if b.ShaderNum < 0 || int(b.ShaderNum) >= len(m.Shaders) {
			return d.bad("brush %d has bad shader %d", i, b.ShaderNum)
		}
		m.Brushes[i].Contents = m.Shaders[b.ShaderNum].Contents
	}
	return nil
}

func (d *decoder) leafs(m *Map) error {
	raw, n, err := d.lump(lumpLeafBrushes, 4)
	if err != nil {
		return err
	}
	leafBrushes := make([]int, n)
	for i := range leafBrushes {
		b := int(int32(binary.LittleEndian.Uint32(raw[4*i:])))
		if b < 0 || b >= len(m.Brushes) {
			return d.bad("leaf brush %d references brush %d", i, b)
		}
		leafBrushes[i] = b
	}
	leafs, err := records[dLeaf](d, lumpLeafs, dLeafSize)
	if err != nil {
		return err
	}
	if len(leafs) == 0 {
		m.Leafs = []Leaf{{Cluster: -1}}
		m.NumAreas = 1
		return nil
	}
	m.Leafs = make([]Leaf, len(leafs))
	for i, l := range leafs {
		if l.FirstLeafBrush < 0 || l.NumLeafBrushes < 0 || int(l.FirstLeafBrush+l.NumLeafBrushes) > len(leafBrushes) {
			return d.bad("leaf %d brushes outside lump", i)
		}
		m.Leafs[i] = Leaf{
			Cluster: int(l.Cluster),
			Area:    int(l.Area),
			Brushes: leafBrushes[l.FirstLeafBrush : l.FirstLeafBrush+l.NumLeafBrushes],
		}
		if m.Leafs[i].Cluster >= m.NumClusters {
			m.NumClusters = m.Leafs[i].Cluster + 1
		}
		if m.Leafs[i].Area >= m.NumAreas {
			m.NumAreas = m.Leafs[i].Area + 1
		}
	}
	if m.NumAreas > MaxAreas {
		return errs.New(errs.LimitExceeded, "CM_LoadMap: %s has %d areas (max %d)", d.name, m.NumAreas, MaxAreas)
	}
	return nil
}

func (d *decoder) nodes(m *Map) error {
	nodes, err := records[dNode](d, lumpNodes, dNodeSize)
	if err != nil {
		return err
	}
	m.Nodes = make([]Node, len(nodes))
	for i, n := range nodes {
		if n.PlaneNum < 0 || int(n.PlaneNum) >= len(m.Planes) {
			return d.bad("node %d has bad plane %d", i, n.PlaneNum)
		}
		m.Nodes[i].Plane = &m.Planes[n.PlaneNum]
		for j, c := range n.Children {
			if c >= 0 && int(c) >= len(nodes) || c < 0 && int(-1-c) >= len(m.Leafs) {
				return d.bad("node %d has bad child %d", i, c)
			}
			m.Nodes[i].Children[j] = int(c)
		}
	}
	return nil
}

func (d *decoder) models(m *Map) error {
	models, err := records[dModel](d, lumpModels, dModelSize)
	if err != nil {
		return err
	}
	if len(models) > MaxSubModels {
		return errs.New(errs.LimitExceeded, "CM_LoadMap: %s has %d submodels (max %d)", d.name, len(models), MaxSubModels)
	}
	if len(models) == 0 {
		models = []dModel{{}}
	}
	m.Models = make([]Model, len(models))
	for i, dm := range models {
		if dm.FirstBrush < 0 || dm.NumBrushes < 0 || int(dm.FirstBrush+dm.NumBrushes) > len(m.Brushes) {
			return d.bad("submodel %d brushes outside lump", i)
		}
		mod := Model{Mins: vec.Vec3(dm.Mins), Maxs: vec.Vec3(dm.Maxs)}
		for b := dm.FirstBrush; b < dm.FirstBrush+dm.NumBrushes; b++ {
			mod.Brushes = append(mod.Brushes, int(b))
		}
		m.Models[i] = mod
	}
	return nil
}

func (d *decoder) visibility(m *Map) error {
	b, _, err := d.lump(lumpVisibility, 0)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		m.ClusterBytes = (m.NumClusters + 7) >> 3
		return nil
	}
	if len(b) < dVisSize {
		return d.bad("visibility lump too short")
	}
	var h dVis
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return errs.Wrap(err, errs.BadFormat, d.name)
	}
	size := int64(h.NumClusters) * int64(h.ClusterBytes)
	if h.NumClusters < 0 || h.ClusterBytes < 0 || int64(dVisSize)+size > int64(len(b)) {
		return d.bad("visibility data outside lump")
	}
	if int64(h.ClusterBytes)*8 < int64(h.NumClusters) {
		return d.bad("%d cluster bytes for %d clusters", h.ClusterBytes, h.NumClusters)
	}
	m.NumClusters = int(h.NumClusters)
	m.ClusterBytes = int(h.ClusterBytes)
	m.Vis = append([]byte(nil), b[dVisSize:int64(dVisSize)+size]...)
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
