// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"strings"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/zone"
)

// Map is the collision relevant part of a loaded BSP.
type Map struct {
	Name         string
	Checksum     int
	Shaders      []Shader
	Planes       []Plane
	Nodes        []Node
	Leafs        []Leaf
	Brushes      []Brush
	Models       []Model
	NumClusters  int
	ClusterBytes int
	// Vis holds NumClusters uncompressed rows of ClusterBytes.
	Vis      []byte
	NumAreas int
	Entities string
}

type boxModel struct {
	model  Model
	planes [6]Plane
	brush  Brush
}

// World is the collision service shared by the server and the client.
type World struct {
	m          *Map
	areas      []area
	portals    []int
	floodValid int
	checkcount int
	box        boxModel
	hunk       *zone.Hunk
}

func NewWorld() *World {
	return &World{}
}

// Loader is the part of the filesystem the collision map needs.
type Loader interface {
	ReadFileBytes(name string) ([]byte, error)
}

// LoadMap loads the collision data of name. Loading the current map again
// does nothing, an empty name clears the map.
func (w *World) LoadMap(load Loader, name string) error {
	if name == "" {
		w.ClearMap()
		return nil
	}
	if w.m != nil && strings.EqualFold(w.m.Name, name) {
		return nil
	}
	w.ClearMap()
	data, err := load.ReadFileBytes(name)
	if err != nil {
		return err
	}
	m, err := Parse(name, data)
	if err != nil {
		return err
	}
	if w.hunk != nil && len(m.Vis) > 0 {
		vis := w.hunk.Alloc(len(m.Vis))
		copy(vis, m.Vis)
		m.Vis = vis
	}
	w.SetMap(m)
	conlog.Printf("CM_LoadMap: %s, %d planes, %d brushes, %d nodes, %d leafs, %d submodels\n",
		name, len(m.Planes), len(m.Brushes), len(m.Nodes), len(m.Leafs), len(m.Models))
	return nil
}

// SetHunk makes LoadMap keep the visibility rows on h. The owner clears h
// when the level goes away.
func (w *World) SetHunk(h *zone.Hunk) {
	w.hunk = h
}

// SetMap installs an already decoded map.
func (w *World) SetMap(m *Map) {
	w.m = m
	w.areas = make([]area, m.NumAreas)
	w.portals = make([]int, m.NumAreas*m.NumAreas)
	w.floodAreaConnections()
}

func (w *World) ClearMap() {
	w.m = nil
	w.areas = nil
	w.portals = nil
}

func (w *World) Loaded() bool {
	return w.m != nil
}

func (w *World) Map() *Map {
	return w.m
}

func (w *World) Name() string {
	if w.m == nil {
		return ""
	}
	return w.m.Name
}

func (w *World) Checksum() int {
	if w.m == nil {
		return 0
	}
	return w.m.Checksum
}

func (w *World) EntityString() string {
	if w.m == nil {
		return ""
	}
	return w.m.Entities
}

func (w *World) NumInlineModels() int {
	if w.m == nil {
		return 0
	}
	return len(w.m.Models)
}

// InlineModel returns the clip handle of inline model i.
func (w *World) InlineModel(i int) (ClipHandle, error) {
	if i < 0 || i >= w.NumInlineModels() {
		return 0, errs.Com(errs.Drop, errs.New(errs.NotFound, "CM_InlineModel: bad number %d", i))
	}
	return ClipHandle(i), nil
}

// ModelBounds returns the bounds of a clip model.
func (w *World) ModelBounds(h ClipHandle) (vec.Vec3, vec.Vec3) {
	if h == BoxModelHandle {
		return w.box.model.Mins, w.box.model.Maxs
	}
	if int(h) < 0 || int(h) >= w.NumInlineModels() {
		errs.Raise(errs.Drop, errs.NotFound, "CM_ModelBounds: bad handle %d", h)
	}
	m := &w.m.Models[h]
	return m.Mins, m.Maxs
}

// TempBoxModel sets up the box brush used to clip against entities without
// a BSP model. The box is replaced by the next call.
func (w *World) TempBoxModel(mins, maxs vec.Vec3, contents int) ClipHandle {
	b := &w.box
	b.model.Mins = mins
	b.model.Maxs = maxs
	b.brush.Contents = contents
	b.brush.Sides = b.brush.Sides[:0]
	for i := 0; i < 6; i++ {
		axis := i >> 1
		var n vec.Vec3
		var d float32
		if i&1 == 0 {
			n[axis] = 1
			d = maxs[axis]
		} else {
			n[axis] = -1
			d = -mins[axis]
		}
		b.planes[i] = NewPlane(n, d)
		b.brush.Sides = append(b.brush.Sides, BrushSide{Plane: &b.planes[i]})
	}
	return BoxModelHandle
}

// brushes returns the brush list to test for a model handle other than the
// world and the box.
func (w *World) brushes(h ClipHandle) []int {
	if int(h) <= 0 || int(h) >= w.NumInlineModels() {
		errs.Raise(errs.Drop, errs.NotFound, "CM_ClipHandleToModel: bad handle %d", h)
	}
	return w.m.Models[h].Brushes
}

// MarkFragments clips a decal polygon to world surfaces. Surfaces are not
// loaded by the collision map, so it never produces fragments.
func (w *World) MarkFragments(points []vec.Vec3, projection vec.Vec3, maxPoints, maxFragments int) ([]vec.Vec3, []MarkFragment) {
	return nil, nil
}
