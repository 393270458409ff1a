// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"encoding/binary"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/zone"
)

type memFS map[string][]byte

func (m memFS) ReadFileBytes(name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, errs.New(errs.NotFound, "%s not found", name)
	}
	return b, nil
}

const testEntities = `{
"classname" "worldspawn"
"message" "test room"
}
{
"classname" "func_door"
"model" "*1"
}
`

// testMap is a closed room split at x=0 into two leafs, clusters and areas,
// plus a block and a diagonal wedge as inline models.
func testMap() []byte {
	var b Builder
	b.Checksum = 1234
	wall := b.Shader("textures/wall", SurfNoMarks, ContentsSolid)
	walls := b.Room(vec.Vec3{-64, -64, -64}, vec.Vec3{64, 64, 64}, 16, wall)
	b.BoxBrush(vec.Vec3{20, -5, -5}, vec.Vec3{30, 5, 5}, wall)

	s := math32.Sqrt(0.5)
	b.Brush(wall,
		b.Plane(vec.Vec3{-s, -s, 0}, -100*s),
		b.Plane(vec.Vec3{1, 0, 0}, 200),
		b.Plane(vec.Vec3{0, 1, 0}, 200),
		b.Plane(vec.Vec3{0, 0, 1}, 50),
		b.Plane(vec.Vec3{0, 0, -1}, 50),
	)

	split := b.Plane(vec.Vec3{1, 0, 0}, 0)
	front := b.Leaf(0, 0, walls...)
	back := b.Leaf(1, 1, walls...)
	b.Node(split, LeafChild(front), LeafChild(back))
	b.Model(vec.Vec3{-80, -80, -80}, vec.Vec3{80, 80, 80}, 0, len(walls))
	b.Model(vec.Vec3{20, -5, -5}, vec.Vec3{30, 5, 5}, len(walls), 1)
	b.Model(vec.Vec3{-100, -100, -50}, vec.Vec3{200, 200, 50}, len(walls)+1, 1)
	b.Vis([][]int{{0, 1}, {1}})
	b.Entities(testEntities)
	return b.Bytes()
}

func loadTestWorld(t *testing.T) *World {
	w := NewWorld()
	require.NoError(t, w.LoadMap(memFS{"maps/test.bsp": testMap()}, "maps/test.bsp"))
	return w
}

func TestLoadMap(t *testing.T) {
	w := loadTestWorld(t)
	m := w.Map()
	assert.Equal(t, "maps/test.bsp", w.Name())
	assert.Equal(t, 1234, w.Checksum())
	assert.Len(t, m.Brushes, 8)
	assert.Len(t, m.Leafs, 2)
	assert.Equal(t, 3, w.NumInlineModels())
	assert.Equal(t, 2, m.NumClusters)
	assert.Equal(t, 2, w.NumAreas())
	assert.Equal(t, "textures/wall", m.Shaders[0].Name)
	assert.Equal(t, SurfNoMarks, m.Brushes[0].Sides[0].SurfaceFlags)
	assert.Equal(t, testEntities, w.EntityString())

	// the same name again keeps the loaded map
	require.NoError(t, w.LoadMap(memFS{}, "MAPS/test.bsp"))
	assert.Same(t, m, w.Map())

	require.NoError(t, w.LoadMap(memFS{}, ""))
	assert.False(t, w.Loaded())
	assert.Equal(t, "", w.EntityString())

	err := w.LoadMap(memFS{}, "maps/none.bsp")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestLoadMapOnHunk(t *testing.T) {
	h := zone.NewHunk(1024)
	w := NewWorld()
	w.SetHunk(h)
	require.NoError(t, w.LoadMap(memFS{"maps/test.bsp": testMap()}, "maps/test.bsp"))
	m := w.Map()
	assert.Equal(t, m.NumClusters*m.ClusterBytes, h.Used())
	assert.Equal(t, []byte{0x3}, w.ClusterPVS(0))
	assert.Equal(t, []byte{0x2}, w.ClusterPVS(1))

	w.ClearMap()
	h.Clear()
	require.NoError(t, w.LoadMap(memFS{"maps/test.bsp": testMap()}, "maps/test.bsp"))
	assert.Equal(t, 2, h.Used())
}

func TestBadMaps(t *testing.T) {
	good := testMap()
	corrupt := func(f func([]byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"short", good[:20]},
		{"ident", corrupt(func(b []byte) { b[0] = 'I' })},
		{"version", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[4:], 46) })},
		// planes lump length
		{"lump", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[12+8+4:], 1<<20) })},
		{"funny", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[12+8+4:], 3) })},
	} {
		_, err := Parse(tc.name, tc.data)
		assert.True(t, errs.Is(err, errs.BadFormat), "%s: %v", tc.name, err)
	}
}

func TestParseEntities(t *testing.T) {
	es, err := ParseEntities(testEntities)
	require.NoError(t, err)
	require.Len(t, es, 2)
	n, ok := es[0].Name()
	assert.True(t, ok)
	assert.Equal(t, "worldspawn", n)
	v, _ := es[1].Property("model")
	assert.Equal(t, "*1", v)
	assert.Equal(t, []string{"classname", "message"}, es[0].PropertyNames())

	_, err = ParseEntities(`{ "classname" "x" `)
	assert.True(t, errs.Is(err, errs.BadFormat))
	_, err = ParseEntities(`"classname" "x"`)
	assert.True(t, errs.Is(err, errs.BadFormat))
}

func TestLeafs(t *testing.T) {
	w := loadTestWorld(t)
	assert.Equal(t, 0, w.PointLeafnum(vec.Vec3{10, 0, 0}))
	assert.Equal(t, 1, w.PointLeafnum(vec.Vec3{-10, 0, 0}))
	assert.Equal(t, 1, w.LeafCluster(1))
	assert.Equal(t, 1, w.LeafArea(1))
	assert.Equal(t, -1, w.LeafCluster(9))
	assert.Equal(t, []int{0, 1}, w.BoxLeafnums(vec.Vec3{-4, -4, -4}, vec.Vec3{4, 4, 4}, 8))
	assert.Equal(t, []int{0}, w.BoxLeafnums(vec.Vec3{4, -4, -4}, vec.Vec3{8, 4, 4}, 8))
	assert.Equal(t, []int{0}, w.BoxLeafnums(vec.Vec3{-4, -4, -4}, vec.Vec3{4, 4, 4}, 1))
}

func TestPointContents(t *testing.T) {
	w := loadTestWorld(t)
	for _, tc := range []struct {
		p     vec.Vec3
		model ClipHandle
		want  int
	}{
		{vec.Vec3{0, 0, 0}, 0, 0},
		{vec.Vec3{0, 0, 70}, 0, ContentsSolid},
		{vec.Vec3{-70, 10, 0}, 0, ContentsSolid},
		{vec.Vec3{25, 0, 0}, 0, 0},
		{vec.Vec3{25, 0, 0}, 1, ContentsSolid},
		{vec.Vec3{0, 0, 0}, 1, 0},
	} {
		assert.Equal(t, tc.want, w.PointContents(tc.p, tc.model), "%v in %d", tc.p, tc.model)
	}
	assert.Equal(t, ContentsSolid, w.TransformedPointContents(vec.Vec3{0, 25, 0}, 1, vec.Vec3{}, vec.Vec3{0, 90, 0}))
	assert.Equal(t, 0, w.TransformedPointContents(vec.Vec3{25, 0, 0}, 1, vec.Vec3{}, vec.Vec3{0, 90, 0}))
	assert.Equal(t, ContentsSolid, w.TransformedPointContents(vec.Vec3{125, 0, 0}, 1, vec.Vec3{100, 0, 0}, vec.Vec3{}))

	h := w.TempBoxModel(vec.Vec3{-1, -1, -1}, vec.Vec3{1, 1, 1}, ContentsBody)
	assert.Equal(t, BoxModelHandle, h)
	assert.Equal(t, ContentsBody, w.PointContents(vec.Vec3{0.5, 0, 1}, h))
	assert.Equal(t, 0, w.PointContents(vec.Vec3{1.5, 0, 0}, h))
}

func TestInlineModel(t *testing.T) {
	w := loadTestWorld(t)
	h, err := w.InlineModel(1)
	require.NoError(t, err)
	mins, maxs := w.ModelBounds(h)
	assert.Equal(t, vec.Vec3{20, -5, -5}, mins)
	assert.Equal(t, vec.Vec3{30, 5, 5}, maxs)
	_, err = w.InlineModel(3)
	assert.Equal(t, errs.Drop, errs.CodeOf(err))
	assert.Panics(t, func() { w.PointContents(vec.Vec3{}, 7) })
}

func assertTraceInvariant(t *testing.T, tr Trace, start, end vec.Vec3) {
	t.Helper()
	assert.GreaterOrEqual(t, tr.Fraction, float32(0))
	assert.LessOrEqual(t, tr.Fraction, float32(1))
	want := vec.Add(start, vec.Sub(end, start).Scale(tr.Fraction))
	assert.True(t, vec.Near(want, tr.EndPos, 1e-3), "endpos %v want %v", tr.EndPos, want)
}

func TestBoxTrace(t *testing.T) {
	w := loadTestWorld(t)
	box := vec.Vec3{16, 16, 16}
	for _, tc := range []struct {
		name       string
		start, end vec.Vec3
		mins, maxs vec.Vec3
		model      ClipHandle
		fraction   float32
		normal     vec.Vec3
	}{
		{"point", vec.Vec3{0, 0, 0}, vec.Vec3{100, 0, 0}, vec.Vec3{}, vec.Vec3{}, 0, (64 - surfaceClipEpsilon) / 100, vec.Vec3{-1, 0, 0}},
		{"box", vec.Vec3{0, 0, 0}, vec.Vec3{100, 0, 0}, box.Neg(), box, 0, (48 - surfaceClipEpsilon) / 100, vec.Vec3{-1, 0, 0}},
		{"offcenter", vec.Vec3{0, 0, 0}, vec.Vec3{0, 0, -100}, vec.Vec3{-16, -16, -24}, vec.Vec3{16, 16, 32}, 0, (40 - surfaceClipEpsilon) / 100, vec.Vec3{0, 0, 1}},
		{"back leaf", vec.Vec3{-10, 0, 0}, vec.Vec3{-100, 0, 0}, vec.Vec3{}, vec.Vec3{}, 0, (54 - surfaceClipEpsilon) / 90, vec.Vec3{1, 0, 0}},
		{"open", vec.Vec3{-30, 0, 0}, vec.Vec3{30, 10, 10}, vec.Vec3{}, vec.Vec3{}, 0, 1, vec.Vec3{}},
		{"inline", vec.Vec3{0, 0, 0}, vec.Vec3{100, 0, 0}, vec.Vec3{}, vec.Vec3{}, 1, (20 - surfaceClipEpsilon) / 100, vec.Vec3{-1, 0, 0}},
	} {
		tr := w.BoxTrace(tc.start, tc.end, tc.mins, tc.maxs, tc.model, MaskSolid, false)
		assert.InDelta(t, tc.fraction, tr.Fraction, 1e-4, tc.name)
		assert.False(t, tr.StartSolid, tc.name)
		assertTraceInvariant(t, tr, tc.start, tc.end)
		if tc.fraction < 1 {
			assert.Equal(t, tc.normal, tr.Plane.Normal, tc.name)
			assert.Equal(t, ContentsSolid, tr.Contents, tc.name)
			assert.Equal(t, SurfNoMarks, tr.SurfaceFlags, tc.name)
		}
		assert.Equal(t, -1, tr.EntityNum)
	}

	// masked out brushes are ignored
	tr := w.BoxTrace(vec.Vec3{}, vec.Vec3{100, 0, 0}, vec.Vec3{}, vec.Vec3{}, 0, ContentsWater, false)
	assert.Equal(t, float32(1), tr.Fraction)
}

func TestTraceSolid(t *testing.T) {
	w := loadTestWorld(t)
	tr := w.BoxTrace(vec.Vec3{0, 0, 70}, vec.Vec3{0, 0, 0}, vec.Vec3{}, vec.Vec3{}, 0, MaskSolid, false)
	assert.True(t, tr.StartSolid)
	assert.False(t, tr.AllSolid)

	p := vec.Vec3{0, 0, 70}
	tr = w.BoxTrace(p, p, vec.Vec3{}, vec.Vec3{}, 0, MaskSolid, false)
	assert.True(t, tr.AllSolid)
	assert.Equal(t, float32(0), tr.Fraction)
	assert.Equal(t, p, tr.EndPos)

	tr = w.BoxTrace(vec.Vec3{}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{}, 0, MaskSolid, false)
	assert.False(t, tr.StartSolid)
	assert.Equal(t, float32(1), tr.Fraction)
}

func TestTraceFractionRange(t *testing.T) {
	w := loadTestWorld(t)
	points := []vec.Vec3{
		{0, 0, 0}, {100, 0, 0}, {-100, 50, 3}, {63, 63, 63}, {25, 0, 0},
		{-70, -70, -70}, {0, 0, 70}, {12.5, -3, 40}, {200, 200, 0}, {-1, 1, -1},
	}
	sizes := [][2]vec.Vec3{
		{},
		{{-16, -16, -24}, {16, 16, 32}},
		{{-1, -1, -1}, {1, 1, 1}},
	}
	for _, s := range points {
		for _, e := range points {
			for _, sz := range sizes {
				for _, cyl := range []bool{false, true} {
					tr := w.BoxTrace(s, e, sz[0], sz[1], 0, MaskSolid, cyl)
					assertTraceInvariant(t, tr, s, e)
				}
			}
		}
	}
}

func TestCylinderTrace(t *testing.T) {
	w := loadTestWorld(t)
	box := vec.Vec3{16, 16, 16}
	start, end := vec.Vec3{}, vec.Vec3{100, 100, 0}
	b := w.BoxTrace(start, end, box.Neg(), box, 2, MaskSolid, false)
	c := w.BoxTrace(start, end, box.Neg(), box, 2, MaskSolid, true)
	// the corner of the box reaches the slanted face earlier than the
	// cylinder does
	assert.InDelta(t, 0.3398, b.Fraction, 1e-3)
	assert.InDelta(t, 0.3868, c.Fraction, 1e-3)
	s := math32.Sqrt(0.5)
	assert.True(t, vec.Near(vec.Vec3{-s, -s, 0}, c.Plane.Normal, 1e-6))
}

func TestTransformedBoxTrace(t *testing.T) {
	w := loadTestWorld(t)
	tr := w.TransformedBoxTrace(vec.Vec3{}, vec.Vec3{0, 100, 0}, vec.Vec3{}, vec.Vec3{}, 1, MaskSolid, vec.Vec3{}, vec.Vec3{0, 90, 0}, false)
	assert.InDelta(t, (20-surfaceClipEpsilon)/100, tr.Fraction, 1e-4)
	assert.True(t, vec.Near(vec.Vec3{0, -1, 0}, tr.Plane.Normal, 1e-5), "%v", tr.Plane.Normal)
	assert.InDelta(t, -20, tr.Plane.Dist, 1e-3)
	assertTraceInvariant(t, tr, vec.Vec3{}, vec.Vec3{0, 100, 0})

	// a small box entity at (10, 0, 0)
	h := w.TempBoxModel(vec.Vec3{-1, -1, -1}, vec.Vec3{1, 1, 1}, ContentsSolid)
	start, end := vec.Vec3{-5, 0, 0}, vec.Vec3{20, 0, 0}
	tr = w.TransformedBoxTrace(start, end, vec.Vec3{}, vec.Vec3{}, h, MaskSolid, vec.Vec3{10, 0, 0}, vec.Vec3{0, 45, 0}, false)
	assert.InDelta(t, (14-surfaceClipEpsilon)/25, tr.Fraction, 1e-4)
	assert.Equal(t, vec.Vec3{-1, 0, 0}, tr.Plane.Normal)
	assert.InDelta(t, -9, tr.Plane.Dist, 1e-4)
	assertTraceInvariant(t, tr, start, end)
}

func TestPVS(t *testing.T) {
	w := loadTestWorld(t)
	front, back := vec.Vec3{10, 0, 0}, vec.Vec3{-10, 0, 0}
	assert.True(t, w.InPVSIgnorePortals(front, back))
	assert.False(t, w.InPVSIgnorePortals(back, front))
	assert.False(t, w.InPVS(front, back))
	assert.True(t, w.InPVS(front, vec.Vec3{20, 20, 0}))

	buf := make([]byte, 4)
	assert.Equal(t, 1, w.WriteAreaBits(0, buf))
	assert.Equal(t, byte(0x01), buf[0])

	w.AdjustAreaPortalState(0, 1, true)
	w.AdjustAreaPortalState(0, 1, true)
	assert.True(t, w.InPVS(front, back))
	w.AdjustAreaPortalState(0, 1, false)
	assert.True(t, w.AreasConnected(1, 0))
	w.WriteAreaBits(1, buf)
	assert.Equal(t, byte(0x03), buf[0])
	w.AdjustAreaPortalState(0, 1, false)
	assert.False(t, w.AreasConnected(0, 1))
	assert.False(t, w.AreasConnected(-1, 0))

	w.WriteAreaBits(-1, buf)
	assert.Equal(t, byte(0x03), buf[0])

	defer func() {
		e := errs.Recover(recover())
		require.NotNil(t, e)
		assert.Equal(t, errs.Drop, e.Code)
	}()
	w.AdjustAreaPortalState(0, 1, false)
}

func TestNoVis(t *testing.T) {
	var b Builder
	wall := b.Shader("textures/wall", 0, ContentsSolid)
	walls := b.Room(vec.Vec3{-64, -64, -64}, vec.Vec3{64, 64, 64}, 8, wall)
	b.Leaf(0, 0, walls...)
	w := NewWorld()
	require.NoError(t, w.LoadMap(memFS{"maps/novis.bsp": b.Bytes()}, "maps/novis.bsp"))
	assert.True(t, w.InPVS(vec.Vec3{}, vec.Vec3{1000, 0, 0}))
	assert.Equal(t, 1, w.NumInlineModels())
	assert.Equal(t, 0, w.PointLeafnum(vec.Vec3{}))
	tr := w.BoxTrace(vec.Vec3{}, vec.Vec3{0, 0, 100}, vec.Vec3{}, vec.Vec3{}, 0, MaskSolid, false)
	assert.InDelta(t, (64-surfaceClipEpsilon)/100, tr.Fraction, 1e-4)
	points, frags := w.MarkFragments([]vec.Vec3{{0, 0, 0}}, vec.Vec3{0, 0, -1}, 10, 10)
	assert.Empty(t, points)
	assert.Empty(t, frags)
}
