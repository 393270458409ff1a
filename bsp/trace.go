// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/chewxy/math32"

	"gofakk/math/vec"
)

// keep the crosspoint 1/32 units on the near side
const surfaceClipEpsilon = 0.03125

type traceWork struct {
	start    vec.Vec3
	end      vec.Vec3
	size     [2]vec.Vec3 // mins and maxs, symmetric around the origin
	offsets  [8]vec.Vec3 // corner of the box for each plane signbits
	extents  vec.Vec3
	isPoint  bool
	cylinder bool
	radius   float32
	mask     int
	trace    Trace
}

func newTraceWork(start, end, mins, maxs vec.Vec3, mask int, cylinder bool) *traceWork {
	tw := &traceWork{
		mask:     mask,
		cylinder: cylinder,
		trace:    Trace{Fraction: 1, EntityNum: -1},
	}
	// shift the box so it is symmetric around the traced point
	offset := vec.Add(mins, maxs).Scale(0.5)
	tw.size[0] = vec.Sub(mins, offset)
	tw.size[1] = vec.Sub(maxs, offset)
	tw.start = vec.Add(start, offset)
	tw.end = vec.Add(end, offset)
	for i := range tw.offsets {
		for j := 0; j < 3; j++ {
			tw.offsets[i][j] = tw.size[(i>>j)&1][j]
		}
	}
	tw.extents = tw.size[1]
	tw.isPoint = tw.extents.IsZero()
	tw.radius = tw.extents[0]
	if tw.extents[1] > tw.radius {
		tw.radius = tw.extents[1]
	}
	return tw
}

// planeDist moves the plane out by the part of the box that reaches it
// first. A cylinder reaches non-axial planes with its horizontal radius.
func (tw *traceWork) planeDist(p *Plane) float32 {
	if tw.cylinder && p.Type == planeNonAxial {
		h := math32.Sqrt(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1])
		z := tw.size[0][2]
		if p.Normal[2] < 0 {
			z = tw.size[1][2]
		}
		return p.Dist + tw.radius*h - z*p.Normal[2]
	}
	return p.Dist - vec.Dot(tw.offsets[p.SignBits], p.Normal)
}

func (tw *traceWork) traceThroughBrush(b *Brush) {
	if len(b.Sides) == 0 {
		return
	}
	enterFrac := float32(-1)
	leaveFrac := float32(1)
	startOut := false
	getOut := false
	var clip *BrushSide
	for i := range b.Sides {
		side := &b.Sides[i]
		dist := tw.planeDist(side.Plane)
		d1 := vec.Dot(tw.start, side.Plane.Normal) - dist
		d2 := vec.Dot(tw.end, side.Plane.Normal) - dist
		if d2 > 0 {
			getOut = true
		}
		if d1 > 0 {
			startOut = true
		}
		// completely in front of the face, no intersection with the brush
		if d1 > 0 && (d2 >= surfaceClipEpsilon || d2 >= d1) {
			return
		}
		if d1 <= 0 && d2 <= 0 {
			continue
		}
		if d1 > d2 {
			f := (d1 - surfaceClipEpsilon) / (d1 - d2)
			if f < 0 {
				f = 0
			}
			if f > enterFrac {
				enterFrac = f
				clip = side
			}
		} else {
			f := (d1 + surfaceClipEpsilon) / (d1 - d2)
			if f > 1 {
				f = 1
			}
			if f < leaveFrac {
				leaveFrac = f
			}
		}
	}
	if !startOut {
		tw.trace.StartSolid = true
		if !getOut {
			tw.trace.AllSolid = true
			tw.trace.Fraction = 0
			tw.trace.Contents = b.Contents
		}
		return
	}
	if enterFrac < leaveFrac && enterFrac > -1 && enterFrac < tw.trace.Fraction && clip != nil {
		if enterFrac < 0 {
			enterFrac = 0
		}
		tw.trace.Fraction = enterFrac
		tw.trace.Plane = *clip.Plane
		tw.trace.SurfaceFlags = clip.SurfaceFlags
		tw.trace.Contents = b.Contents
	}
}

func (w *World) traceThroughBrushes(tw *traceWork, brushes []int) {
	for _, n := range brushes {
		b := &w.m.Brushes[n]
		if b.checkcount == w.checkcount {
			continue
		}
		b.checkcount = w.checkcount
		if b.Contents&tw.mask == 0 {
			continue
		}
		tw.traceThroughBrush(b)
		if tw.trace.AllSolid {
			return
		}
	}
}

func (w *World) traceThroughTree(tw *traceWork, num int, p1f, p2f float32, p1, p2 vec.Vec3) {
	// already hit something nearer
	if tw.trace.Fraction <= p1f {
		return
	}
	if num < 0 {
		w.traceThroughBrushes(tw, w.m.Leafs[-1-num].Brushes)
		return
	}
	node := &w.m.Nodes[num]
	plane := node.Plane
	ext := tw.extents
	if tw.cylinder {
		ext[0], ext[1] = tw.radius, tw.radius
	}
	var t1, t2, offset float32
	if plane.Type < planeNonAxial {
		t1 = p1[plane.Type] - plane.Dist
		t2 = p2[plane.Type] - plane.Dist
		offset = ext[plane.Type]
	} else {
		t1 = vec.Dot(plane.Normal, p1) - plane.Dist
		t2 = vec.Dot(plane.Normal, p2) - plane.Dist
		if !tw.isPoint {
			for i := 0; i < 3; i++ {
				offset += ext[i] * math32.Abs(plane.Normal[i])
			}
		}
	}
	// see which sides we need to consider
	if t1 >= offset+1 && t2 >= offset+1 {
		w.traceThroughTree(tw, node.Children[0], p1f, p2f, p1, p2)
		return
	}
	if t1 < -offset-1 && t2 < -offset-1 {
		w.traceThroughTree(tw, node.Children[1], p1f, p2f, p1, p2)
		return
	}
	// put the crosspoint surfaceClipEpsilon pixels on the near side
	var side int
	var frac, frac2 float32
	switch {
	case t1 < t2:
		idist := 1 / (t1 - t2)
		side = 1
		frac2 = (t1 + offset + surfaceClipEpsilon) * idist
		frac = (t1 - offset + surfaceClipEpsilon) * idist
	case t1 > t2:
		idist := 1 / (t1 - t2)
		side = 0
		frac2 = (t1 - offset - surfaceClipEpsilon) * idist
		frac = (t1 + offset + surfaceClipEpsilon) * idist
	default:
		side = 0
		frac = 1
		frac2 = 0
	}
	frac = clamp01(frac)
	frac2 = clamp01(frac2)

	midf := p1f + (p2f-p1f)*frac
	mid := vec.Lerp(p1, p2, frac)
	w.traceThroughTree(tw, node.Children[side], p1f, midf, p1, mid)

	midf = p1f + (p2f-p1f)*frac2
	mid = vec.Lerp(p1, p2, frac2)
	w.traceThroughTree(tw, node.Children[side^1], midf, p2f, mid, p2)
}

func clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// BoxTrace sweeps the box mins/maxs from start to end through model and
// returns the first contact with a brush matching brushmask.
func (w *World) BoxTrace(start, end, mins, maxs vec.Vec3, model ClipHandle, brushmask int, cylinder bool) Trace {
	tw := newTraceWork(start, end, mins, maxs, brushmask, cylinder)
	switch {
	case model == BoxModelHandle:
		if w.box.brush.Contents&brushmask != 0 {
			tw.traceThroughBrush(&w.box.brush)
		}
	case w.m == nil:
	case model == 0:
		w.checkcount++
		root := 0
		if len(w.m.Nodes) == 0 {
			root = -1
		}
		w.traceThroughTree(tw, root, 0, 1, tw.start, tw.end)
	default:
		w.checkcount++
		w.traceThroughBrushes(tw, w.brushes(model))
	}
	t := tw.trace
	t.EndPos = vec.Lerp(start, end, t.Fraction)
	return t
}

// TransformedBoxTrace traces against a model placed at origin and rotated
// by angles. The box model never rotates.
func (w *World) TransformedBoxTrace(start, end, mins, maxs vec.Vec3, model ClipHandle, brushmask int, origin, angles vec.Vec3, cylinder bool) Trace {
	ls := vec.Sub(start, origin)
	le := vec.Sub(end, origin)
	rotated := model != BoxModelHandle && !angles.IsZero()
	var axis vec.Axis
	if rotated {
		axis = vec.AnglesToAxis(angles)
		ls = axis.Rotate(ls)
		le = axis.Rotate(le)
	}
	t := w.BoxTrace(ls, le, mins, maxs, model, brushmask, cylinder)
	if t.Fraction < 1 {
		n := t.Plane.Normal
		if rotated {
			n = axis.Unrotate(n)
		}
		t.Plane = NewPlane(n, t.Plane.Dist+vec.Dot(n, origin))
	}
	t.EndPos = vec.Lerp(start, end, t.Fraction)
	return t
}
