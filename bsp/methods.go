// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"gofakk/errs"
	"gofakk/math/vec"
)

// PointLeafnum returns the world leaf containing p.
func (w *World) PointLeafnum(p vec.Vec3) int {
	if w.m == nil || len(w.m.Nodes) == 0 {
		return 0
	}
	num := 0
	for num >= 0 {
		node := &w.m.Nodes[num]
		if node.Plane.Distance(p) < 0 {
			num = node.Children[1]
		} else {
			num = node.Children[0]
		}
	}
	return -1 - num
}

// BoxLeafnums lists up to max world leafs touched by the box.
func (w *World) BoxLeafnums(mins, maxs vec.Vec3, max int) []int {
	if w.m == nil {
		return nil
	}
	if len(w.m.Nodes) == 0 {
		return []int{0}
	}
	var out []int
	var walk func(num int)
	walk = func(num int) {
		for len(out) < max {
			if num < 0 {
				out = append(out, -1-num)
				return
			}
			node := &w.m.Nodes[num]
			switch node.Plane.BoxOnPlaneSide(mins, maxs) {
			case 1:
				num = node.Children[0]
			case 2:
				num = node.Children[1]
			default:
				walk(node.Children[0])
				num = node.Children[1]
			}
		}
	}
	walk(0)
	return out
}

func (w *World) LeafCluster(leaf int) int {
	if w.m == nil || leaf < 0 || leaf >= len(w.m.Leafs) {
		return -1
	}
	return w.m.Leafs[leaf].Cluster
}

func (w *World) LeafArea(leaf int) int {
	if w.m == nil || leaf < 0 || leaf >= len(w.m.Leafs) {
		return 0
	}
	return w.m.Leafs[leaf].Area
}

func (w *World) brushContents(p vec.Vec3, b *Brush) int {
	for i := range b.Sides {
		if b.Sides[i].Plane.Distance(p) > 0 {
			return 0
		}
	}
	return b.Contents
}

// PointContents returns the union of the contents of every brush of model
// that contains p.
func (w *World) PointContents(p vec.Vec3, model ClipHandle) int {
	if model == BoxModelHandle {
		return w.brushContents(p, &w.box.brush)
	}
	if w.m == nil {
		return 0
	}
	var brushes []int
	if model == 0 {
		brushes = w.m.Leafs[w.PointLeafnum(p)].Brushes
	} else {
		brushes = w.brushes(model)
	}
	contents := 0
	for _, n := range brushes {
		contents |= w.brushContents(p, &w.m.Brushes[n])
	}
	return contents
}

// TransformedPointContents is PointContents for a model placed at origin
// and rotated by angles.
func (w *World) TransformedPointContents(p vec.Vec3, model ClipHandle, origin, angles vec.Vec3) int {
	local := vec.Sub(p, origin)
	if model != BoxModelHandle && !angles.IsZero() {
		local = vec.AnglesToAxis(angles).Rotate(local)
	}
	return w.PointContents(local, model)
}

// ClusterPVS returns the visibility row of cluster, nil without vis data.
func (w *World) ClusterPVS(cluster int) []byte {
	if w.m == nil || w.m.Vis == nil || cluster < 0 || cluster >= w.m.NumClusters {
		return nil
	}
	o := cluster * w.m.ClusterBytes
	return w.m.Vis[o : o+w.m.ClusterBytes]
}

// ClusterVisible reports whether cluster b is in the PVS of cluster a.
func (w *World) ClusterVisible(a, b int) bool {
	if w.m == nil || w.m.Vis == nil {
		return true
	}
	if a < 0 || b < 0 || b >= w.m.NumClusters {
		return false
	}
	vis := w.ClusterPVS(a)
	return vis != nil && vis[b>>3]&(1<<(b&7)) != 0
}

// InPVSIgnorePortals checks cluster visibility only.
func (w *World) InPVSIgnorePortals(p1, p2 vec.Vec3) bool {
	if w.m == nil || w.m.Vis == nil {
		return true
	}
	return w.ClusterVisible(w.LeafCluster(w.PointLeafnum(p1)), w.LeafCluster(w.PointLeafnum(p2)))
}

// InPVS also requires the areas of both points to be connected.
func (w *World) InPVS(p1, p2 vec.Vec3) bool {
	if w.m == nil || w.m.Vis == nil {
		return true
	}
	l1 := w.PointLeafnum(p1)
	l2 := w.PointLeafnum(p2)
	if !w.ClusterVisible(w.LeafCluster(l1), w.LeafCluster(l2)) {
		return false
	}
	return w.AreasConnected(w.LeafArea(l1), w.LeafArea(l2))
}

func (w *World) NumAreas() int {
	return len(w.areas)
}

func (w *World) checkArea(a int, fn string) {
	if a >= len(w.areas) {
		errs.Raise(errs.Drop, errs.NotFound, "%s: area %d >= %d", fn, a, len(w.areas))
	}
}

// AdjustAreaPortalState opens or closes the portal between two areas.
// Opens are counted so nested doors balance.
func (w *World) AdjustAreaPortalState(a1, a2 int, open bool) {
	if a1 < 0 || a2 < 0 || w.m == nil {
		return
	}
	w.checkArea(a1, "CM_AdjustAreaPortalState")
	w.checkArea(a2, "CM_AdjustAreaPortalState")
	n := len(w.areas)
	d := 1
	if !open {
		d = -1
	}
	w.portals[a1*n+a2] += d
	w.portals[a2*n+a1] += d
	if w.portals[a1*n+a2] < 0 {
		errs.Raise(errs.Drop, errs.Corruption, "CM_AdjustAreaPortalState: negative reference count")
	}
	w.floodAreaConnections()
}

func (w *World) floodArea(start, floodNum int) {
	n := len(w.areas)
	stack := []int{start}
	for len(stack) > 0 {
		a := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if w.areas[a].floodValid == w.floodValid {
			continue
		}
		w.areas[a].floodNum = floodNum
		w.areas[a].floodValid = w.floodValid
		for o := 0; o < n; o++ {
			if w.portals[a*n+o] > 0 && w.areas[o].floodValid != w.floodValid {
				stack = append(stack, o)
			}
		}
	}
}

// floodAreaConnections numbers the groups of areas joined by open portals.
func (w *World) floodAreaConnections() {
	w.floodValid++
	floodNum := 0
	for i := range w.areas {
		if w.areas[i].floodValid == w.floodValid {
			continue
		}
		floodNum++
		w.floodArea(i, floodNum)
	}
}

func (w *World) AreasConnected(a1, a2 int) bool {
	if a1 < 0 || a2 < 0 || w.m == nil {
		return false
	}
	w.checkArea(a1, "CM_AreasConnected")
	w.checkArea(a2, "CM_AreasConnected")
	return w.areas[a1].floodNum == w.areas[a2].floodNum
}

// WriteAreaBits sets a bit in buf for every area connected to area, or for
// every area when area is -1. It returns the number of bytes used.
func (w *World) WriteAreaBits(area int, buf []byte) int {
	n := (len(w.areas) + 7) >> 3
	if n > len(buf) {
		n = len(buf)
	}
	for i := range buf[:n] {
		buf[i] = 0
	}
	for i := range w.areas {
		if i>>3 >= n {
			break
		}
		if area == -1 || area >= 0 && area < len(w.areas) && w.areas[i].floodNum == w.areas[area].floodNum {
			buf[i>>3] |= 1 << (i & 7)
		}
	}
	return n
}
