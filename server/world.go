// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"strconv"
	"strings"

	"gofakk/bsp"
	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/protocol"
)

const maxEntityClusters = 16

// svEntity is the server side bookkeeping of a linked entity.
type svEntity struct {
	clusters []int
	// more leafs than maxEntityClusters, visible from everywhere
	overflow bool
}

func checkNumber(ent *game.Entity, fn string) int {
	n := ent.State.Number
	if n < 0 || n >= protocol.MaxGEntities {
		errs.Raise(errs.Drop, errs.LimitExceeded, "%s: bad entity number %d", fn, n)
	}
	return n
}

// UnlinkEntity removes ent from the entity directory.
func (s *Server) UnlinkEntity(ent *game.Entity) {
	n := checkNumber(ent, "SV_UnlinkEntity")
	if s.linked[n] == ent {
		s.linked[n] = nil
	}
	s.svEnts[n] = svEntity{}
	ent.Linked = false
}

func (s *Server) unlinkAll() {
	for i, e := range s.linked {
		if e != nil {
			e.Linked = false
		}
		s.linked[i] = nil
		s.svEnts[i] = svEntity{}
	}
}

// LinkEntity needs to be called any time an entity changes origin, mins,
// maxs or contents. It sets the absolute box and the areas.
func (s *Server) LinkEntity(ent *game.Entity) {
	n := checkNumber(ent, "SV_LinkEntity")
	if ent.Linked {
		s.UnlinkEntity(ent)
	}

	switch {
	case ent.BModel:
		ent.State.Solid = protocol.SolidBModel
	case ent.Contents&(bsp.ContentsSolid|bsp.ContentsBody) != 0:
		ent.State.Solid = protocol.PackSolid(ent.Mins, ent.Maxs)
	default:
		ent.State.Solid = 0
	}

	origin := ent.CurrentOrigin
	if ent.BModel && !ent.CurrentAngles.IsZero() {
		// expand for rotation
		r := vec.RadiusFromBounds(ent.Mins, ent.Maxs)
		for i := 0; i < 3; i++ {
			ent.AbsMin[i] = origin[i] - r
			ent.AbsMax[i] = origin[i] + r
		}
	} else {
		ent.AbsMin = vec.Add(origin, ent.Mins)
		ent.AbsMax = vec.Add(origin, ent.Maxs)
	}
	ent.Centroid = vec.Lerp(ent.AbsMin, ent.AbsMax, 0.5)
	ent.Radius = vec.RadiusFromBounds(ent.Mins, ent.Maxs)

	sv := svEntity{}
	ent.AreaNum = -1
	ent.AreaNum2 = -1
	if s.World.Loaded() {
		ent.AreaNum = s.World.LeafArea(s.World.PointLeafnum(origin))
		leafs := s.World.BoxLeafnums(ent.AbsMin, ent.AbsMax, 2*maxEntityClusters)
		for _, l := range leafs {
			// doors can link to two areas
			if a := s.World.LeafArea(l); a != -1 && a != ent.AreaNum && ent.AreaNum2 == -1 {
				if ent.AreaNum == -1 {
					ent.AreaNum = a
				} else {
					ent.AreaNum2 = a
				}
			}
			c := s.World.LeafCluster(l)
			if c == -1 || containsInt(sv.clusters, c) {
				continue
			}
			if len(sv.clusters) == maxEntityClusters {
				sv.overflow = true
				continue
			}
			sv.clusters = append(sv.clusters, c)
		}
		if len(leafs) == 2*maxEntityClusters {
			sv.overflow = true
		}
	}

	ent.Linked = true
	ent.LinkCount++
	s.linked[n] = ent
	s.svEnts[n] = sv
}

func containsInt(l []int, v int) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

// AreaEntities lists the linked entities whose absolute box touches
// mins/maxs, in ascending number order.
func (s *Server) AreaEntities(mins, maxs vec.Vec3, max int) []int {
	var out []int
	for i, e := range s.linked {
		if len(out) >= max {
			break
		}
		if e == nil {
			continue
		}
		if e.AbsMin[0] > maxs[0] || e.AbsMin[1] > maxs[1] || e.AbsMin[2] > maxs[2] ||
			e.AbsMax[0] < mins[0] || e.AbsMax[1] < mins[1] || e.AbsMax[2] < mins[2] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// SetBrushModel binds ent to the inline model "*n".
func (s *Server) SetBrushModel(ent *game.Entity, name string) {
	if name == "" {
		errs.Raise(errs.Drop, errs.BadFormat, "SV_SetBrushModel: NULL")
	}
	if !strings.HasPrefix(name, "*") {
		errs.Raise(errs.Drop, errs.BadFormat, "SV_SetBrushModel: %s isn't a brush model", name)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		errs.Raise(errs.Drop, errs.BadFormat, "SV_SetBrushModel: %s isn't a brush model", name)
	}
	h, err := s.World.InlineModel(n)
	if err != nil {
		panic(err)
	}
	ent.State.ModelIndex = n
	ent.Mins, ent.Maxs = s.World.ModelBounds(h)
	ent.BModel = true
	ent.Solid = game.SolidBSP
	// everything clips against brush models
	ent.Contents = -1
	s.LinkEntity(ent)
}

// SetModel binds ent to a TIKI model or, for "*n" names, an inline model.
func (s *Server) SetModel(ent *game.Entity, name string) {
	if strings.HasPrefix(name, "*") {
		s.SetBrushModel(ent, name)
		return
	}
	i := s.ModelIndex(name)
	ent.State.ModelIndex = i
	ent.BModel = false
	if h := s.modelHandle(i); h != 0 {
		scale := ent.State.Scale
		if scale == 0 {
			scale = 1
		}
		ent.Mins, ent.Maxs = s.TIKI.CalculateBounds(h, scale)
	}
	if ent.Linked {
		s.LinkEntity(ent)
	}
}

func (s *Server) IsModel(index int) bool {
	return s.modelHandle(index) != 0
}

// clipHandle returns the collision model of a linked entity.
func (s *Server) clipHandle(ent *game.Entity) (bsp.ClipHandle, bool) {
	if ent.BModel {
		h, err := s.World.InlineModel(ent.State.ModelIndex)
		if err != nil {
			conlog.Warnf("entity %d: %v\n", ent.State.Number, err)
			return 0, false
		}
		return h, true
	}
	return s.World.TempBoxModel(ent.Mins, ent.Maxs, ent.Contents), true
}

func (s *Server) clipEntity(ent *game.Entity, start, mins, maxs, end vec.Vec3, mask int, cylinder bool) bsp.Trace {
	h, ok := s.clipHandle(ent)
	if !ok {
		return bsp.Trace{Fraction: 1, EndPos: end, EntityNum: protocol.EntityNumNone}
	}
	var angles vec.Vec3
	if ent.BModel {
		angles = ent.CurrentAngles
	}
	t := s.World.TransformedBoxTrace(start, end, mins, maxs, h, mask, ent.CurrentOrigin, angles, cylinder)
	if t.Fraction < 1 || t.StartSolid {
		t.EntityNum = ent.State.Number
	} else {
		t.EntityNum = protocol.EntityNumNone
	}
	return t
}

// ClipToEntity traces against a single entity.
func (s *Server) ClipToEntity(start, mins, maxs, end vec.Vec3, entityNum, mask int) bsp.Trace {
	if entityNum < 0 || entityNum >= protocol.MaxGEntities {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_ClipToEntity: bad entity number %d", entityNum)
	}
	ent := s.linked[entityNum]
	if ent == nil || ent.Contents&mask == 0 {
		return bsp.Trace{Fraction: 1, EndPos: end, EntityNum: protocol.EntityNumNone}
	}
	return s.clipEntity(ent, start, mins, maxs, end, mask, false)
}

// Trace sweeps a box through the world and the linked entities. passEnt,
// the entities it owns and its owner are not clipped against.
func (s *Server) Trace(start, mins, maxs, end vec.Vec3, passEnt, mask int, cylinder bool) bsp.Trace {
	tr := s.World.BoxTrace(start, end, mins, maxs, 0, mask, cylinder)
	if tr.Fraction < 1 || tr.StartSolid {
		tr.EntityNum = protocol.EntityNumWorld
	} else {
		tr.EntityNum = protocol.EntityNumNone
	}
	if tr.Fraction == 0 {
		// blocked immediately by the world
		return tr
	}

	var clipMins, clipMaxs vec.Vec3
	for i := 0; i < 3; i++ {
		lo, hi := start[i], end[i]
		if end[i] < lo {
			lo, hi = end[i], start[i]
		}
		// one unit of slop so that touching entities are considered
		clipMins[i] = lo + mins[i] - 1
		clipMaxs[i] = hi + maxs[i] + 1
	}

	passOwner := -1
	if passEnt >= 0 && passEnt < protocol.MaxGEntities {
		if pe := s.linked[passEnt]; pe != nil && pe.OwnerNum != protocol.EntityNumNone {
			passOwner = pe.OwnerNum
		} else if pe == nil && passEnt < len(s.gents) && s.gents[passEnt] != nil && s.gents[passEnt].OwnerNum != protocol.EntityNumNone {
			passOwner = s.gents[passEnt].OwnerNum
		}
	}

	for _, num := range s.AreaEntities(clipMins, clipMaxs, protocol.MaxGEntities) {
		touch := s.linked[num]
		if num == passEnt || num == passOwner {
			continue
		}
		if passEnt >= 0 && touch.OwnerNum == passEnt {
			// missiles do not hit their shooter
			continue
		}
		if touch.Contents&mask == 0 {
			continue
		}
		t := s.clipEntity(touch, start, mins, maxs, end, mask, cylinder)
		if t.AllSolid {
			tr.AllSolid = true
			tr.EntityNum = num
		} else if t.StartSolid {
			tr.StartSolid = true
			tr.EntityNum = num
		}
		if t.Fraction < tr.Fraction {
			oldStart := tr.StartSolid
			tr = t
			tr.StartSolid = tr.StartSolid || oldStart
			tr.EntityNum = num
		}
	}
	return tr
}

// PointContents is the world contents at p together with the contents of
// every entity whose box holds p.
func (s *Server) PointContents(p vec.Vec3, passEnt int) int {
	contents := s.World.PointContents(p, 0)
	for _, num := range s.AreaEntities(p, p, protocol.MaxGEntities) {
		if num == passEnt {
			continue
		}
		contents |= s.linked[num].Contents
	}
	return contents
}

// AdjustAreaPortalState opens or closes the portal between the two areas
// a door is linked into.
func (s *Server) AdjustAreaPortalState(ent *game.Entity, open bool) {
	if ent.AreaNum2 == -1 || ent.AreaNum == -1 {
		return
	}
	s.World.AdjustAreaPortalState(ent.AreaNum, ent.AreaNum2, open)
}
