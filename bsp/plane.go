// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"gofakk/math/vec"
)

const planeNonAxial = 3

// NewPlane classifies the plane for the axial fast paths.
func NewPlane(normal vec.Vec3, dist float32) Plane {
	p := Plane{Normal: normal, Dist: dist, Type: planeNonAxial}
	switch {
	case normal[0] == 1:
		p.Type = 0
	case normal[1] == 1:
		p.Type = 1
	case normal[2] == 1:
		p.Type = 2
	}
	for j := 0; j < 3; j++ {
		if normal[j] < 0 {
			p.SignBits |= 1 << j
		}
	}
	return p
}

// Distance returns the signed distance of p to the plane.
func (p *Plane) Distance(v vec.Vec3) float32 {
	if p.Type < planeNonAxial {
		return v[p.Type] - p.Dist
	}
	return vec.Dot(p.Normal, v) - p.Dist
}

// BoxOnPlaneSide returns 1 if the box is in front, 2 if behind and 3 if the
// plane cuts it.
func (p *Plane) BoxOnPlaneSide(mins, maxs vec.Vec3) int {
	if p.Type < planeNonAxial {
		if p.Dist <= mins[p.Type] {
			return 1
		}
		if p.Dist >= maxs[p.Type] {
			return 2
		}
		return 3
	}
	// near and far corner along the normal
	var near, far vec.Vec3
	for j := 0; j < 3; j++ {
		if p.SignBits&(1<<j) != 0 {
			near[j], far[j] = maxs[j], mins[j]
		} else {
			near[j], far[j] = mins[j], maxs[j]
		}
	}
	sides := 0
	if vec.Dot(p.Normal, far) >= p.Dist {
		sides = 1
	}
	if vec.Dot(p.Normal, near) < p.Dist {
		sides |= 2
	}
	return sides
}
