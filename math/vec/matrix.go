// SPDX-License-Identifier: GPL-2.0-or-later

package vec

import (
	"github.com/chewxy/math32"
)

// Axis holds three orthonormal direction vectors: forward, left, up.
type Axis [3]Vec3

func IdentityAxis() Axis {
	return Axis{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func AnglesToAxis(angles Vec3) Axis {
	f, r, u := AngleVectors(angles)
	return Axis{f, r.Neg(), u}
}

// Rotate maps a world vector into the axis frame: (a0·p, a1·p, a2·p).
func (a Axis) Rotate(p Vec3) Vec3 {
	return Vec3{Dot(a[0], p), Dot(a[1], p), Dot(a[2], p)}
}

// Unrotate is the inverse of Rotate: p0*a0 + p1*a1 + p2*a2.
func (a Axis) Unrotate(p Vec3) Vec3 {
	return Add(Add(a[0].Scale(p[0]), a[1].Scale(p[1])), a[2].Scale(p[2]))
}

// Quat is a rotation quaternion stored x, y, z, w.
type Quat [4]float32

func (q Quat) Normalize() Quat {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l == 0 {
		return Quat{0, 0, 0, 1}
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Transform is a 3x4 rigid transform whose rows are the images of the basis
// vectors, followed by the translation.
type Transform struct {
	Axis   Axis
	Origin Vec3
}

func Identity() Transform {
	return Transform{Axis: IdentityAxis()}
}

// QuatToTransform builds the transform rotating by q and translating by o.
func QuatToTransform(q Quat, o Vec3) Transform {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return Transform{
		Axis: Axis{
			{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy)},
			{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx)},
			{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy)},
		},
		Origin: o,
	}
}

// Apply transforms a point.
func (t Transform) Apply(p Vec3) Vec3 {
	return Add(t.Axis.Unrotate(p), t.Origin)
}

// Mul returns t∘l: first l, then t.
func (t Transform) Mul(l Transform) Transform {
	return Transform{
		Axis: Axis{
			t.Axis.Unrotate(l.Axis[0]),
			t.Axis.Unrotate(l.Axis[1]),
			t.Axis.Unrotate(l.Axis[2]),
		},
		Origin: t.Apply(l.Origin),
	}
}

// Near reports whether both transforms agree within eps.
func (t Transform) Near(o Transform, eps float32) bool {
	for i := range t.Axis {
		if !Near(t.Axis[i], o.Axis[i], eps) {
			return false
		}
	}
	return Near(t.Origin, o.Origin, eps)
}

// Orthonormal reports whether the rotation block is orthonormal within eps.
func (a Axis) Orthonormal(eps float32) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if math32.Abs(Dot(a[i], a[j])-want) > eps {
				return false
			}
		}
	}
	return true
}
