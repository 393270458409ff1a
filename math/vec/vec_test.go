// SPDX-License-Identifier: GPL-2.0-or-later

package vec

import (
	"testing"
)

var (
	NULL = Vec3{}
)

func TestBasics(t *testing.T) {
	v := Vec3{1, 2, 3}
	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("Vector construction is not obvious")
	}
	if v.X() != 1 || v.Y() != 2 || v.Z() != 3 {
		t.Errorf("Accessors do not match indices")
	}
}

func TestLength(t *testing.T) {
	if NULL.Length() != 0 {
		t.Errorf("Null vector has not 0 length")
	}
	for _, v := range []Vec3{{2, 2, 1}, {2, 1, 2}, {1, 2, 2}} {
		if v.Length() != 3 {
			t.Errorf("%v Length is not 3", v)
		}
	}
}

func TestAddSub(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := Add(NULL, v); v != got {
		t.Errorf("Adding a null vector changed the vector")
	}
	if got := Sub(v, v); got != NULL {
		t.Errorf("v-v=%v, want null", got)
	}
	if got := MA(v, 2, Vec3{1, 1, 1}); got != (Vec3{3, 4, 5}) {
		t.Errorf("MA=%v", got)
	}
}

func TestCross(t *testing.T) {
	if got := Cross(Vec3{1, 0, 0}, Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("x cross y=%v, want z", got)
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax(Vec3{1, 5, -2}, Vec3{3, 0, -4})
	if lo != (Vec3{1, 0, -4}) || hi != (Vec3{3, 5, -2}) {
		t.Errorf("MinMax=%v %v", lo, hi)
	}
}

func TestAxisRoundTrip(t *testing.T) {
	a := AnglesToAxis(Vec3{10, 45, 30})
	if !a.Orthonormal(1e-5) {
		t.Fatalf("axis not orthonormal: %v", a)
	}
	p := Vec3{3, -2, 7}
	if got := a.Unrotate(a.Rotate(p)); !Near(got, p, 1e-4) {
		t.Errorf("Unrotate(Rotate(p))=%v, want %v", got, p)
	}
}

func TestYawAxis(t *testing.T) {
	a := AnglesToAxis(Vec3{0, 90, 0})
	if !Near(a[0], Vec3{0, 1, 0}, 1e-6) || !Near(a[1], Vec3{-1, 0, 0}, 1e-6) {
		t.Errorf("yaw 90 axis=%v", a)
	}
}

func TestQuatTransform(t *testing.T) {
	// 90 degrees about z
	s := float32(0.70710678)
	tr := QuatToTransform(Quat{0, 0, s, s}, Vec3{1, 0, 0})
	if got := tr.Apply(Vec3{1, 0, 0}); !Near(got, Vec3{1, 1, 0}, 1e-5) {
		t.Errorf("Apply=%v", got)
	}
	id := Identity()
	if !id.Mul(tr).Near(tr, 1e-6) || !tr.Mul(id).Near(tr, 1e-6) {
		t.Errorf("identity composition changed the transform")
	}
	two := tr.Mul(tr)
	if got := two.Apply(Vec3{}); !Near(got, Vec3{1, 1, 0}, 1e-5) {
		t.Errorf("composed origin=%v", got)
	}
}
