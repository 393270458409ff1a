// SPDX-License-Identifier: GPL-2.0-or-later

package tiki

import (
	"gofakk/math/vec"
)

// local returns the transform of bone i in frame f of a. Bones the animation
// does not carry stay in the bind pose.
func local(a *Animation, f, i int) vec.Transform {
	b, ok := a.Bone(f, i)
	if !ok {
		return vec.Identity()
	}
	return b.Local()
}

// Compose fills out with the model space transform of every bone for frame f
// of a. out must hold at least len(s.Bones) entries.
func (s *Skeleton) Compose(a *Animation, f int, out []vec.Transform) {
	for i, b := range s.Bones {
		l := local(a, f, i)
		if b.Parent < 0 {
			out[i] = l
			continue
		}
		out[i] = out[b.Parent].Mul(l)
	}
}

// WorldTransform computes the transform of bone i by multiplying its
// ancestor chain.
func (s *Skeleton) WorldTransform(a *Animation, f, i int) vec.Transform {
	if i < 0 || i >= len(s.Bones) {
		return vec.Identity()
	}
	t := local(a, f, i)
	for p := s.Bones[i].Parent; p >= 0; p = s.Bones[p].Parent {
		t = local(a, f, p).Mul(t)
	}
	return t
}
