// SPDX-License-Identifier: GPL-2.0-or-later

package tiki

import (
	"bytes"
	"encoding/binary"
	"strings"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/zone"
)

const (
	SkelVersion = 3
	AnimVersion = 3
)

var (
	skelIdent = [4]byte{'S', 'K', 'L', ' '}
	animIdent = [4]byte{'S', 'K', 'A', 'N'}
)

type skelHeader struct {
	Ident       [4]byte
	Version     int32
	Name        [64]byte
	NumBones    int32
	NumSurfaces int32
	OfsBones    int32
	OfsSurfaces int32
	OfsEnd      int32
}

type skelBone struct {
	Parent int32
	Flags  int32
	Name   [64]byte
}

var (
	skelHeaderSize = binary.Size(skelHeader{})
	skelBoneSize   = binary.Size(skelBone{})
)

type Bone struct {
	Name   string
	Parent int
	Flags  int
}

// Skeleton is a bone hierarchy. Every bone's parent has a lower index.
type Skeleton struct {
	Name        string
	Bones       []Bone
	NumSurfaces int
	// surfaces is the mesh data for the renderer, kept opaque.
	surfaces *zone.Block
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// SurfaceData returns the raw mesh block of the skeleton.
func (s *Skeleton) SurfaceData() []byte {
	if s.surfaces == nil {
		return nil
	}
	return s.surfaces.Bytes()
}

func (s *Skeleton) BoneNumForName(name string) int {
	for i, b := range s.Bones {
		if strings.EqualFold(b.Name, name) {
			return i
		}
	}
	return -1
}

// LoadSkeleton decodes a .skb file. The surface block is copied into z under
// zone.TagTiki.
func LoadSkeleton(z *zone.Zone, name string, data []byte) (*Skeleton, error) {
	if len(data) < skelHeaderSize {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s is too short (%d bytes)", name, len(data))
	}
	var h skelHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, name)
	}
	if h.Ident != skelIdent {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s has wrong ident %q", name, h.Ident[:])
	}
	if h.Version != SkelVersion {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s has wrong version (%d should be %d)", name, h.Version, SkelVersion)
	}
	if h.NumBones < 0 || h.NumBones > MaxBones {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s has %d bones (max %d)", name, h.NumBones, MaxBones)
	}
	size := int64(len(data))
	bonesEnd := int64(h.OfsBones) + int64(h.NumBones)*int64(skelBoneSize)
	if h.OfsBones < 0 || bonesEnd > size {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s bone table outside file", name)
	}
	if h.OfsEnd < 0 || int64(h.OfsEnd) > size || h.OfsSurfaces < 0 || h.OfsSurfaces > h.OfsEnd {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s surfaces outside file", name)
	}
	s := &Skeleton{
		Name:        name,
		Bones:       make([]Bone, h.NumBones),
		NumSurfaces: int(h.NumSurfaces),
	}
	r := bytes.NewReader(data[h.OfsBones:bonesEnd])
	for i := range s.Bones {
		var b skelBone
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return nil, errs.Wrap(err, errs.BadFormat, name)
		}
		if int(b.Parent) >= i || b.Parent < -1 {
			return nil, errs.New(errs.BadFormat, "TIKI_LoadSkeleton: %s bone %d has parent %d", name, i, b.Parent)
		}
		s.Bones[i] = Bone{
			Name:   cString(b.Name[:]),
			Parent: int(b.Parent),
			Flags:  int(b.Flags),
		}
	}
	if n := int(h.OfsEnd - h.OfsSurfaces); h.OfsSurfaces > 0 && n > 0 {
		s.surfaces = z.Alloc(n, zone.TagTiki)
		copy(s.surfaces.Bytes(), data[h.OfsSurfaces:h.OfsEnd])
	}
	conlog.DPrintf("TIKI_LoadSkeleton: %s, %d bones, %d surfaces\n", name, len(s.Bones), s.NumSurfaces)
	return s, nil
}
