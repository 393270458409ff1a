// SPDX-License-Identifier: GPL-2.0-or-later

package tiki

import (
	"bytes"
	"encoding/binary"

	"github.com/chewxy/math32"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/zone"
)

const (
	quatScale   = 1.0 / 32767
	offsetScale = 1.0 / 63
)

type animHeader struct {
	Ident      [4]byte
	Version    int32
	Name       [64]byte
	Type       int32
	NumFrames  int32
	NumBones   int32
	TotalTime  float32
	FrameTime  float32
	TotalDelta [3]float32
	OfsFrames  int32
}

// frameHeader starts every frame, the compressed bones follow it.
type frameHeader struct {
	Mins   [3]float32
	Maxs   [3]float32
	Radius float32
	Delta  [3]float32
}

// CompressedBone is a bone transform quantized to 16 bit.
type CompressedBone struct {
	Quat   [4]int16
	Offset [3]int16
	Pad    int16
}

var (
	animHeaderSize     = binary.Size(animHeader{})
	frameHeaderSize    = binary.Size(frameHeader{})
	compressedBoneSize = binary.Size(CompressedBone{})
)

// Frame is the uncompressed per frame header of an animation.
type Frame struct {
	Mins   vec.Vec3
	Maxs   vec.Vec3
	Radius float32
	Delta  vec.Vec3
}

type Animation struct {
	Name        string
	Type        int
	NumFrames   int
	NumBones    int
	TotalTime   float32
	FrameTime   float32
	TotalDelta  vec.Vec3
	FrameStride int
	frames      *zone.Block
}

// FrameStride returns the size in bytes of one frame with numBones bones.
func FrameStride(numBones int) int {
	return frameHeaderSize + numBones*compressedBoneSize
}

// LoadAnimation decodes a .ska file. The frame block is copied into z under
// zone.TagTiki.
func LoadAnimation(z *zone.Zone, name string, data []byte) (*Animation, error) {
	if len(data) < animHeaderSize {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s is too short (%d bytes)", name, len(data))
	}
	var h animHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, name)
	}
	if h.Ident != animIdent {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s has wrong ident %q", name, h.Ident[:])
	}
	if h.Version != AnimVersion {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s has wrong version (%d should be %d)", name, h.Version, AnimVersion)
	}
	if h.NumBones < 0 || h.NumBones > MaxBones {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s has %d bones (max %d)", name, h.NumBones, MaxBones)
	}
	if h.NumFrames < 0 {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s has %d frames", name, h.NumFrames)
	}
	a := &Animation{
		Name:        name,
		Type:        int(h.Type),
		NumFrames:   int(h.NumFrames),
		NumBones:    int(h.NumBones),
		TotalTime:   h.TotalTime,
		FrameTime:   h.FrameTime,
		TotalDelta:  h.TotalDelta,
		FrameStride: FrameStride(int(h.NumBones)),
	}
	size := int64(a.NumFrames) * int64(a.FrameStride)
	if h.OfsFrames < 0 || int64(h.OfsFrames)+size > int64(len(data)) {
		return nil, errs.New(errs.BadFormat, "TIKI_LoadSkelAnim: %s frames outside file", name)
	}
	if size > 0 {
		a.frames = z.Alloc(int(size), zone.TagTiki)
		copy(a.frames.Bytes(), data[h.OfsFrames:int64(h.OfsFrames)+size])
	}
	conlog.DPrintf("TIKI_LoadSkelAnim: %s, %d frames, %d bones, %.2fs\n", name, a.NumFrames, a.NumBones, a.TotalTime)
	return a, nil
}

func (a *Animation) frameData(f int) []byte {
	if a == nil || a.frames == nil || f < 0 || f >= a.NumFrames {
		return nil
	}
	o := f * a.FrameStride
	return a.frames.Bytes()[o : o+a.FrameStride]
}

func f32(b []byte) float32 {
	return math32.Float32frombits(binary.LittleEndian.Uint32(b))
}

func v3(b []byte) vec.Vec3 {
	return vec.Vec3{f32(b), f32(b[4:]), f32(b[8:])}
}

// Frame returns the header of frame f.
func (a *Animation) Frame(f int) (Frame, bool) {
	d := a.frameData(f)
	if d == nil {
		return Frame{}, false
	}
	return Frame{
		Mins:   v3(d),
		Maxs:   v3(d[12:]),
		Radius: f32(d[24:]),
		Delta:  v3(d[28:]),
	}, true
}

// Bone returns the compressed transform of bone i in frame f.
func (a *Animation) Bone(f, i int) (CompressedBone, bool) {
	d := a.frameData(f)
	if d == nil || i < 0 || i >= a.NumBones {
		return CompressedBone{}, false
	}
	d = d[frameHeaderSize+i*compressedBoneSize:]
	var b CompressedBone
	for j := range b.Quat {
		b.Quat[j] = int16(binary.LittleEndian.Uint16(d[2*j:]))
	}
	for j := range b.Offset {
		b.Offset[j] = int16(binary.LittleEndian.Uint16(d[8+2*j:]))
	}
	return b, true
}

// DecompressBone expands a quantized bone into a quaternion and an offset.
func DecompressBone(b CompressedBone) (vec.Quat, vec.Vec3) {
	var q vec.Quat
	for i := range q {
		q[i] = float32(b.Quat[i]) * quatScale
	}
	var o vec.Vec3
	for i := range o {
		o[i] = float32(b.Offset[i]) * offsetScale
	}
	return q, o
}

// Local returns the bone transform relative to its parent.
func (b CompressedBone) Local() vec.Transform {
	q, o := DecompressBone(b)
	return vec.QuatToTransform(q.Normalize(), o)
}
