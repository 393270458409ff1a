// SPDX-License-Identifier: GPL-2.0-or-later

package net

import (
	"math"

	"gofakk/protocol"
)

// floats that are whole numbers in this range travel in 13 bits
const (
	floatIntBits = 13
	floatIntBias = 1 << (floatIntBits - 1)
)

// netField describes one delta encoded field. bits is 0 for floats and
// negative for signed integers.
type netField[T any] struct {
	name string
	bits int
	i    func(*T) *int
	f    func(*T) *float32
	b    func(*T) *bool
}

func (nf *netField[T]) raw(s *T) uint32 {
	switch {
	case nf.f != nil:
		return math.Float32bits(*nf.f(s))
	case nf.b != nil:
		if *nf.b(s) {
			return 1
		}
		return 0
	}
	return uint32(*nf.i(s))
}

func (nf *netField[T]) write(m *Msg, to *T) {
	if nf.f == nil {
		m.WriteBits(int(nf.raw(to)), nf.bits)
		return
	}
	v := *nf.f(to)
	if v >= -floatIntBias && v < floatIntBias && float32(int32(v)) == v {
		m.WriteBits(0, 1)
		m.WriteBits(int(v)+floatIntBias, floatIntBits)
		return
	}
	m.WriteBits(1, 1)
	m.WriteBits(int(int32(math.Float32bits(v))), 32)
}

func (nf *netField[T]) read(m *Msg, to *T) {
	switch {
	case nf.f != nil:
		if m.ReadBits(1) == 0 {
			*nf.f(to) = float32(m.ReadBits(floatIntBits) - floatIntBias)
		} else {
			*nf.f(to) = math.Float32frombits(uint32(m.ReadBits(32)))
		}
	case nf.b != nil:
		*nf.b(to) = m.ReadBits(nf.bits) != 0
	default:
		*nf.i(to) = m.ReadBits(nf.bits)
	}
}

func lastChanged[T any](fields []netField[T], from, to *T) int {
	lc := -1
	for i := range fields {
		if fields[i].raw(from) != fields[i].raw(to) {
			lc = i
		}
	}
	return lc
}

func writeFields[T any](m *Msg, fields []netField[T], lc int, from, to *T) {
	m.WriteBits(lc, 8)
	for i := 0; i <= lc; i++ {
		f := &fields[i]
		if f.raw(from) == f.raw(to) {
			m.WriteBits(0, 1)
			continue
		}
		m.WriteBits(1, 1)
		f.write(m, to)
	}
}

func readFields[T any](m *Msg, fields []netField[T], to *T) {
	lc := m.ReadBits(8)
	for i := 0; i <= lc && i < len(fields); i++ {
		if m.ReadBits(1) == 0 {
			continue
		}
		fields[i].read(m, to)
	}
}

type es = protocol.EntityState

func ei(name string, bits int, p func(*es) *int) netField[es] {
	return netField[es]{name: name, bits: bits, i: p}
}

func ef(name string, p func(*es) *float32) netField[es] {
	return netField[es]{name: name, f: p}
}

var entityStateFields = []netField[es]{
	ei("pos.trType", 8, func(s *es) *int { return &s.Pos.Type }),
	ei("pos.trTime", 32, func(s *es) *int { return &s.Pos.Time }),
	ei("pos.trDuration", 32, func(s *es) *int { return &s.Pos.Duration }),
	ef("pos.trBase[0]", func(s *es) *float32 { return &s.Pos.Base[0] }),
	ef("pos.trBase[1]", func(s *es) *float32 { return &s.Pos.Base[1] }),
	ef("pos.trBase[2]", func(s *es) *float32 { return &s.Pos.Base[2] }),
	ef("pos.trDelta[0]", func(s *es) *float32 { return &s.Pos.Delta[0] }),
	ef("pos.trDelta[1]", func(s *es) *float32 { return &s.Pos.Delta[1] }),
	ef("pos.trDelta[2]", func(s *es) *float32 { return &s.Pos.Delta[2] }),
	ei("apos.trType", 8, func(s *es) *int { return &s.APos.Type }),
	ei("apos.trTime", 32, func(s *es) *int { return &s.APos.Time }),
	ei("apos.trDuration", 32, func(s *es) *int { return &s.APos.Duration }),
	ef("apos.trBase[0]", func(s *es) *float32 { return &s.APos.Base[0] }),
	ef("apos.trBase[1]", func(s *es) *float32 { return &s.APos.Base[1] }),
	ef("apos.trBase[2]", func(s *es) *float32 { return &s.APos.Base[2] }),
	ef("apos.trDelta[0]", func(s *es) *float32 { return &s.APos.Delta[0] }),
	ef("apos.trDelta[1]", func(s *es) *float32 { return &s.APos.Delta[1] }),
	ef("apos.trDelta[2]", func(s *es) *float32 { return &s.APos.Delta[2] }),
	ei("time", 32, func(s *es) *int { return &s.Time }),
	ei("time2", 32, func(s *es) *int { return &s.Time2 }),
	ef("origin[0]", func(s *es) *float32 { return &s.Origin[0] }),
	ef("origin[1]", func(s *es) *float32 { return &s.Origin[1] }),
	ef("origin[2]", func(s *es) *float32 { return &s.Origin[2] }),
	ef("origin2[0]", func(s *es) *float32 { return &s.Origin2[0] }),
	ef("origin2[1]", func(s *es) *float32 { return &s.Origin2[1] }),
	ef("origin2[2]", func(s *es) *float32 { return &s.Origin2[2] }),
	ef("angles[0]", func(s *es) *float32 { return &s.Angles[0] }),
	ef("angles[1]", func(s *es) *float32 { return &s.Angles[1] }),
	ef("angles[2]", func(s *es) *float32 { return &s.Angles[2] }),
	ef("angles2[0]", func(s *es) *float32 { return &s.Angles2[0] }),
	ef("angles2[1]", func(s *es) *float32 { return &s.Angles2[1] }),
	ef("angles2[2]", func(s *es) *float32 { return &s.Angles2[2] }),
	ei("otherEntityNum", protocol.GEntityNumBits, func(s *es) *int { return &s.OtherEntityNum }),
	ei("otherEntityNum2", protocol.GEntityNumBits, func(s *es) *int { return &s.OtherEntityNum2 }),
	ei("groundEntityNum", protocol.GEntityNumBits, func(s *es) *int { return &s.GroundEntityNum }),
	ei("constantLight", 32, func(s *es) *int { return &s.ConstantLight }),
	ei("loopSound", 16, func(s *es) *int { return &s.LoopSound }),
	ei("loopSoundVolume", 8, func(s *es) *int { return &s.LoopSoundVolume }),
	ei("loopSoundMinDist", 16, func(s *es) *int { return &s.LoopSoundMinDist }),
	ef("loopSoundMaxDist", func(s *es) *float32 { return &s.LoopSoundMaxDist }),
	ef("loopSoundPitch", func(s *es) *float32 { return &s.LoopSoundPitch }),
	ei("loopSoundFlags", 8, func(s *es) *int { return &s.LoopSoundFlags }),
	ei("parent", protocol.GEntityNumBits, func(s *es) *int { return &s.Parent }),
	ei("tag_num", 8, func(s *es) *int { return &s.TagNum }),
	{name: "attach_use_angles", bits: 1, b: func(s *es) *bool { return &s.AttachUseAngles }},
	ef("attach_offset[0]", func(s *es) *float32 { return &s.AttachOffset[0] }),
	ef("attach_offset[1]", func(s *es) *float32 { return &s.AttachOffset[1] }),
	ef("attach_offset[2]", func(s *es) *float32 { return &s.AttachOffset[2] }),
	ei("beam_entnum", protocol.GEntityNumBits, func(s *es) *int { return &s.BeamEntNum }),
	ei("modelindex", 16, func(s *es) *int { return &s.ModelIndex }),
	ei("usageIndex", 16, func(s *es) *int { return &s.UsageIndex }),
	ei("skinNum", 8, func(s *es) *int { return &s.SkinNum }),
	ei("wasframe", 16, func(s *es) *int { return &s.WasFrame }),
	ef("actionWeight", func(s *es) *float32 { return &s.ActionWeight }),
	ei("clientNum", 8, func(s *es) *int { return &s.ClientNum }),
	{name: "groundPlane", bits: 1, b: func(s *es) *bool { return &s.GroundPlane }},
	ei("solid", 24, func(s *es) *int { return &s.Solid }),
	ef("scale", func(s *es) *float32 { return &s.Scale }),
	ef("alpha", func(s *es) *float32 { return &s.Alpha }),
	ei("renderfx", 32, func(s *es) *int { return &s.RenderFX }),
	ef("shader_data[0]", func(s *es) *float32 { return &s.ShaderData[0] }),
	ef("shader_data[1]", func(s *es) *float32 { return &s.ShaderData[1] }),
	ef("shader_time", func(s *es) *float32 { return &s.ShaderTime }),
	ei("eType", 8, func(s *es) *int { return &s.EType }),
	ei("eFlags", 32, func(s *es) *int { return &s.EFlags }),
}

// WriteDeltaEntity writes the fields of to that differ from from. A nil
// from is a zero state. A nil to, or a to with a number outside the entity
// range, removes the entity. Nothing is written for an unchanged entity
// unless force is set.
func (m *Msg) WriteDeltaEntity(from, to *protocol.EntityState, force bool) {
	var zero protocol.EntityState
	if from == nil {
		from = &zero
	}
	if to == nil {
		m.WriteBits(from.Number, protocol.GEntityNumBits)
		m.WriteBits(1, 1)
		return
	}
	if to.Number < 0 || to.Number >= protocol.MaxGEntities {
		m.WriteBits(to.Number, protocol.GEntityNumBits)
		m.WriteBits(1, 1)
		return
	}
	lc := lastChanged(entityStateFields, from, to)
	if lc == -1 && !force {
		return
	}
	m.WriteBits(to.Number, protocol.GEntityNumBits)
	m.WriteBits(0, 1)
	if lc == -1 {
		m.WriteBits(0, 1)
		return
	}
	m.WriteBits(1, 1)
	writeFields(m, entityStateFields, lc, from, to)
}

// ReadEntityNumber reads the entity number and remove bit that start every
// delta entity.
func (m *Msg) ReadEntityNumber() (number int, removed bool) {
	number = m.ReadBits(protocol.GEntityNumBits)
	removed = m.ReadBits(1) == 1
	return number, removed
}

// ReadDeltaEntity reads the body of a delta entity into to, starting from
// from. The number and remove bit have already been read.
func (m *Msg) ReadDeltaEntity(from, to *protocol.EntityState, number int) {
	if from == nil {
		*to = protocol.EntityState{}
	} else if to != from {
		*to = *from
	}
	to.Number = number
	if m.ReadBits(1) == 0 {
		return
	}
	readFields(m, entityStateFields, to)
}

type ps = protocol.PlayerState

func pi(name string, bits int, p func(*ps) *int) netField[ps] {
	return netField[ps]{name: name, bits: bits, i: p}
}

func pf(name string, p func(*ps) *float32) netField[ps] {
	return netField[ps]{name: name, f: p}
}

var playerStateFields = []netField[ps]{
	pi("commandTime", 32, func(s *ps) *int { return &s.CommandTime }),
	pi("pm_type", 8, func(s *ps) *int { return &s.PMType }),
	pi("pm_flags", 16, func(s *ps) *int { return &s.PMFlags }),
	pi("pm_time", 16, func(s *ps) *int { return &s.PMTime }),
	pi("bobCycle", 8, func(s *ps) *int { return &s.BobCycle }),
	pf("origin[0]", func(s *ps) *float32 { return &s.Origin[0] }),
	pf("origin[1]", func(s *ps) *float32 { return &s.Origin[1] }),
	pf("origin[2]", func(s *ps) *float32 { return &s.Origin[2] }),
	pf("velocity[0]", func(s *ps) *float32 { return &s.Velocity[0] }),
	pf("velocity[1]", func(s *ps) *float32 { return &s.Velocity[1] }),
	pf("velocity[2]", func(s *ps) *float32 { return &s.Velocity[2] }),
	pi("gravity", 16, func(s *ps) *int { return &s.Gravity }),
	pi("speed", 16, func(s *ps) *int { return &s.Speed }),
	pi("delta_angles[0]", 16, func(s *ps) *int { return &s.DeltaAngles[0] }),
	pi("delta_angles[1]", 16, func(s *ps) *int { return &s.DeltaAngles[1] }),
	pi("delta_angles[2]", 16, func(s *ps) *int { return &s.DeltaAngles[2] }),
	pi("groundEntityNum", protocol.GEntityNumBits, func(s *ps) *int { return &s.GroundEntityNum }),
	pi("legsTimer", 16, func(s *ps) *int { return &s.LegsTimer }),
	pi("legsAnim", 16, func(s *ps) *int { return &s.LegsAnim }),
	pi("torsoTimer", 16, func(s *ps) *int { return &s.TorsoTimer }),
	pi("torsoAnim", 16, func(s *ps) *int { return &s.TorsoAnim }),
	pi("movementDir", 8, func(s *ps) *int { return &s.MovementDir }),
	pf("grapplePoint[0]", func(s *ps) *float32 { return &s.GrapplePoint[0] }),
	pf("grapplePoint[1]", func(s *ps) *float32 { return &s.GrapplePoint[1] }),
	pf("grapplePoint[2]", func(s *ps) *float32 { return &s.GrapplePoint[2] }),
	pi("clientNum", 8, func(s *ps) *int { return &s.ClientNum }),
	pf("viewangles[0]", func(s *ps) *float32 { return &s.ViewAngles[0] }),
	pf("viewangles[1]", func(s *ps) *float32 { return &s.ViewAngles[1] }),
	pf("viewangles[2]", func(s *ps) *float32 { return &s.ViewAngles[2] }),
	pi("viewheight", -8, func(s *ps) *int { return &s.ViewHeight }),
	pf("fLeanAngle", func(s *ps) *float32 { return &s.LeanAngle }),
	pi("current_music_mood", 8, func(s *ps) *int { return &s.CurrentMusicMood }),
	pi("fallback_music_mood", 8, func(s *ps) *int { return &s.FallbackMusicMood }),
	pf("music_volume", func(s *ps) *float32 { return &s.MusicVolume }),
	pf("music_volume_fade_time", func(s *ps) *float32 { return &s.MusicVolumeFadeTime }),
	pi("reverb_type", 8, func(s *ps) *int { return &s.ReverbType }),
	pf("reverb_level", func(s *ps) *float32 { return &s.ReverbLevel }),
	pf("blend[0]", func(s *ps) *float32 { return &s.Blend[0] }),
	pf("blend[1]", func(s *ps) *float32 { return &s.Blend[1] }),
	pf("blend[2]", func(s *ps) *float32 { return &s.Blend[2] }),
	pf("blend[3]", func(s *ps) *float32 { return &s.Blend[3] }),
	pf("fov", func(s *ps) *float32 { return &s.FOV }),
	pf("camera_origin[0]", func(s *ps) *float32 { return &s.CameraOrigin[0] }),
	pf("camera_origin[1]", func(s *ps) *float32 { return &s.CameraOrigin[1] }),
	pf("camera_origin[2]", func(s *ps) *float32 { return &s.CameraOrigin[2] }),
	pf("camera_angles[0]", func(s *ps) *float32 { return &s.CameraAngles[0] }),
	pf("camera_angles[1]", func(s *ps) *float32 { return &s.CameraAngles[1] }),
	pf("camera_angles[2]", func(s *ps) *float32 { return &s.CameraAngles[2] }),
	pi("camera_flags", 16, func(s *ps) *int { return &s.CameraFlags }),
	pf("camera_offset", func(s *ps) *float32 { return &s.CameraOffset }),
	pf("camera_posofs[0]", func(s *ps) *float32 { return &s.CameraPosOfs[0] }),
	pf("camera_posofs[1]", func(s *ps) *float32 { return &s.CameraPosOfs[1] }),
	pf("camera_posofs[2]", func(s *ps) *float32 { return &s.CameraPosOfs[2] }),
	pi("voted", 2, func(s *ps) *int { return &s.Voted }),
}

// WriteDeltaPlayerstate writes the changed fields of to followed by the
// changed stats and ammo counts. A nil from is a zero state.
func (m *Msg) WriteDeltaPlayerstate(from, to *protocol.PlayerState) {
	var zero protocol.PlayerState
	if from == nil {
		from = &zero
	}
	if lc := lastChanged(playerStateFields, from, to); lc == -1 {
		m.WriteBits(0, 1)
	} else {
		m.WriteBits(1, 1)
		writeFields(m, playerStateFields, lc, from, to)
	}

	statsBits := 0
	for i := range to.Stats {
		if to.Stats[i] != from.Stats[i] {
			statsBits |= 1 << i
		}
	}
	if statsBits == 0 {
		m.WriteBits(0, 1)
	} else {
		m.WriteBits(1, 1)
		m.WriteLong(statsBits)
		for i := range to.Stats {
			if statsBits&(1<<i) != 0 {
				m.WriteShort(to.Stats[i])
			}
		}
	}

	ammoBits := 0
	for i := range to.AmmoAmount {
		if to.AmmoAmount[i] != from.AmmoAmount[i] {
			ammoBits |= 1 << i
		}
	}
	if ammoBits == 0 {
		m.WriteBits(0, 1)
	} else {
		m.WriteBits(1, 1)
		m.WriteShort(ammoBits)
		for i := range to.AmmoAmount {
			if ammoBits&(1<<i) != 0 {
				m.WriteShort(to.AmmoAmount[i])
			}
		}
	}
}

func (m *Msg) ReadDeltaPlayerstate(from, to *protocol.PlayerState) {
	if from == nil {
		*to = protocol.PlayerState{}
	} else if to != from {
		*to = *from
	}
	if m.ReadBits(1) == 1 {
		readFields(m, playerStateFields, to)
	}
	if m.ReadBits(1) == 1 {
		statsBits := uint32(m.ReadLong())
		for i := range to.Stats {
			if statsBits&(1<<uint(i)) != 0 {
				to.Stats[i] = m.ReadShort()
			}
		}
	}
	if m.ReadBits(1) == 1 {
		ammoBits := uint16(m.ReadShort())
		for i := range to.AmmoAmount {
			if ammoBits&(1<<uint(i)) != 0 {
				to.AmmoAmount[i] = m.ReadShort()
			}
		}
	}
}

func (m *Msg) writeDeltaInt(from, to, bits int) {
	if from == to {
		m.WriteBits(0, 1)
		return
	}
	m.WriteBits(1, 1)
	m.WriteBits(to, bits)
}

func (m *Msg) readDeltaInt(from, bits int) int {
	if m.ReadBits(1) == 1 {
		return m.ReadBits(bits)
	}
	return from
}

// WriteDeltaUsercmd writes to against from. Server times close to the
// previous command are sent as an 8 bit offset.
func (m *Msg) WriteDeltaUsercmd(from, to *protocol.UserCmd) {
	if d := to.ServerTime - from.ServerTime; d >= 0 && d < 256 {
		m.WriteBits(1, 1)
		m.WriteBits(d, 8)
	} else {
		m.WriteBits(0, 1)
		m.WriteBits(to.ServerTime, 32)
	}
	for i := range to.Angles {
		m.writeDeltaInt(from.Angles[i], to.Angles[i], 16)
	}
	m.writeDeltaInt(int(from.ForwardMove), int(to.ForwardMove), -8)
	m.writeDeltaInt(int(from.RightMove), int(to.RightMove), -8)
	m.writeDeltaInt(int(from.UpMove), int(to.UpMove), -8)
	m.writeDeltaInt(from.Buttons, to.Buttons, 16)
	m.writeDeltaInt(from.Weapon, to.Weapon, 8)
}

func (m *Msg) ReadDeltaUsercmd(from, to *protocol.UserCmd) {
	if m.ReadBits(1) == 1 {
		to.ServerTime = from.ServerTime + m.ReadBits(8)
	} else {
		to.ServerTime = m.ReadBits(32)
	}
	for i := range to.Angles {
		to.Angles[i] = m.readDeltaInt(from.Angles[i], 16)
	}
	to.ForwardMove = int8(m.readDeltaInt(int(from.ForwardMove), -8))
	to.RightMove = int8(m.readDeltaInt(int(from.RightMove), -8))
	to.UpMove = int8(m.readDeltaInt(int(from.UpMove), -8))
	to.Buttons = m.readDeltaInt(from.Buttons, 16)
	to.Weapon = m.readDeltaInt(from.Weapon, 8)
}
