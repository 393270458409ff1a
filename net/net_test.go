// SPDX-License-Identifier: GPL-2.0-or-later

package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/rand"
)

func TestPrimitives(t *testing.T) {
	m := NewMsg(64)
	m.WriteByte(255)
	m.WriteShort(-1)
	m.WriteLong(0x7FFFFFFF)
	m.WriteFloat(3.5)
	m.WriteAngle(180)
	m.WriteCoord(-12.375)
	m.WriteString("hi")

	m.BeginReading()
	assert.Equal(t, 255, m.ReadByte())
	assert.Equal(t, -1, m.ReadShort())
	assert.Equal(t, 0x7FFFFFFF, m.ReadLong())
	assert.Equal(t, float32(3.5), m.ReadFloat())
	assert.InDelta(t, 180, m.ReadAngle(), 1.40625)
	assert.Equal(t, float32(-12.375), m.ReadCoord())
	assert.Equal(t, "hi", m.ReadString())
	assert.False(t, m.ReadOverflowed)
	assert.Equal(t, -1, m.ReadByte())
	assert.True(t, m.ReadOverflowed)
}

func TestBitsRoundTrip(t *testing.T) {
	m := NewMsg(1024)
	type entry struct{ value, bits int }
	var written []entry
	g := rand.New(7)
	for i := 0; i < 300; i++ {
		bits := 1 + g.Intn(32)
		var v int
		switch {
		case bits == 32:
			v = int(int32(g.Uint32()))
		case g.Intn(2) == 0 && bits > 1:
			v = g.Intn(1<<bits) - 1<<(bits-1)
			bits = -bits
		default:
			v = g.Intn(1 << bits)
		}
		m.WriteBits(v, bits)
		written = append(written, entry{v, bits})
	}
	m.BeginReading()
	for i, e := range written {
		require.Equal(t, e.value, m.ReadBits(e.bits), "entry %d width %d", i, e.bits)
	}
	assert.False(t, m.ReadOverflowed)
}

func TestBitLayout(t *testing.T) {
	m := NewMsg(4)
	m.WriteBits(1, 1)
	m.WriteBits(0, 1)
	m.WriteBits(3, 2)
	m.WriteBits(0xA, 4)
	m.WriteBits(0x1FF, 9)
	assert.Equal(t, []byte{0xAD, 0xFF, 0x01}, m.Bytes())
}

func TestOutOfBand(t *testing.T) {
	m := NewMsg(16)
	m.SetOOB(true)
	m.WriteLong(-1)
	m.WriteShort(0x1234)
	m.WriteByte(7)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x34, 0x12, 7}, m.Bytes())

	m.BeginReading()
	assert.Equal(t, -1, m.ReadLong())
	assert.Equal(t, 0x1234, m.ReadShort())
	assert.Equal(t, 7, m.ReadByte())
	assert.Equal(t, 7, m.ReadCount())
}

func TestOverflow(t *testing.T) {
	m := NewMsg(2)
	m.AllowOverflow = true
	m.WriteShort(1)
	m.WriteByte(2)
	assert.True(t, m.Overflowed)
	assert.Equal(t, 2, m.Len())

	strict := NewMsg(1)
	err := func() (err *errs.ComError) {
		defer func() { err = errs.Recover(recover()) }()
		strict.WriteShort(1)
		return nil
	}()
	require.NotNil(t, err)
	assert.Equal(t, errs.Fatal, err.Code)
	assert.True(t, errs.Is(err, errs.Overflow))
}

func TestStrings(t *testing.T) {
	m := NewMsg(4096)
	m.WriteString(string(bytes.Repeat([]byte{'a'}, protocol.MaxStringChars)))
	m.WriteString("line one\nline two")
	m.WriteBigString(string(bytes.Repeat([]byte{'b'}, 2000)))
	m.BeginReading()
	assert.Equal(t, "", m.ReadString())
	assert.Equal(t, "line one", m.ReadStringLine())
	assert.Equal(t, "line two", m.ReadString())
	assert.Len(t, m.ReadBigString(), 2000)
}

func TestAnglesAndDirs(t *testing.T) {
	m := NewMsg(64)
	m.WriteAngle16(90)
	m.WriteAngle(-90)
	m.WriteDir(vec.Vec3{0, 0, 1})
	m.WriteData([]byte{1, 2, 3})
	m.BeginReading()
	assert.InDelta(t, 90, m.ReadAngle16(), 0.01)
	assert.InDelta(t, 270, m.ReadAngle(), 1.40625)
	d := m.ReadDir()
	assert.InDelta(t, 1, d.Length(), 1e-5)
	assert.InDelta(t, 1, d[2], 0.01)
	buf := make([]byte, 3)
	m.ReadData(buf)
	assert.Equal(t, []byte{1, 2, 3}, buf)
}

func randomFields[T any](g *rand.Generator, fields []netField[T], s *T) {
	for i := range fields {
		f := &fields[i]
		if g.Intn(3) == 0 {
			continue
		}
		switch {
		case f.f != nil:
			if g.Intn(2) == 0 {
				*f.f(s) = float32(g.Intn(8192) - 4096)
			} else {
				*f.f(s) = float32(g.Intn(200000)-100000) / 7
			}
		case f.b != nil:
			*f.b(s) = g.Intn(2) == 1
		case f.bits == 32:
			*f.i(s) = int(int32(g.Uint32()))
		case f.bits < 0:
			*f.i(s) = g.Intn(1<<-f.bits) - 1<<(-f.bits-1)
		default:
			*f.i(s) = g.Intn(1 << f.bits)
		}
	}
}

func TestDeltaEntityRoundTrip(t *testing.T) {
	g := rand.New(11)
	for i := 0; i < 50; i++ {
		from := protocol.EntityState{Number: 7}
		to := protocol.EntityState{Number: 7}
		randomFields(&g, entityStateFields, &from)
		randomFields(&g, entityStateFields, &to)

		m := NewMsg(protocol.MaxMsgLen)
		m.WriteDeltaEntity(&from, &to, false)
		m.BeginReading()
		if m.Len() == 0 {
			assert.Equal(t, from, to)
			continue
		}
		n, removed := m.ReadEntityNumber()
		require.Equal(t, 7, n)
		require.False(t, removed)
		var got protocol.EntityState
		m.ReadDeltaEntity(&from, &got, n)
		require.Equal(t, to, got)
		assert.False(t, m.ReadOverflowed)
	}
}

func TestDeltaEntityFields(t *testing.T) {
	assert.Len(t, entityStateFields, 65)
	assert.Len(t, playerStateFields, 54)
	seen := map[string]bool{}
	for _, f := range entityStateFields {
		assert.False(t, seen[f.name], f.name)
		seen[f.name] = true
	}
}

func TestDeltaEntityControl(t *testing.T) {
	s := protocol.EntityState{Number: 12, ModelIndex: 3}

	m := NewMsg(64)
	m.WriteDeltaEntity(&s, &s, false)
	assert.Equal(t, 0, m.Len())

	m.WriteDeltaEntity(&s, &s, true)
	assert.Equal(t, 2, m.Len())
	m.BeginReading()
	n, removed := m.ReadEntityNumber()
	assert.Equal(t, 12, n)
	assert.False(t, removed)
	var got protocol.EntityState
	m.ReadDeltaEntity(&s, &got, n)
	assert.Equal(t, s, got)

	m.Clear()
	m.WriteDeltaEntity(&s, nil, false)
	m.WriteDeltaEntity(nil, &protocol.EntityState{Number: -1}, false)
	m.BeginReading()
	n, removed = m.ReadEntityNumber()
	assert.Equal(t, 12, n)
	assert.True(t, removed)
	_, removed = m.ReadEntityNumber()
	assert.True(t, removed)

	// only the origin changes: lc is the index of origin[0]
	m.Clear()
	to := s
	to.Origin[0] = 10
	m.WriteDeltaEntity(&s, &to, false)
	m.BeginReading()
	m.ReadEntityNumber()
	assert.Equal(t, 1, m.ReadBits(1))
	assert.Equal(t, 20, m.ReadBits(8))
}

func TestDeltaPlayerstateRoundTrip(t *testing.T) {
	g := rand.New(5)
	for i := 0; i < 50; i++ {
		var from, to protocol.PlayerState
		randomFields(&g, playerStateFields, &from)
		randomFields(&g, playerStateFields, &to)
		for j := range to.Stats {
			if g.Intn(4) == 0 {
				to.Stats[j] = g.Intn(65536) - 32768
			}
		}
		for j := range to.AmmoAmount {
			if g.Intn(4) == 0 {
				to.AmmoAmount[j] = g.Intn(1000)
			}
		}
		m := NewMsg(protocol.MaxMsgLen)
		m.WriteDeltaPlayerstate(&from, &to)
		m.BeginReading()
		var got protocol.PlayerState
		m.ReadDeltaPlayerstate(&from, &got)
		require.Equal(t, to, got)
	}

	m := NewMsg(16)
	m.WriteDeltaPlayerstate(nil, &protocol.PlayerState{})
	assert.Equal(t, 1, m.Len())
}

func TestDeltaUsercmd(t *testing.T) {
	from := protocol.UserCmd{ServerTime: 1000, Angles: [3]int{1, 2, 3}}
	for _, to := range []protocol.UserCmd{
		{ServerTime: 1050, Angles: [3]int{1, 2, 3}},
		{ServerTime: 99999, Angles: [3]int{65535, 0, 3}, ForwardMove: -127, RightMove: 127, UpMove: -1, Buttons: 5, Weapon: 2},
		{ServerTime: 500},
	} {
		m := NewMsg(64)
		m.WriteDeltaUsercmd(&from, &to)
		m.BeginReading()
		var got protocol.UserCmd
		m.ReadDeltaUsercmd(&from, &got)
		assert.Equal(t, to, got)
	}
}

func TestLoopbackFIFO(t *testing.T) {
	l := NewLoopback(DefaultLoopbackSlots, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Send(ClientToServer, []byte{byte(i)}))
		require.NoError(t, l.Send(ServerToClient, []byte{byte(100 + i)}))
	}
	m := NewMsg(protocol.MaxMsgLen)
	for i := 0; i < 5; i++ {
		require.True(t, l.Receive(ServerToClient, m))
		assert.Equal(t, []byte{byte(100 + i)}, m.Bytes())
	}
	assert.False(t, l.Receive(ServerToClient, m))
	assert.Equal(t, 5, l.Pending(ClientToServer))
	for i := 0; i < 5; i++ {
		require.True(t, l.Receive(ClientToServer, m))
		assert.Equal(t, 0, m.ReadCount())
		assert.Equal(t, byte(i), m.Bytes()[0])
	}
}

func TestLoopbackOverrun(t *testing.T) {
	l := NewLoopback(3, nil)
	for i := 0; i < 6; i++ {
		require.NoError(t, l.Send(ServerToClient, []byte{byte(i)}))
	}
	m := NewMsg(16)
	var got []byte
	for l.Receive(ServerToClient, m) {
		got = append(got, m.Bytes()[0])
	}
	// four slots, the two oldest packets were overwritten
	assert.Equal(t, []byte{2, 3, 4, 5}, got)

	err := l.Send(ClientToServer, make([]byte, protocol.MaxMsgLen+1))
	assert.True(t, errs.Is(err, errs.Overflow))
}

func TestHandoff(t *testing.T) {
	l := NewLoopback(DefaultLoopbackSlots, nil)
	_, ok := l.Handoff.TakeSnapshot()
	assert.False(t, ok)
	l.Handoff.PutSnapshot(&protocol.Snapshot{ServerTime: 50})
	l.Handoff.PutSnapshot(&protocol.Snapshot{ServerTime: 100})
	s, ok := l.Handoff.TakeSnapshot()
	require.True(t, ok)
	assert.Equal(t, 100, s.ServerTime)
	_, ok = l.Handoff.TakeSnapshot()
	assert.False(t, ok)

	require.NoError(t, l.Send(ClientToServer, []byte{1}))
	l.Handoff.PutSnapshot(&protocol.Snapshot{})
	l.Clear()
	assert.Equal(t, 0, l.Pending(ClientToServer))
	_, ok = l.Handoff.TakeSnapshot()
	assert.False(t, ok)
}
