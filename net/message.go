// SPDX-License-Identifier: GPL-2.0-or-later

package net

import (
	"math"

	"github.com/chewxy/math32"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/protocol"
)

// Msg is a bit packed message buffer. Values are written least significant
// bit first. Out of band messages write 8, 16 and 32 bit values as raw
// little endian bytes.
type Msg struct {
	data      []byte
	maxsize   int
	cursize   int
	bit       int
	readcount int
	oob       bool

	// AllowOverflow turns write overflows into a flag instead of a fatal
	// error.
	AllowOverflow bool
	Overflowed    bool
	// ReadOverflowed is set by the first read past the end.
	ReadOverflowed bool
}

func NewMsg(size int) *Msg {
	m := &Msg{}
	m.Init(make([]byte, size))
	return m
}

// Init uses buf as backing store. The message is empty.
func (m *Msg) Init(buf []byte) {
	*m = Msg{data: buf, maxsize: len(buf)}
}

// SetData makes the message hold data for reading.
func (m *Msg) SetData(data []byte) {
	if len(data) > m.maxsize {
		m.data = make([]byte, len(data))
		m.maxsize = len(data)
	}
	n := copy(m.data, data)
	m.cursize = n
	m.BeginReading()
}

func (m *Msg) SetOOB(oob bool) {
	m.oob = oob
}

func (m *Msg) Clear() {
	m.cursize = 0
	m.bit = 0
	m.readcount = 0
	m.Overflowed = false
	m.ReadOverflowed = false
}

func (m *Msg) BeginReading() {
	m.bit = 0
	m.readcount = 0
	m.ReadOverflowed = false
}

func (m *Msg) Bytes() []byte {
	return m.data[:m.cursize]
}

func (m *Msg) Len() int {
	return m.cursize
}

func (m *Msg) MaxSize() int {
	return m.maxsize
}

// ReadCount is the number of bytes consumed by reads.
func (m *Msg) ReadCount() int {
	return m.readcount
}

func (m *Msg) overflow(want int) bool {
	if want <= m.maxsize {
		return false
	}
	if !m.AllowOverflow {
		errs.Raise(errs.Fatal, errs.Overflow, "MSG_WriteBits: overflow without allowoverflow set (max %d)", m.maxsize)
	}
	m.Overflowed = true
	return true
}

func (m *Msg) writeRaw(value uint32, n int) {
	if m.overflow(m.cursize + n) {
		return
	}
	for i := 0; i < n; i++ {
		m.data[m.cursize] = byte(value >> (8 * i))
		m.cursize++
	}
	m.bit = m.cursize << 3
}

// WriteBits stores the low |bits| bits of value. A negative width marks a
// signed field.
func (m *Msg) WriteBits(value, bits int) {
	if bits == 0 || bits < -31 || bits > 32 {
		errs.Raise(errs.Fatal, errs.BadFormat, "MSG_WriteBits: bad bits %d", bits)
	}
	if bits < 0 {
		bits = -bits
	}
	if m.Overflowed {
		return
	}
	v := uint32(value)
	if m.oob && (bits == 8 || bits == 16 || bits == 32) {
		m.bit = m.cursize << 3
		m.writeRaw(v, bits/8)
		return
	}
	if m.overflow((m.bit + bits + 7) >> 3) {
		return
	}
	for i := 0; i < bits; i++ {
		idx := m.bit >> 3
		off := uint(m.bit & 7)
		if off == 0 {
			m.data[idx] = 0
		}
		if v&(1<<uint(i)) != 0 {
			m.data[idx] |= 1 << off
		}
		m.bit++
	}
	m.cursize = (m.bit + 7) >> 3
}

// ReadBits returns -1 and sets ReadOverflowed when the message holds fewer
// than |bits| unread bits. Negative widths sign extend.
func (m *Msg) ReadBits(bits int) int {
	signed := bits < 0
	if signed {
		bits = -bits
	}
	if m.oob && (bits == 8 || bits == 16 || bits == 32) {
		n := bits / 8
		if m.readcount+n > m.cursize {
			m.readcount = m.cursize
			m.ReadOverflowed = true
			return -1
		}
		var v uint32
		for i := 0; i < n; i++ {
			v |= uint32(m.data[m.readcount+i]) << (8 * i)
		}
		m.readcount += n
		m.bit = m.readcount << 3
		return extend(v, bits, signed)
	}
	if m.bit+bits > m.cursize<<3 {
		m.bit = m.cursize << 3
		m.readcount = m.cursize
		m.ReadOverflowed = true
		return -1
	}
	var v uint32
	for i := 0; i < bits; i++ {
		if m.data[m.bit>>3]&(1<<uint(m.bit&7)) != 0 {
			v |= 1 << uint(i)
		}
		m.bit++
	}
	m.readcount = (m.bit + 7) >> 3
	return extend(v, bits, signed)
}

func extend(v uint32, bits int, signed bool) int {
	if bits == 32 {
		return int(int32(v))
	}
	if signed && v&(1<<uint(bits-1)) != 0 {
		return int(int32(v | ^uint32(0)<<uint(bits)))
	}
	return int(v)
}

func rint(x float32) int {
	if x > 0 {
		return int(x + 0.5)
	}
	return int(x - 0.5)
}

func (m *Msg) WriteByte(c int) {
	m.WriteBits(c, 8)
}

func (m *Msg) WriteShort(c int) {
	m.WriteBits(c, 16)
}

func (m *Msg) WriteLong(c int) {
	m.WriteBits(c, 32)
}

func (m *Msg) WriteFloat(f float32) {
	m.WriteBits(int(int32(math.Float32bits(f))), 32)
}

func (m *Msg) writeString(s string, max int) {
	if len(s) >= max {
		conlog.Warnf("MSG_WriteString: %d characters exceeds %d", len(s), max)
		m.WriteByte(0)
		return
	}
	for i := 0; i < len(s); i++ {
		m.WriteByte(int(s[i]))
	}
	m.WriteByte(0)
}

func (m *Msg) WriteString(s string) {
	m.writeString(s, protocol.MaxStringChars)
}

// WriteBigString is used for config strings, which can hold a whole info
// string.
func (m *Msg) WriteBigString(s string) {
	m.writeString(s, protocol.BigInfoString)
}

func (m *Msg) WriteAngle(f float32) {
	m.WriteByte(rint(f*256/360) & 255)
}

func (m *Msg) WriteAngle16(f float32) {
	m.WriteShort(rint(f*65536/360) & 65535)
}

// WriteCoord stores 13.3 fixed point coords, max range +-4096.
func (m *Msg) WriteCoord(f float32) {
	m.WriteShort(rint(f * 8))
}

func (m *Msg) WriteDir(dir vec.Vec3) {
	for _, v := range dir {
		b := rint((v + 1) * 127.5)
		if b < 0 {
			b = 0
		} else if b > 255 {
			b = 255
		}
		m.WriteByte(b)
	}
}

func (m *Msg) WriteData(data []byte) {
	for _, b := range data {
		m.WriteByte(int(b))
	}
}

func (m *Msg) ReadByte() int {
	return m.ReadBits(8)
}

// ReadShort sign extends. -1 is also returned past the end of the message,
// check ReadOverflowed to tell them apart.
func (m *Msg) ReadShort() int {
	return m.ReadBits(-16)
}

func (m *Msg) ReadLong() int {
	return m.ReadBits(32)
}

func (m *Msg) ReadFloat() float32 {
	return math.Float32frombits(uint32(m.ReadBits(32)))
}

func (m *Msg) readString(max int, stopAtNewline bool) string {
	buf := make([]byte, 0, 32)
	for {
		c := m.ReadByte()
		if c <= 0 || stopAtNewline && c == '\n' {
			break
		}
		if len(buf) < max-1 {
			buf = append(buf, byte(c))
		}
	}
	return string(buf)
}

func (m *Msg) ReadString() string {
	return m.readString(protocol.MaxStringChars, false)
}

func (m *Msg) ReadBigString() string {
	return m.readString(protocol.BigInfoString, false)
}

func (m *Msg) ReadStringLine() string {
	return m.readString(protocol.MaxStringChars, true)
}

func (m *Msg) ReadAngle() float32 {
	return float32(m.ReadByte()) * (360.0 / 256)
}

func (m *Msg) ReadAngle16() float32 {
	return float32(uint16(m.ReadShort())) * (360.0 / 65536)
}

func (m *Msg) ReadCoord() float32 {
	return float32(m.ReadShort()) * (1.0 / 8)
}

func (m *Msg) ReadDir() vec.Vec3 {
	var dir vec.Vec3
	for i := range dir {
		dir[i] = float32(m.ReadByte())/127.5 - 1
	}
	if l := dir.Length(); l > 0 && math32.Abs(l-1) > 1e-6 {
		dir = dir.Normalize()
	}
	return dir
}

func (m *Msg) ReadData(data []byte) {
	for i := range data {
		data[i] = byte(m.ReadByte())
	}
}
