// SPDX-License-Identifier: GPL-2.0-or-later

// Package crc is the 16 bit CCITT checksum modules get through CalcCRC.
package crc

import "hash"

const (
	poly    = 0x1021
	initial = 0xffff
	Size    = 2
)

var table = func() (t [256]uint16) {
	for i := range t {
		c := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if c&0x8000 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

// Digest is a running checksum. The zero value is not ready, use New.
type Digest struct {
	crc uint16
}

var _ hash.Hash = (*Digest)(nil)

func New() *Digest {
	return &Digest{crc: initial}
}

func (d *Digest) Write(p []byte) (int, error) {
	for _, v := range p {
		d.crc = table[byte(d.crc>>8)^v] ^ d.crc<<8
	}
	return len(p), nil
}

func (d *Digest) Sum16() uint16 { return d.crc }

// Sum appends the checksum big endian.
func (d *Digest) Sum(b []byte) []byte {
	return append(b, byte(d.crc>>8), byte(d.crc))
}

func (d *Digest) Reset()         { d.crc = initial }
func (d *Digest) Size() int      { return Size }
func (d *Digest) BlockSize() int { return 1 }

// Checksum is the CRC of p.
func Checksum(p []byte) uint16 {
	d := New()
	d.Write(p)
	return d.Sum16()
}
