// SPDX-License-Identifier: GPL-2.0-or-later

package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want uint16
	}{
		{"", 0xffff},
		{"123456789", 0x29b1},
		{"A", 0xb915},
	} {
		assert.Equalf(t, tc.want, Checksum([]byte(tc.in)), "%q", tc.in)
	}
}

func TestDigestStreams(t *testing.T) {
	d := New()
	d.Write([]byte("1234"))
	d.Write([]byte("56789"))
	assert.Equal(t, uint16(0x29b1), d.Sum16())
	assert.Equal(t, []byte{0x29, 0xb1}, d.Sum(nil))

	d.Reset()
	assert.Equal(t, uint16(0xffff), d.Sum16())
}
