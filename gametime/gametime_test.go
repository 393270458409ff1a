// SPDX-License-Identifier: GPL-2.0-or-later

package gametime

import (
	"testing"

	"gofakk/cvar"
)

func TestMaxFPS(t *testing.T) {
	now := 1000
	c := NewFrameClock(func() int { return now })
	cv := cvar.New()
	cv.Get("com_maxfps", "100", cvar.ARCHIVE)

	if _, ok := c.Next(cv); ok {
		t.Fatalf("first frame ran with no time passed")
	}
	for _, tc := range []struct {
		advance int
		msec    int
		ok      bool
	}{
		{5, 0, false},
		{5, 10, true},
		{3, 0, false},
		{30, 33, true},
	} {
		now += tc.advance
		msec, ok := c.Next(cv)
		if ok != tc.ok || msec != tc.msec {
			t.Errorf("after +%d: Next()=%d,%v, want %d,%v", tc.advance, msec, ok, tc.msec, tc.ok)
		}
	}
	if c.FrameCount() != 2 {
		t.Errorf("FrameCount=%d, want 2", c.FrameCount())
	}
}

func TestScale(t *testing.T) {
	cv := cvar.New()
	cv.Get("fixedtime", "0", cvar.CHEAT)
	cv.Get("timescale", "1", cvar.CHEAT)
	for _, tc := range []struct {
		fixed, scale string
		in, out      int
	}{
		{"0", "1", 16, 16},
		{"0", "0.5", 16, 8},
		{"0", "0.001", 16, 1},
		{"50", "1", 16, 50},
	} {
		cv.ForceSet("fixedtime", tc.fixed)
		cv.ForceSet("timescale", tc.scale)
		if got := Scale(cv, tc.in); got != tc.out {
			t.Errorf("Scale(%d) fixed=%s scale=%s = %d, want %d", tc.in, tc.fixed, tc.scale, got, tc.out)
		}
	}
}
