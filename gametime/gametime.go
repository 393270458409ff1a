// SPDX-License-Identifier: GPL-2.0-or-later

// Package gametime paces the engine frames.
package gametime

import (
	"gofakk/cvar"
	"gofakk/math"
	"gofakk/qtime"
)

// FrameClock hands out the wall time between engine frames.
type FrameClock struct {
	now     func() int
	last    int
	started bool
	count   int
}

// NewFrameClock uses now as the millisecond clock, qtime.Milliseconds when
// nil.
func NewFrameClock(now func() int) *FrameClock {
	if now == nil {
		now = qtime.Milliseconds
	}
	return &FrameClock{now: now}
}

func (c *FrameClock) FrameCount() int { return c.count }

// Next returns the milliseconds since the previous frame. It returns false
// when com_maxfps asks to wait longer, the time is then kept for the next
// call.
func (c *FrameClock) Next(cvars *cvar.Registry) (msec int, ok bool) {
	t := c.now()
	if !c.started {
		c.started = true
		c.last = t
	}
	minMsec := 1
	if fps := cvars.VariableInteger("com_maxfps"); fps > 0 {
		minMsec = 1000 / math.Clamp(1, fps, 1000)
	}
	msec = t - c.last
	if msec < minMsec {
		return 0, false
	}
	c.last = t
	c.count++
	return msec, true
}

// Scale applies fixedtime and timescale to a frame time.
func Scale(cvars *cvar.Registry, msec int) int {
	if f := cvars.VariableInteger("fixedtime"); f > 0 {
		return f
	}
	if ts := cvars.VariableValue("timescale"); ts > 0 {
		msec = int(float32(msec) * ts)
		// a tiny timescale still makes progress
		if msec < 1 {
			msec = 1
		}
	}
	return msec
}
