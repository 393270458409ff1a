// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"sort"

	"gofakk/math"
	"gofakk/math/vec"
)

const (
	MaxEntityChannels = 8
	clipDistance      = 1000.0
)

// Playing is a started sound with its current stereo volume.
type Playing struct {
	Event
	Left  float32
	Right float32
}

func (p *Playing) spatialize(l *listener, origins func(int) (vec.Vec3, bool)) {
	if !p.Fixed && p.EntNum == l.entnum {
		p.Left, p.Right = p.Volume, p.Volume
		return
	}
	o := p.Origin
	if !p.Fixed {
		if eo, ok := origins(p.EntNum); ok {
			o = eo
		}
	}
	v := vec.Sub(o, l.origin)
	dist := v.Length() - p.MinDist
	if dist < 0 {
		dist = 0
	}
	scale := 1 - dist/clipDistance
	v = v.Normalize()
	dot := vec.Dot(l.right, v)
	p.Left = math.Clamp(0, (1-dot)*scale, 1) * p.Volume
	p.Right = math.Clamp(0, (1+dot)*scale, 1) * p.Volume
}

type channel [MaxEntityChannels]*Playing

type listener struct {
	entnum int
	origin vec.Vec3
	right  vec.Vec3
}

// Channels is the audio side view of what plays where. It is only used by
// the goroutine that drains the Queue.
type Channels struct {
	sounds   map[int]*channel
	local    []*Playing
	listener listener
	// Origins resolves the position of entity sounds. It may be nil.
	Origins func(entnum int) (vec.Vec3, bool)
}

func NewChannels() *Channels {
	return &Channels{
		sounds:   make(map[int]*channel),
		listener: listener{entnum: -1},
	}
}

func (c *Channels) origins(n int) (vec.Vec3, bool) {
	if c.Origins == nil {
		return vec.Vec3{}, false
	}
	return c.Origins(n)
}

// Apply runs one drained event.
func (c *Channels) Apply(ev Event) {
	switch ev.Kind {
	case EventStart:
		p := &Playing{Event: ev}
		p.spatialize(&c.listener, c.origins)
		if ev.Channel < 0 || ev.Channel >= MaxEntityChannels {
			c.local = append(c.local, p)
			return
		}
		ch, ok := c.sounds[ev.EntNum]
		if !ok {
			ch = &channel{}
			c.sounds[ev.EntNum] = ch
		}
		ch[ev.Channel] = p
	case EventStop:
		if ch, ok := c.sounds[ev.EntNum]; ok && ev.Channel >= 0 && ev.Channel < MaxEntityChannels {
			ch[ev.Channel] = nil
		}
	case EventStopAll:
		c.sounds = make(map[int]*channel)
		c.local = nil
	case EventRespatialize:
		c.listener = listener{
			entnum: ev.EntNum,
			origin: ev.Origin,
			right:  ev.Axis[1].Neg(),
		}
		for _, p := range c.Active() {
			p.spatialize(&c.listener, c.origins)
		}
	}
}

// Active lists the playing sounds ordered by entity and channel, local
// sounds last.
func (c *Channels) Active() []*Playing {
	nums := make([]int, 0, len(c.sounds))
	for n := range c.sounds {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	var out []*Playing
	for _, n := range nums {
		for _, p := range c.sounds[n] {
			if p != nil {
				out = append(out, p)
			}
		}
	}
	return append(out, c.local...)
}

// Finish forgets a sound the mixer is done with.
func (c *Channels) Finish(p *Playing) {
	if ch, ok := c.sounds[p.EntNum]; ok && p.Channel >= 0 && p.Channel < MaxEntityChannels && ch[p.Channel] == p {
		ch[p.Channel] = nil
		return
	}
	for i, l := range c.local {
		if l == p {
			c.local = append(c.local[:i], c.local[i+1:]...)
			return
		}
	}
}
