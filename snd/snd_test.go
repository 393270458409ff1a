// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
	"gofakk/math/vec"
)

type files map[string][]byte

func (f files) ReadFileBytes(name string) ([]byte, error) {
	if b, ok := f[name]; ok {
		return b, nil
	}
	return nil, errs.New(errs.NotFound, "%s", name)
}

// makeWav builds a 16 bit mono PCM file with n samples.
func makeWav(rate, n int) []byte {
	var b bytes.Buffer
	w := func(v interface{}) { binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("RIFF")
	w(uint32(36 + 2*n))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(1))
	w(uint32(rate))
	w(uint32(rate * 2))
	w(uint16(2))
	w(uint16(16))
	b.WriteString("data")
	w(uint32(2 * n))
	b.Write(make([]byte, 2*n))
	return b.Bytes()
}

func TestRegister(t *testing.T) {
	r := NewRegistry(files{})
	assert.Equal(t, Handle(0), r.Register(""))
	a := r.Register("sound/A.wav")
	b := r.Register("sound/b.wav")
	assert.Equal(t, Handle(1), a)
	assert.Equal(t, Handle(2), b)
	assert.Equal(t, a, r.Register("sound\\a.WAV"))
	assert.Equal(t, "sound/a.wav", r.Name(a))
	assert.Equal(t, "", r.Name(0))
	assert.Equal(t, 2, r.NumSounds())
	r.Clear()
	assert.Equal(t, 0, r.NumSounds())
	assert.Equal(t, "", r.Name(a))
}

func TestLength(t *testing.T) {
	r := NewRegistry(files{
		"sound/half.wav": makeWav(22050, 11025),
		"sound/bad.wav":  []byte("not a wave file at all, definitely not"),
	})
	assert.InDelta(t, 0.5, r.Length("sound/half.wav"), 1e-4)
	r.Register("sound/half.wav")
	assert.InDelta(t, 0.5, r.Length("sound/half.wav"), 1e-4)
	assert.Equal(t, float32(-1), r.Length("sound/missing.wav"))
	assert.Equal(t, float32(-1), r.Length("sound/bad.wav"))
}

func TestAmplitudes(t *testing.T) {
	r := NewRegistry(files{"sound/dialog/hello.amp": {1, 2, 3}})
	assert.Equal(t, []byte{1, 2, 3}, r.Amplitudes("sound/dialog/hello.wav"))
	assert.Nil(t, r.Amplitudes("sound/dialog/none.wav"))
}

func TestQueue(t *testing.T) {
	var q Queue
	origin := vec.Vec3{1, 2, 3}
	q.Start(&origin, 5, 1, 3, 1, 64)
	q.Start(nil, 6, 2, 4, 0.5, 64)
	q.Start(nil, 6, 2, 0, 0.5, 64)
	q.Stop(6, 2)
	q.AddLoopingSound(origin, vec.Vec3{}, 7, 1, 32)

	ev, loops := q.Drain()
	require.Len(t, ev, 3)
	assert.True(t, ev[0].Fixed)
	assert.Equal(t, origin, ev[0].Origin)
	assert.False(t, ev[1].Fixed)
	assert.Equal(t, EventStop, ev[2].Kind)
	require.Len(t, loops, 1)

	ev, loops = q.Drain()
	assert.Empty(t, ev)
	assert.Len(t, loops, 1)
	q.ClearLoopingSounds()
	_, loops = q.Drain()
	assert.Empty(t, loops)

	for i := 0; i < MaxQueuedEvents+3; i++ {
		q.Stop(1, 1)
	}
	assert.Equal(t, 3, q.Dropped())
	q.StopAll()
	ev, _ = q.Drain()
	require.Len(t, ev, 1)
	assert.Equal(t, EventStopAll, ev[0].Kind)
}

func TestQueueConcurrent(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	wg.Add(1)
	got := 0
	go func() {
		defer wg.Done()
		for got < 100 {
			ev, _ := q.Drain()
			got += len(ev)
		}
	}()
	for i := 0; i < 100; i++ {
		q.Stop(i, 0)
	}
	wg.Wait()
	assert.Equal(t, 100, got)
}

func TestChannels(t *testing.T) {
	c := NewChannels()
	c.Apply(Event{Kind: EventRespatialize, EntNum: 1, Axis: vec.IdentityAxis()})

	ahead := vec.Vec3{100, 0, 0}
	c.Apply(Event{Kind: EventStart, Fixed: true, Origin: ahead, EntNum: 2, Channel: 1, Sfx: 1, Volume: 1, MinDist: 200})
	c.Apply(Event{Kind: EventStart, EntNum: 1, Channel: 2, Sfx: 2, Volume: 0.5})
	c.Apply(Event{Kind: EventStart, EntNum: 3, Channel: -1, Sfx: 3, Volume: 1})

	act := c.Active()
	require.Len(t, act, 3)
	assert.Equal(t, 1, act[0].EntNum)
	assert.Equal(t, float32(0.5), act[0].Left)
	assert.Equal(t, float32(0.5), act[0].Right)
	assert.InDelta(t, 1, act[1].Left, 1e-6)
	assert.InDelta(t, act[1].Left, act[1].Right, 1e-6)
	assert.Equal(t, -1, act[2].Channel)

	// the listener's left side, y points left
	c.Apply(Event{Kind: EventStart, Fixed: true, Origin: vec.Vec3{0, 500, 0}, EntNum: 4, Channel: 0, Sfx: 4, Volume: 1})
	act = c.Active()
	left := act[len(act)-2]
	require.Equal(t, 4, left.EntNum)
	assert.Greater(t, left.Left, left.Right)

	c.Apply(Event{Kind: EventStop, EntNum: 1, Channel: 2})
	assert.Len(t, c.Active(), 3)
	c.Finish(act[len(act)-1])
	assert.Len(t, c.Active(), 2)
	c.Apply(Event{Kind: EventStopAll})
	assert.Empty(t, c.Active())
}
