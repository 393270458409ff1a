// SPDX-License-Identifier: GPL-2.0-or-later

package alias

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIsDeterministic(t *testing.T) {
	a := NewRegistry(1234)
	b := NewRegistry(1234)
	for _, r := range []*Registry{a, b} {
		require.True(t, r.Add(Global, "pain", "a.wav", ""))
		require.True(t, r.Add(Global, "pain", "b.wav", ""))
	}
	for i := 0; i < 50; i++ {
		x, ok := a.FindRandom(Global, "pain")
		require.True(t, ok)
		y, _ := b.FindRandom(Global, "pain")
		if x != y {
			t.Fatalf("sample %d: %q != %q", i, x, y)
		}
	}
}

func TestRandomIsUniform(t *testing.T) {
	r := NewRegistry(99)
	r.Add(Global, "pain", "a.wav", "")
	r.Add(Global, "pain", "b.wav", "")
	const n = 10000
	count := map[string]int{}
	for i := 0; i < n; i++ {
		c, _ := r.FindRandom(Global, "pain")
		count[c]++
	}
	for _, c := range []string{"a.wav", "b.wav"} {
		share := float64(count[c]) / n
		if share < 0.45 || share > 0.55 {
			t.Errorf("%s chosen %.3f of the time, want within [0.45, 0.55]", c, share)
		}
	}
}

func TestCandidateCap(t *testing.T) {
	r := NewRegistry(0)
	for i := 0; i < MaxCandidates; i++ {
		require.True(t, r.Add(Global, "snd", fmt.Sprintf("s%d.wav", i), ""))
	}
	assert.False(t, r.Add(Global, "snd", "overflow.wav", ""))
	assert.Len(t, r.List(Global)[0].Candidates, MaxCandidates)
}

func TestModelFallback(t *testing.T) {
	r := NewRegistry(0)
	r.Add(Global, "idle_fx", "global.wav", "")
	r.Add(Model(3), "step", "model.wav", "volume 0.5")

	c, ok := r.FindRandom(Model(3), "STEP")
	require.True(t, ok)
	assert.Equal(t, "model.wav", c)
	p, _ := r.Params(Model(3), "step")
	assert.Equal(t, "volume 0.5", p)

	c, ok = r.FindRandom(Model(3), "idle_fx")
	require.True(t, ok)
	assert.Equal(t, "global.wav", c)

	_, ok = r.FindRandom(Global, "step")
	assert.False(t, ok)

	r.Clear(Model(3))
	_, ok = r.FindRandom(Model(3), "step")
	assert.False(t, ok)
	_, ok = r.FindRandom(Model(3), "idle_fx")
	assert.True(t, ok)
}

type firstOnly struct{ calls int }

func (f *firstOnly) Choose(e *Entry, random bool, entity int) (string, bool) {
	f.calls++
	if entity == 1 {
		return e.Candidates[0], true
	}
	return "", false
}

func TestFindDialog(t *testing.T) {
	r := NewRegistry(5)
	r.Add(Model(1), "hello", "h1.wav", "")
	r.Add(Model(1), "hello", "h2.wav", "")

	plain := NewRegistry(5)
	plain.Add(Model(1), "hello", "h1.wav", "")
	plain.Add(Model(1), "hello", "h2.wav", "")
	for i := 0; i < 20; i++ {
		a, _ := r.FindDialog(Model(1), "hello", true, 0)
		b, _ := plain.FindRandom(Model(1), "hello")
		require.Equal(t, b, a)
	}

	h := &firstOnly{}
	r.SetDialogHistory(h)
	for i := 0; i < 10; i++ {
		c, _ := r.FindDialog(Model(1), "hello", true, 1)
		assert.Equal(t, "h1.wav", c)
	}
	assert.Equal(t, 10, h.calls)

	r.UpdateDialog(Model(1), "hello", 3, true, 1500)
	r.AddActorDialog(Model(1), "hello", 7, 1, false, 200)
	r.AddActorDialog(Model(1), "hello", 7, 2, true, 300)
	e := r.List(Model(1))[0]
	assert.Equal(t, 3, e.TimesPlayed)
	assert.Equal(t, []ActorDialog{{7, 2, true, 300}}, e.Actors)
}

func TestDumpAndNames(t *testing.T) {
	r := NewRegistry(0)
	r.Add(Global, "one", "1.wav", "")
	r.Add(Global, "two", "2.wav", "")
	r.Add(Model(2), "three", "3.wav", "")
	n, ok := r.NameForNum(Global, 1)
	require.True(t, ok)
	assert.Equal(t, "two", n)
	_, ok = r.NameForNum(Global, 2)
	assert.False(t, ok)

	var buf bytes.Buffer
	r.Dump(Global, &buf)
	assert.Equal(t, "--- Alias dump (global) ---\n  one -> 1.wav (1 candidates)\n  two -> 2.wav (1 candidates)\n", buf.String())

	r.ClearModels()
	assert.Empty(t, r.List(Model(2)))
	assert.Len(t, r.List(Global), 2)
}
