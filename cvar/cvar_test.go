// SPDX-License-Identifier: GPL-2.0-or-later

package cvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/cmd"
	"gofakk/errs"
)

func TestGetMergesFlags(t *testing.T) {
	r := New()
	a := r.Get("sv_fps", "20", ARCHIVE)
	b := r.Get("SV_FPS", "30", SERVERINFO)
	assert.Same(t, a, b)
	assert.Equal(t, "20", b.String())
	assert.Equal(t, ARCHIVE|SERVERINFO, b.Flags())
	assert.Equal(t, 20, r.VariableInteger("sv_fps"))
}

func TestUserCreatedKeepsValue(t *testing.T) {
	r := New()
	require.NoError(t, r.Set("developer", "1"))
	cv := r.Get("developer", "0", TEMP)
	assert.Equal(t, "1", cv.String())
	assert.Equal(t, "0", cv.Default())
}

func TestProtection(t *testing.T) {
	r := New()
	r.Get("sv_running", "0", ROM)
	err := r.Set("sv_running", "1")
	assert.True(t, errs.Is(err, errs.Configuration))
	assert.Equal(t, "0", r.VariableString("sv_running"))
	r.ForceSet("sv_running", "1")
	assert.Equal(t, "1", r.VariableString("sv_running"))

	r.Get("fs_game", "fakk", INIT)
	require.NoError(t, r.Set("fs_game", "mod"))
	r.LockInit()
	assert.Error(t, r.Set("fs_game", "other"))
	assert.Equal(t, "mod", r.VariableString("fs_game"))

	cheats := false
	r.SetCheatsAllowed(func() bool { return cheats })
	r.Get("timescale", "1", CHEAT)
	assert.Error(t, r.Set("timescale", "2"))
	cheats = true
	require.NoError(t, r.Set("timescale", "2"))
	assert.Equal(t, float32(2), r.VariableValue("timescale"))
}

func TestLatch(t *testing.T) {
	r := New()
	cv := r.Get("sv_maxclients", "1", LATCH)
	require.NoError(t, r.Set("sv_maxclients", "4"))
	assert.Equal(t, 1, cv.Integer())
	l, ok := cv.Latched()
	assert.True(t, ok)
	assert.Equal(t, "4", l)
	r.ApplyLatched()
	assert.Equal(t, 4, cv.Integer())
	_, ok = cv.Latched()
	assert.False(t, ok)
}

func TestInfoAndArchive(t *testing.T) {
	r := New()
	r.Get("mapname", "test", SERVERINFO)
	r.Get("sv_hostname", "box", SERVERINFO|ARCHIVE)
	r.Get("scratch", "x", ARCHIVE|TEMP)
	assert.Equal(t, `\mapname\test\sv_hostname\box`, r.InfoString(SERVERINFO))
	assert.Equal(t, []string{`seta sv_hostname "box"`}, r.ArchiveLines())
	assert.True(t, r.Modified(SERVERINFO))
	assert.False(t, r.Modified(SERVERINFO))
}

func TestCommands(t *testing.T) {
	r := New()
	c := cmd.New()
	r.Register(c)
	r.Get("volume", "0.5", ARCHIVE)

	for _, tc := range []struct {
		line string
		name string
		want string
	}{
		{"toggle volume", "volume", "0"},
		{"toggle volume", "volume", "1"},
		{"inc volume 2", "volume", "3"},
		{"reset volume", "volume", "0.5"},
		{"set fresh hello world", "fresh", "hello world"},
		{"cycle volume 1 2 3", "volume", "1"},
		{"cycle volume 1 2 3", "volume", "2"},
	} {
		ok, err := c.Execute(cmd.Parse(tc.line))
		require.NoError(t, err)
		require.True(t, ok, tc.line)
		if got := r.VariableString(tc.name); got != tc.want {
			t.Errorf("%q: %s=%q, want %q", tc.line, tc.name, got, tc.want)
		}
	}

	ok, err := r.Execute(cmd.Parse("volume 0.25"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float32(0.25), r.VariableValue("volume"))

	ok, _ = c.Execute(cmd.Parse("seta saved 1"))
	assert.True(t, ok)
	cv, _ := r.Find("saved")
	assert.True(t, cv.Archive())
}
