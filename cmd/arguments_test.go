// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in     string
		wantF  string
		wantAS string
		wantA  []QArg
	}{
		{
			in:     `say hello world`,
			wantF:  `say hello world`,
			wantAS: `hello world`,
			wantA:  []QArg{{"say"}, {"hello"}, {"world"}},
		},
		{
			in:     `say "hello world"`,
			wantF:  `say "hello world"`,
			wantAS: `hello world`,
			wantA:  []QArg{{"say"}, {"hello world"}},
		},
		{
			in:     ` say_team  foo bar baz `,
			wantF:  `say_team  foo bar baz`,
			wantAS: `foo bar baz`,
			wantA:  []QArg{{"say_team"}, {"foo"}, {"bar"}, {"baz"}},
		},
		{
			in:     "map test // comment",
			wantF:  "map test // comment",
			wantAS: "test // comment",
			wantA:  []QArg{{"map"}, {"test"}},
		},
		{
			in:     "first line\nsecond",
			wantF:  "first line",
			wantAS: "line",
			wantA:  []QArg{{"first"}, {"line"}},
		},
	} {
		arg := Parse(tc.in)
		if tc.wantF != arg.Full() {
			t.Errorf("Parse(%q).Full()=%q, want %q", tc.in, arg.Full(), tc.wantF)
		}
		if tc.wantAS != arg.ArgumentString() {
			t.Errorf("Parse(%q).ArgumentString()=%q, want %q", tc.in, arg.ArgumentString(), tc.wantAS)
		}
		as := arg.Args()
		if len(tc.wantA) != len(as) {
			t.Fatalf("Parse(%q).Args() has len(%d), want %d", tc.in, len(as), len(tc.wantA))
		}
		for i := range tc.wantA {
			if tc.wantA[i] != as[i] {
				t.Errorf("Arg[%d]=%q, want %q", i, as[i], tc.wantA[i])
			}
		}
	}
}

func TestArgv(t *testing.T) {
	a := Parse("give health 25 1.5")
	assert.Equal(t, 4, a.Argc())
	assert.Equal(t, 25, a.Argv(2).Int())
	assert.Equal(t, float32(1.5), a.Argv(3).Float32())
	assert.Equal(t, "", a.Argv(9).String())
	assert.Equal(t, "health 25 1.5", a.ArgsFrom(1))
	assert.Equal(t, "", a.ArgsFrom(7))
}

func TestCommands(t *testing.T) {
	c := New()
	called := ""
	require.NoError(t, c.Add("Echo", func(a Arguments) error {
		called = a.ArgsFrom(1)
		return nil
	}))
	assert.Error(t, c.Add("echo", nil))
	assert.True(t, c.Exists("ECHO"))

	ok, err := c.Execute(Parse("echo hi there"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi there", called)

	ok, _ = c.Execute(Parse("nope"))
	assert.False(t, ok)
	c.Remove("echo")
	assert.Empty(t, c.List())
}
