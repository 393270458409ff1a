// SPDX-License-Identifier: GPL-2.0-or-later

package cbuf

import (
	"testing"

	"gofakk/cmd"
)

func TestWait(t *testing.T) {
	c := CommandBuffer{}
	runCount := 0
	c.SetCommandExecutors([]Efunc{
		func(cb *CommandBuffer, a cmd.Arguments) (bool, error) {
			runCount++
			return true, nil
		}})
	c.AddText("wait\n")
	c.AddText("test\n")
	c.AddText("test\n")
	c.AddText("wait\n")
	c.AddText("test\n")
	c.Execute()
	if runCount != 0 {
		t.Errorf("runCount=%v, want %v", runCount, 0)
	}
	c.Execute()
	if runCount != 2 {
		t.Errorf("runCount=%v, want %v", runCount, 2)
	}
	c.Execute()
	if runCount != 3 {
		t.Errorf("runCount=%v, want %v", runCount, 3)
	}
}

func TestSplit(t *testing.T) {
	c := CommandBuffer{}
	var got []string
	c.SetCommandExecutors([]Efunc{
		func(cb *CommandBuffer, a cmd.Arguments) (bool, error) {
			got = append(got, a.Full())
			return true, nil
		}})
	c.AddText(`echo "a;b";echo c` + "\nlast")
	c.InsertText("first")
	c.Execute()
	want := []string{"first", `echo "a;b"`, "echo c", "last"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d=%q, want %q", i, got[i], want[i])
		}
	}
}

func TestExecutorOrder(t *testing.T) {
	c := CommandBuffer{}
	var hits []int
	c.SetCommandExecutors([]Efunc{
		func(cb *CommandBuffer, a cmd.Arguments) (bool, error) {
			hits = append(hits, 1)
			return a.Argv(0).String() == "one", nil
		},
		func(cb *CommandBuffer, a cmd.Arguments) (bool, error) {
			hits = append(hits, 2)
			return true, nil
		}})
	c.AddText("one\ntwo\n")
	c.Execute()
	if len(hits) != 3 || hits[0] != 1 || hits[1] != 1 || hits[2] != 2 {
		t.Errorf("hits=%v, want [1 1 2]", hits)
	}
	if c.AddText(string(make([]byte, MaxCmdBuffer+1))) {
		t.Errorf("AddText accepted an oversized text")
	}
}
