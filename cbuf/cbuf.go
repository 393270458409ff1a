// SPDX-License-Identifier: GPL-2.0-or-later

// Package cbuf is the console command buffer.
package cbuf

import (
	"strings"

	"gofakk/cmd"
)

// MaxCmdBuffer matches the classic 16k command buffer.
const MaxCmdBuffer = 16384

type CommandBuffer struct {
	buf string
	// toogle to add a wait to Execute,
	// causing the following commands to be executed one frame later
	wait      bool
	executors executors
}

func (c *CommandBuffer) SetCommandExecutors(e []Efunc) {
	c.executors = e
}

// Wait defers the rest of the buffer to the next Execute.
func (c *CommandBuffer) Wait() {
	c.wait = true
}

// Execute runs buffered lines until the buffer is empty or a wait is hit.
func (c *CommandBuffer) Execute() error {
	for len(c.buf) != 0 {
		i := 0
		quote := false
	LineLoop:
		for i = 0; i < len(c.buf); i++ {
			switch c.buf[i] {
			case '"':
				quote = !quote
				continue LineLoop
			case ';':
				if quote {
					continue LineLoop
				}
				break LineLoop
			case '\n', '\r':
				break LineLoop
			}
		}
		// do not put ';' or '\n' in line
		line := c.buf[:i]
		// but remove this char as well
		if i < len(c.buf) {
			i++
		}
		c.buf = c.buf[i:]
		a := cmd.Parse(line)
		if a.Argc() > 0 && strings.EqualFold(a.Argv(0).String(), "wait") {
			c.wait = true
		} else if err := c.executors.execute(c, a); err != nil {
			return err
		}
		if c.wait {
			// wait for the next frame to continue executing
			c.wait = false
			return nil
		}
	}
	return nil
}

// AddText appends text. Text that would overflow the buffer is dropped.
func (c *CommandBuffer) AddText(text string) bool {
	if len(c.buf)+len(text) > MaxCmdBuffer {
		return false
	}
	c.buf = c.buf + text
	return true
}

// InsertText puts text in front of the buffered lines so it runs next.
func (c *CommandBuffer) InsertText(text string) {
	c.buf = text + "\n" + c.buf
}

func (c *CommandBuffer) Pending() string {
	return c.buf
}
