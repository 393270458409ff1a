// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"gofakk/cbuf"
	"gofakk/cgame"
	"gofakk/cmd"
	"gofakk/conlog"
)

func (c *Client) registerCommands() {
	cmd.Must(c.Commands.Add("cmd", c.cmdCommand))
	cmd.Must(c.Commands.Add("configstrings", c.configstringsCommand))
	cmd.Must(c.Commands.Add("clientinfo", c.clientInfoCommand))
}

// cmdCommand sends the rest of the line to the server as is.
func (c *Client) cmdCommand(a cmd.Arguments) error {
	if c.state != Active {
		conlog.Printf("Not connected to a server.\n")
		return nil
	}
	if a.Argc() < 2 {
		return nil
	}
	c.SendClientCommand(a.ArgumentString())
	return nil
}

func (c *Client) configstringsCommand(a cmd.Arguments) error {
	if c.state != Active {
		conlog.Printf("Not connected to a server.\n")
		return nil
	}
	for i, cs := range c.gameState.ConfigStrings {
		if cs != "" {
			conlog.Printf("%4d: %s\n", i, cs)
		}
	}
	return nil
}

func (c *Client) clientInfoCommand(a cmd.Arguments) error {
	conlog.Printf("state: %v\n", c.state)
	conlog.Printf("map: %s\n", c.mapName)
	conlog.Printf("snapshot: %d time: %d cmd: %d\n", c.curSnap, c.serverTime, c.cmdNumber)
	return nil
}

// addCGameCommand makes a console command run the client game's
// ConsoleCommand.
func (c *Client) addCGameCommand(name string) {
	if c.Commands.Exists(name) {
		conlog.DPrintf("cgame command %s already defined\n", name)
		return
	}
	err := c.Commands.Add(name, func(a cmd.Arguments) error {
		if c.cge == nil {
			return nil
		}
		c.args = a
		return cgame.Call(func() { c.cge.ConsoleCommand() })
	})
	if err != nil {
		conlog.Errorf(err, "AddCommand %s", name)
		return
	}
	c.cgameCommands = append(c.cgameCommands, name)
}

// ForwardCommand is the last command buffer executor: unknown commands go
// to the server while connected.
func (c *Client) ForwardCommand(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) {
	if c.state != Active {
		return false, nil
	}
	line := a.Full()
	if line == "" {
		return false, nil
	}
	c.SendClientCommand(line)
	return true, nil
}
