// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"strconv"

	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/net"
	"gofakk/protocol"
	svc "gofakk/protocol/server"
)

// readPackets parses everything the server sent since the last frame.
func (c *Client) readPackets() error {
	var m net.Msg
	for c.Loopback.Receive(net.ServerToClient, &m) {
		msg, err := svc.FromBytes(m.Bytes(), c.snapshotBase)
		if err != nil {
			return errs.Com(errs.Drop, err)
		}
		if err := c.parseServerMessage(msg); err != nil {
			return err
		}
	}
	if s, ok := c.Loopback.Handoff.TakeSnapshot(); ok {
		// only fills in what the encoded stream could not deliver
		if have := c.snapshots[s.MessageNum&(protocol.PacketBackup-1)]; have == nil || have.MessageNum != s.MessageNum || !have.Valid {
			c.storeSnapshot(s)
		}
	}
	return nil
}

func (c *Client) snapshotBase(n int) *protocol.Snapshot {
	if n <= 0 || c.curSnap-n >= protocol.PacketBackup {
		return nil
	}
	return c.snapshots[n&(protocol.PacketBackup-1)]
}

func (c *Client) parseServerMessage(msg *svc.Message) error {
	if msg.ReliableAcknowledge > c.reliableAcknowledge && msg.ReliableAcknowledge <= c.reliableSequence {
		c.reliableAcknowledge = msg.ReliableAcknowledge
	}
	if gs := msg.GameState; gs != nil {
		c.gameState = *gs
		c.serverCommandSequence = gs.CommandSequence
	}
	for _, sc := range msg.Commands {
		if sc.Sequence <= c.serverCommandSequence {
			continue
		}
		c.serverCommandSequence = sc.Sequence
		c.serverCommands[sc.Sequence&(protocol.MaxReliableCommands-1)] = sc.Text
		c.applyServerCommand(sc.Text)
	}
	if s := msg.Snapshot; s != nil {
		if !s.Valid {
			conlog.DPrintf("CL_ParseSnapshot: delta from invalid frame\n")
			return nil
		}
		c.storeSnapshot(s)
		c.Loopback.Handoff.TakeSnapshot()
	}
	return nil
}

func (c *Client) storeSnapshot(s *protocol.Snapshot) {
	if s.MessageNum <= c.curSnap && c.snapshots[c.curSnap&(protocol.PacketBackup-1)] != nil {
		// out of order
		c.snapshots[s.MessageNum&(protocol.PacketBackup-1)] = s
		return
	}
	c.snapshots[s.MessageNum&(protocol.PacketBackup-1)] = s
	c.curSnap = s.MessageNum
	c.messageAcknowledge = s.MessageNum
	if s.ServerTime > c.serverTime {
		c.serverTime = s.ServerTime
	}
	for i := range s.Sounds {
		ev := &s.Sounds[i]
		origin := ev.Origin
		c.Sound.Start(&origin, ev.EntityNum, ev.Channel, c.Sounds.Register(ev.Name), ev.Volume, ev.MinDist)
	}
}

// applyServerCommand handles the commands the engine acts on itself. The
// cgame still sees every command through GetServerCommand.
func (c *Client) applyServerCommand(text string) {
	a := cmd.Parse(text)
	if a.Argc() == 0 {
		return
	}
	switch a.Argv(0).String() {
	case "cs":
		i, err := strconv.Atoi(a.Argv(1).String())
		if err != nil || i < 0 || i >= protocol.MaxConfigStrings {
			conlog.Warnf("CL_ConfigstringModified: bad index %q\n", a.Argv(1).String())
			return
		}
		c.gameState.ConfigStrings[i] = a.Argv(2).String()
	case "stopsound":
		c.Sound.Stop(a.Argv(1).Int(), a.Argv(2).Int())
	}
}
