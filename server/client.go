// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"strings"

	"golang.org/x/time/rate"

	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/net"
	"gofakk/protocol"
	clc "gofakk/protocol/client"
	svc "gofakk/protocol/server"
)

type clientState int

const (
	clientFree clientState = iota
	clientActive
)

// client is a server client slot. Slot 0 is the loopback client, the other
// slots have no transport and are driven by the game module.
type client struct {
	num      int
	state    clientState
	userinfo string

	lastCmd protocol.UserCmd

	// reliable server commands not yet acknowledged
	reliable            [protocol.MaxReliableCommands]string
	reliableSequence    int
	reliableAcknowledge int

	// highest client command executed
	lastClientCommand int
	limiter           *rate.Limiter

	// snapshots sent, for delta compression
	frames             [protocol.PacketBackup]*protocol.Snapshot
	messageNum         int
	messageAcknowledge int
	gamestateSent      bool
}

func newClient(num int) *client {
	return &client{
		num:     num,
		limiter: rate.NewLimiter(1, 8),
	}
}

func (s *Server) addReliableCommand(c *client, text string) {
	if c.reliableSequence-c.reliableAcknowledge >= protocol.MaxReliableCommands {
		conlog.Warnf("client %d: server command overflow\n", c.num)
		// the oldest command is lost to keep the ring consistent
		c.reliableAcknowledge++
	}
	c.reliableSequence++
	c.reliable[c.reliableSequence&(protocol.MaxReliableCommands-1)] = text
}

// pendingCommands lists the reliable commands the client has not yet
// acknowledged.
func (c *client) pendingCommands() []svc.Command {
	var out []svc.Command
	for seq := c.reliableAcknowledge + 1; seq <= c.reliableSequence; seq++ {
		out = append(out, svc.Command{Sequence: seq, Text: c.reliable[seq&(protocol.MaxReliableCommands-1)]})
	}
	return out
}

func (s *Server) SetUserinfo(clientNum int, value string) {
	c := s.client(clientNum)
	if c == nil {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_SetUserinfo: bad index %d", clientNum)
	}
	c.userinfo = value
}

func (s *Server) GetUserinfo(clientNum int) string {
	c := s.client(clientNum)
	if c == nil {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_GetUserinfo: bad index %d", clientNum)
	}
	return c.userinfo
}

// readPackets executes the messages the loopback client sent.
func (s *Server) readPackets() error {
	var m net.Msg
	for s.Loopback.Receive(net.ClientToServer, &m) {
		msg, err := clc.FromBytes(m.Bytes())
		if err != nil {
			conlog.Errorf(err, "bad client message")
			continue
		}
		c := s.client(0)
		if c == nil || c.state != clientActive {
			continue
		}
		if err := s.executeClientMessage(c, msg); err != nil {
			return err
		}
		if s.state != Game {
			return nil
		}
	}
	return nil
}

func (s *Server) executeClientMessage(c *client, msg *clc.Message) error {
	if msg.MessageAcknowledge > c.messageNum || msg.MessageAcknowledge < 0 {
		conlog.DPrintf("client %d: bad message acknowledge %d\n", c.num, msg.MessageAcknowledge)
	} else {
		c.messageAcknowledge = msg.MessageAcknowledge
	}
	if msg.ReliableAcknowledge < c.reliableSequence-protocol.MaxReliableCommands || msg.ReliableAcknowledge > c.reliableSequence {
		conlog.DPrintf("client %d: bad reliable acknowledge %d\n", c.num, msg.ReliableAcknowledge)
	} else if msg.ReliableAcknowledge > c.reliableAcknowledge {
		c.reliableAcknowledge = msg.ReliableAcknowledge
	}

	for _, cc := range msg.Commands {
		if cc.Sequence <= c.lastClientCommand {
			continue
		}
		if cc.Sequence > c.lastClientCommand+1 {
			conlog.Warnf("client %d: lost %d reliable commands\n", c.num, cc.Sequence-c.lastClientCommand-1)
		}
		c.lastClientCommand = cc.Sequence
		if err := s.ExecuteClientCommand(c.num, cc.Text); err != nil {
			return err
		}
		if c.state != clientActive {
			return nil
		}
	}

	for _, mv := range msg.Moves {
		if mv.ServerTime <= c.lastCmd.ServerTime {
			s.Metrics.DroppedUsercmds.Inc()
			continue
		}
		c.lastCmd = mv
	}
	return nil
}

// ExecuteClientCommand runs one reliable command from client clientNum.
// The error is a module failure.
func (s *Server) ExecuteClientCommand(clientNum int, text string) error {
	c := s.client(clientNum)
	if c == nil || c.state != clientActive || s.ge == nil {
		return nil
	}
	a := cmd.Parse(text)
	if a.Argc() == 0 {
		return nil
	}
	ent := s.gentity(c.num)
	var err error
	switch strings.ToLower(a.Argv(0).String()) {
	case "userinfo":
		c.userinfo = a.Argv(1).String()
		err = game.Call(func() { s.ge.ClientUserinfoChanged(ent, c.userinfo) })
	case "disconnect":
		s.dropClient(c, "disconnected")
	default:
		if s.floodProtect.Bool() && !c.limiter.Allow() {
			conlog.Warnf("client %d: command flood, %q dropped\n", c.num, a.Argv(0).String())
			s.Metrics.FloodedCommands.Inc()
			return nil
		}
		s.args = a
		err = game.Call(func() { s.ge.ClientCommand(ent) })
		s.args = cmd.Arguments{}
	}
	return err
}

func (s *Server) dropClient(c *client, reason string) {
	if c.state != clientActive {
		return
	}
	if s.ge != nil {
		ent := s.gentity(c.num)
		if err := game.Call(func() { s.ge.ClientDisconnect(ent) }); err != nil {
			conlog.Errorf(err, "ClientDisconnect")
		}
	}
	conlog.Printf("client %d %s\n", c.num, reason)
	c.state = clientFree
	c.gamestateSent = false
}
