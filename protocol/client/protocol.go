// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"gofakk/errs"
	"gofakk/net"
	ptcl "gofakk/protocol"
)

const (
	//
	// client to server
	//
	Bad = 0
	Nop = 1
	// [byte] count [usercmd]...
	Move        = 2
	MoveNoDelta = 3
	// [long] sequence [string] command
	ClientCommand = 4
	EOF           = 5
)

// MaxPacketUsercmds limits the moves in one packet.
const MaxPacketUsercmds = 32

// Command is a reliable client command.
type Command struct {
	Sequence int
	Text     string
}

// Message is one client to server packet.
type Message struct {
	// MessageAcknowledge is the newest snapshot the client parsed.
	MessageAcknowledge int
	// ReliableAcknowledge is the newest server command the client got.
	ReliableAcknowledge int
	Commands            []Command
	Moves               []ptcl.UserCmd
}

func ToBytes(msg *Message) ([]byte, error) {
	if len(msg.Moves) > MaxPacketUsercmds {
		return nil, errs.New(errs.LimitExceeded, "CL_WritePacket: %d usercmds", len(msg.Moves))
	}
	m := net.NewMsg(ptcl.MaxMsgLen)
	m.AllowOverflow = true
	m.WriteLong(msg.MessageAcknowledge)
	m.WriteLong(msg.ReliableAcknowledge)
	for _, c := range msg.Commands {
		m.WriteByte(ClientCommand)
		m.WriteLong(c.Sequence)
		m.WriteString(c.Text)
	}
	if len(msg.Moves) > 0 {
		m.WriteByte(Move)
		m.WriteByte(len(msg.Moves))
		var from ptcl.UserCmd
		for i := range msg.Moves {
			m.WriteDeltaUsercmd(&from, &msg.Moves[i])
			from = msg.Moves[i]
		}
	}
	m.WriteByte(EOF)
	if m.Overflowed {
		return nil, errs.New(errs.Overflow, "CL_WritePacket: message overflowed")
	}
	return m.Bytes(), nil
}

func FromBytes(data []byte) (*Message, error) {
	m := net.NewMsg(len(data))
	m.SetData(data)
	msg := &Message{
		MessageAcknowledge:  m.ReadLong(),
		ReliableAcknowledge: m.ReadLong(),
	}
	for {
		if m.ReadOverflowed {
			return nil, errs.New(errs.BadFormat, "SV_ExecuteClientMessage: read past end of client message")
		}
		ccmd := m.ReadByte()
		switch ccmd {
		default:
			if ccmd == -1 {
				continue
			}
			return nil, errs.New(errs.BadFormat, "SV_ExecuteClientMessage: unknown command char %d", ccmd)
		case EOF:
			return msg, nil
		case Nop:
		case ClientCommand:
			c := Command{Sequence: m.ReadLong(), Text: m.ReadString()}
			msg.Commands = append(msg.Commands, c)
		case Move, MoveNoDelta:
			n := m.ReadByte()
			if n < 1 || n > MaxPacketUsercmds {
				return nil, errs.New(errs.BadFormat, "SV_UserMove: cmdCount %d", n)
			}
			var from ptcl.UserCmd
			for i := 0; i < n; i++ {
				var to ptcl.UserCmd
				m.ReadDeltaUsercmd(&from, &to)
				msg.Moves = append(msg.Moves, to)
				from = to
			}
		}
	}
}
