// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"gofakk/errs"
	"gofakk/net"
	"gofakk/protocol"
)

const (
	//
	// server to client
	//
	Bad = 0
	Nop = 1
	// [long] command sequence, [configstring]..., [EOF] [long] client number
	GameState = 2
	// [short] index [bigstring] value, only inside a game state
	ConfigString = 3
	Baseline     = 4
	// [long] sequence [string] command
	ServerCommand = 5
	Download      = 6
	// <see writeSnapshot>
	Snapshot = 7
	EOF      = 8
)

// Command is a reliable server command.
type Command struct {
	Sequence int
	Text     string
}

// Message is one server to client packet.
type Message struct {
	// ReliableAcknowledge is the last client command the server executed.
	ReliableAcknowledge int
	Commands            []Command
	GameState           *protocol.GameState
	Snapshot            *protocol.Snapshot
}

// ToBytes encodes msg. A snapshot is delta compressed against base when
// base is valid and recent enough.
func ToBytes(msg *Message, base *protocol.Snapshot) ([]byte, error) {
	m := net.NewMsg(protocol.MaxMsgLen)
	m.AllowOverflow = true
	m.WriteLong(msg.ReliableAcknowledge)
	for _, c := range msg.Commands {
		m.WriteByte(ServerCommand)
		m.WriteLong(c.Sequence)
		m.WriteString(c.Text)
	}
	if gs := msg.GameState; gs != nil {
		m.WriteByte(GameState)
		m.WriteLong(gs.CommandSequence)
		for i, cs := range gs.ConfigStrings {
			if cs == "" {
				continue
			}
			m.WriteByte(ConfigString)
			m.WriteShort(i)
			m.WriteBigString(cs)
		}
		m.WriteByte(EOF)
		m.WriteLong(gs.ClientNum)
	}
	if msg.Snapshot != nil {
		writeSnapshot(m, msg.Snapshot, base)
	}
	m.WriteByte(EOF)
	if m.Overflowed {
		return nil, errs.New(errs.Overflow, "SV_SendMessageToClient: message overflowed %d bytes", m.MaxSize())
	}
	return m.Bytes(), nil
}

func writeSnapshot(m *net.Msg, s, base *protocol.Snapshot) {
	if base != nil && (!base.Valid || s.MessageNum-base.MessageNum <= 0 || s.MessageNum-base.MessageNum >= protocol.PacketBackup) {
		base = nil
	}
	m.WriteByte(Snapshot)
	m.WriteLong(s.ServerTime)
	m.WriteLong(s.MessageNum)
	if base == nil {
		m.WriteByte(0)
	} else {
		m.WriteByte(s.MessageNum - base.MessageNum)
	}
	m.WriteByte(s.SnapFlags)
	m.WriteByte(len(s.AreaMask))
	m.WriteData(s.AreaMask[:])

	var oldPS *protocol.PlayerState
	var old []protocol.EntityState
	if base != nil {
		oldPS = &base.PS
		old = base.Entities
	}
	m.WriteDeltaPlayerstate(oldPS, &s.PS)
	writePacketEntities(m, old, s.Entities)

	m.WriteByte(len(s.Sounds))
	for i := range s.Sounds {
		snd := &s.Sounds[i]
		for _, v := range snd.Origin {
			m.WriteFloat(v)
		}
		m.WriteBits(snd.EntityNum, protocol.GEntityNumBits)
		m.WriteByte(snd.Channel)
		m.WriteString(snd.Name)
		m.WriteFloat(snd.Volume)
		m.WriteFloat(snd.MinDist)
	}
	m.WriteLong(s.ServerCommandSequence)
}

// writePacketEntities walks both sorted entity lists and writes the
// changes, new entities in full and removals.
func writePacketEntities(m *net.Msg, old, cur []protocol.EntityState) {
	oi, ni := 0, 0
	for oi < len(old) || ni < len(cur) {
		oldNum, newNum := 99999, 99999
		if oi < len(old) {
			oldNum = old[oi].Number
		}
		if ni < len(cur) {
			newNum = cur[ni].Number
		}
		switch {
		case newNum == oldNum:
			m.WriteDeltaEntity(&old[oi], &cur[ni], false)
			oi++
			ni++
		case newNum < oldNum:
			m.WriteDeltaEntity(nil, &cur[ni], true)
			ni++
		default:
			m.WriteDeltaEntity(&old[oi], nil, true)
			oi++
		}
	}
	m.WriteBits(protocol.EntityNumNone, protocol.GEntityNumBits)
	m.WriteBits(1, 1)
}
