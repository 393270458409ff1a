// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"gofakk/errs"
	"gofakk/net"
	"gofakk/protocol"
)

var (
	svc_strings = []string{
		"svc_bad",
		"svc_nop",
		"svc_gamestate",
		"svc_configstring", // [short] [bigstring]
		"svc_baseline",
		"svc_serverCommand", // [long] [string]
		"svc_download",
		"svc_snapshot",
		"svc_EOF",
	}
)

func opName(op int) string {
	if op >= 0 && op < len(svc_strings) {
		return svc_strings[op]
	}
	return "unknown"
}

func badRead(m *net.Msg, what string) error {
	if m.ReadOverflowed {
		return errs.New(errs.BadFormat, "CL_ParseServerMessage: read past end of server message in %s", what)
	}
	return nil
}

// FromBytes decodes a server packet. base returns the snapshot with the
// given message number, it is used to undo delta compression.
func FromBytes(data []byte, base func(messageNum int) *protocol.Snapshot) (*Message, error) {
	m := net.NewMsg(len(data))
	m.SetData(data)
	msg := &Message{ReliableAcknowledge: m.ReadLong()}
	if err := badRead(m, "header"); err != nil {
		return nil, err
	}
	for {
		op := m.ReadByte()
		if op == -1 {
			return nil, badRead(m, "opcode")
		}
		switch op {
		default:
			return nil, errs.New(errs.BadFormat, "CL_ParseServerMessage: Illegible server message %d", op)
		case EOF:
			return msg, nil
		case Nop:
		case ServerCommand:
			c := Command{Sequence: m.ReadLong(), Text: m.ReadString()}
			if err := badRead(m, opName(op)); err != nil {
				return nil, err
			}
			msg.Commands = append(msg.Commands, c)
		case GameState:
			gs, err := parseGameState(m)
			if err != nil {
				return nil, err
			}
			msg.GameState = gs
		case Snapshot:
			s, err := parseSnapshot(m, base)
			if err != nil {
				return nil, err
			}
			msg.Snapshot = s
		}
	}
}

func parseGameState(m *net.Msg) (*protocol.GameState, error) {
	gs := &protocol.GameState{CommandSequence: m.ReadLong()}
	for {
		op := m.ReadByte()
		if op == EOF {
			break
		}
		if op != ConfigString {
			if err := badRead(m, "gamestate"); err != nil {
				return nil, err
			}
			return nil, errs.New(errs.BadFormat, "CL_ParseGamestate: bad command %s", opName(op))
		}
		i := m.ReadShort()
		if i < 0 || i >= protocol.MaxConfigStrings {
			return nil, errs.New(errs.BadFormat, "CL_ParseGamestate: configstring %d out of range", i)
		}
		gs.ConfigStrings[i] = m.ReadBigString()
	}
	gs.ClientNum = m.ReadLong()
	return gs, badRead(m, opName(GameState))
}

func parseSnapshot(m *net.Msg, base func(int) *protocol.Snapshot) (*protocol.Snapshot, error) {
	s := &protocol.Snapshot{
		ServerTime: m.ReadLong(),
		MessageNum: m.ReadLong(),
		Valid:      true,
	}
	deltaNum := m.ReadByte()
	s.SnapFlags = m.ReadByte()
	n := m.ReadByte()
	if n > protocol.MaxMapAreaBytes {
		return nil, errs.New(errs.BadFormat, "CL_ParseSnapshot: invalid size %d for areamask", n)
	}
	if n > 0 {
		m.ReadData(s.AreaMask[:n])
	}

	var old *protocol.Snapshot
	if deltaNum > 0 {
		if base != nil {
			old = base(s.MessageNum - deltaNum)
		}
		if old == nil || !old.Valid || old.MessageNum != s.MessageNum-deltaNum {
			// the base is gone, parse anyway to stay in sync with the
			// stream but keep the result out of use
			old = nil
			s.Valid = false
		}
	}
	var oldPS *protocol.PlayerState
	var oldEnts []protocol.EntityState
	if old != nil {
		oldPS = &old.PS
		oldEnts = old.Entities
	}
	m.ReadDeltaPlayerstate(oldPS, &s.PS)
	ents, err := parsePacketEntities(m, oldEnts)
	if err != nil {
		return nil, err
	}
	s.Entities = ents

	sounds := m.ReadByte()
	if sounds > protocol.MaxServerSounds {
		return nil, errs.New(errs.BadFormat, "CL_ParseSnapshot: %d sounds", sounds)
	}
	for i := 0; i < sounds; i++ {
		var snd protocol.SoundEvent
		for j := range snd.Origin {
			snd.Origin[j] = m.ReadFloat()
		}
		snd.EntityNum = m.ReadBits(protocol.GEntityNumBits)
		snd.Channel = m.ReadByte()
		snd.Name = m.ReadString()
		snd.Volume = m.ReadFloat()
		snd.MinDist = m.ReadFloat()
		s.Sounds = append(s.Sounds, snd)
	}
	s.ServerCommandSequence = m.ReadLong()
	return s, badRead(m, opName(Snapshot))
}

func parsePacketEntities(m *net.Msg, old []protocol.EntityState) ([]protocol.EntityState, error) {
	var out []protocol.EntityState
	oi := 0
	for {
		num, removed := m.ReadEntityNumber()
		if err := badRead(m, "packet entities"); err != nil {
			return nil, err
		}
		if num == protocol.EntityNumNone {
			break
		}
		for oi < len(old) && old[oi].Number < num {
			out = append(out, old[oi])
			oi++
		}
		var from *protocol.EntityState
		if oi < len(old) && old[oi].Number == num {
			from = &old[oi]
			oi++
		}
		if removed {
			continue
		}
		var e protocol.EntityState
		m.ReadDeltaEntity(from, &e, num)
		out = append(out, e)
		if len(out) > protocol.MaxEntitiesInSnapshot {
			return nil, errs.New(errs.BadFormat, "CL_ParsePacketEntities: more than %d entities", protocol.MaxEntitiesInSnapshot)
		}
	}
	out = append(out, old[oi:]...)
	return out, nil
}
