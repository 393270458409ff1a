// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"sort"

	"gofakk/conlog"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/net"
	"gofakk/protocol"
	svc "gofakk/protocol/server"
)

// buildSnapshot collects what client c sees at the current time.
func (s *Server) buildSnapshot(c *client) *protocol.Snapshot {
	snap := &protocol.Snapshot{
		Valid:                 true,
		ServerTime:            s.time,
		ServerCommandSequence: c.reliableSequence,
	}
	if ps := s.gclient(c.num); ps != nil {
		snap.PS = *ps
	}
	snap.PS.ClientNum = c.num
	if s.state != Game {
		snap.SnapFlags |= protocol.SnapNotActive
	}

	leaf := s.World.PointLeafnum(eyePosition(&snap.PS))
	area := s.World.LeafArea(leaf)
	cluster := s.World.LeafCluster(leaf)
	if !s.World.Loaded() {
		area = -1
	}
	s.World.WriteAreaBits(area, snap.AreaMask[:])

	for i := 0; i < s.numEntities && i < len(s.gents); i++ {
		e := s.gents[i]
		if e == nil || !e.Linked || e.SvFlags&game.SVFNoClient != 0 {
			continue
		}
		if e.State.Number != i {
			conlog.DPrintf("SV_AddEntitiesVisibleFromPoint: bad entity number %d in slot %d\n", e.State.Number, i)
			continue
		}
		// the client's own entity is rebuilt from the player state
		if i == c.num {
			continue
		}
		if e.SvFlags&game.SVFBroadcast == 0 && !s.entityVisible(i, cluster, area) {
			continue
		}
		if len(snap.Entities) == protocol.MaxEntitiesInSnapshot {
			conlog.DPrintf("SV_BuildClientSnapshot: more than %d entities\n", protocol.MaxEntitiesInSnapshot)
			break
		}
		snap.Entities = append(snap.Entities, e.State)
	}
	sort.Slice(snap.Entities, func(i, j int) bool {
		return snap.Entities[i].Number < snap.Entities[j].Number
	})
	snap.Sounds = append(snap.Sounds, s.sounds...)
	return snap
}

// entityVisible checks the areas and the PVS of the viewer.
func (s *Server) entityVisible(num, cluster, area int) bool {
	if !s.World.Loaded() || cluster < 0 {
		return true
	}
	e := s.linked[num]
	if e == nil {
		return false
	}
	if area != -1 && !s.World.AreasConnected(area, e.AreaNum) {
		// a door may connect the second area
		if e.AreaNum2 == -1 || !s.World.AreasConnected(area, e.AreaNum2) {
			return false
		}
	}
	sv := &s.svEnts[num]
	if sv.overflow {
		return true
	}
	for _, c := range sv.clusters {
		if s.World.ClusterVisible(cluster, c) {
			return true
		}
	}
	return false
}

// sendSnapshot encodes the snapshot of c against the newest one the client
// acknowledged and hands it to the loopback.
func (s *Server) sendSnapshot(c *client) {
	snap := s.buildSnapshot(c)
	c.messageNum++
	snap.MessageNum = c.messageNum

	var base *protocol.Snapshot
	if c.messageAcknowledge > 0 && c.messageNum-c.messageAcknowledge < protocol.PacketBackup {
		base = c.frames[c.messageAcknowledge&(protocol.PacketBackup-1)]
		if base != nil && base.MessageNum != c.messageAcknowledge {
			base = nil
		}
	}

	msg := &svc.Message{
		ReliableAcknowledge: c.lastClientCommand,
		Commands:            c.pendingCommands(),
		Snapshot:            snap,
	}
	if !c.gamestateSent {
		msg.GameState = s.GameState(c.num)
		c.gamestateSent = true
	}
	data, err := svc.ToBytes(msg, base)
	if err != nil {
		conlog.Errorf(err, "client %d", c.num)
		return
	}
	c.frames[c.messageNum&(protocol.PacketBackup-1)] = snap
	s.snapshotCounter++
	s.Metrics.Snapshots.Inc()
	if c.num != 0 {
		// only the loopback client has a transport
		return
	}
	if err := s.Loopback.Send(net.ServerToClient, data); err != nil {
		conlog.Errorf(err, "client %d", c.num)
		return
	}
	s.Loopback.Handoff.PutSnapshot(snap)
}

func (s *Server) sendSnapshots() {
	for _, c := range s.clients {
		if c.state == clientActive {
			s.sendSnapshot(c)
		}
	}
}

// eyePosition is origin raised by the view height.
func eyePosition(ps *protocol.PlayerState) vec.Vec3 {
	eye := ps.Origin
	eye[2] += float32(ps.ViewHeight)
	return eye
}
