// SPDX-License-Identifier: GPL-2.0-or-later

package net

import (
	"gofakk/errs"
	"gofakk/metrics"
	"gofakk/protocol"
)

type Direction int

const (
	// ClientToServer carries client packets to the server.
	ClientToServer Direction = iota
	// ServerToClient carries server packets to the client.
	ServerToClient
)

func (d Direction) String() string {
	if d == ClientToServer {
		return "client"
	}
	return "server"
}

const DefaultLoopbackSlots = 16

type slot struct {
	data []byte
	size int
}

// ring is a fixed size packet queue. send and get only grow, their
// difference is the number of unread packets.
type ring struct {
	msgs []slot
	get  int
	send int
}

func newRing(n int) *ring {
	r := &ring{msgs: make([]slot, n)}
	for i := range r.msgs {
		r.msgs[i].data = make([]byte, protocol.MaxMsgLen)
	}
	return r
}

func (r *ring) mask() int {
	return len(r.msgs) - 1
}

// Loopback connects the co-hosted client and server. It is used from the
// engine goroutine only.
type Loopback struct {
	rings   [2]*ring
	Handoff Handoff
	metrics *metrics.Metrics
}

// NewLoopback makes a loopback with slots packets per direction. slots is
// rounded up to a power of two.
func NewLoopback(slots int, m *metrics.Metrics) *Loopback {
	n := 1
	for n < slots {
		n <<= 1
	}
	if m == nil {
		m = metrics.New()
	}
	return &Loopback{
		rings:   [2]*ring{newRing(n), newRing(n)},
		metrics: m,
	}
}

// Send queues a copy of data. A full ring drops its oldest unread packet.
func (l *Loopback) Send(d Direction, data []byte) error {
	if len(data) > protocol.MaxMsgLen {
		return errs.New(errs.Overflow, "NET_SendLoopPacket: %d bytes exceeds %d", len(data), protocol.MaxMsgLen)
	}
	r := l.rings[d]
	if r.send-r.get >= len(r.msgs) {
		r.get = r.send - len(r.msgs) + 1
		l.metrics.LoopbackOverruns.WithLabelValues(d.String()).Inc()
	}
	s := &r.msgs[r.send&r.mask()]
	s.size = copy(s.data, data)
	r.send++
	l.metrics.LoopbackPackets.WithLabelValues(d.String()).Inc()
	return nil
}

// Receive moves the oldest unread packet into msg.
func (l *Loopback) Receive(d Direction, msg *Msg) bool {
	r := l.rings[d]
	if r.send == r.get {
		return false
	}
	s := &r.msgs[r.get&r.mask()]
	r.get++
	msg.SetData(s.data[:s.size])
	return true
}

// Pending is the number of unread packets.
func (l *Loopback) Pending(d Direction) int {
	r := l.rings[d]
	return r.send - r.get
}

// Clear drops all unread packets and the handed off snapshot.
func (l *Loopback) Clear() {
	for _, r := range l.rings {
		r.get = r.send
	}
	l.Handoff = Handoff{}
}

// Handoff passes the newest snapshot to the client without encoding it.
type Handoff struct {
	snap *protocol.Snapshot
}

func (h *Handoff) PutSnapshot(s *protocol.Snapshot) {
	h.snap = s
}

// TakeSnapshot empties the mailbox.
func (h *Handoff) TakeSnapshot() (*protocol.Snapshot, bool) {
	s := h.snap
	h.snap = nil
	return s, s != nil
}
