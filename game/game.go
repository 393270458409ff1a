// SPDX-License-Identifier: GPL-2.0-or-later

// Package game defines the contract between the server and the game module.
package game

import (
	"unsafe"

	"gofakk/math/vec"
	"gofakk/protocol"
)

// APIVersion is baked into both tables. Any change to them needs a bump.
const APIVersion = 4

// Entity server flags.
const (
	SVFNoClient         = 1 << 0
	SVFBot              = 1 << 1
	SVFBroadcast        = 1 << 2
	SVFPortal           = 1 << 3
	SVFSendPVS          = 1 << 4
	SVFUseCurrentOrigin = 1 << 5
	SVFDeadMonster      = 1 << 6
	SVFMonster          = 1 << 7
	SVFUseBBox          = 1 << 9
	SVFOnlyParent       = 1 << 10
	SVFHideOwner        = 1 << 11
	SVFMonsterClip      = 1 << 12
	SVFPlayerClip       = 1 << 13
	SVFSendOnce         = 1 << 14
	SVFSent             = 1 << 15
)

type Solid int

const (
	SolidNot Solid = iota
	SolidTrigger
	SolidBBox
	SolidBSP
)

// Entity is the part of a game entity the engine reads and writes. Game
// modules embed it as the first field of their own entity type.
type Entity struct {
	State  protocol.EntityState
	Client *protocol.PlayerState

	InUse     bool
	Linked    bool
	LinkCount int

	SvFlags int

	BModel   bool
	Mins     vec.Vec3
	Maxs     vec.Vec3
	Contents int

	AbsMin vec.Vec3
	AbsMax vec.Vec3

	Radius   float32
	Centroid vec.Vec3
	AreaNum  int
	AreaNum2 int

	CurrentOrigin vec.Vec3
	CurrentAngles vec.Vec3

	// OwnerNum is the entity that does not collide with this one, or
	// protocol.EntityNumNone.
	OwnerNum int

	Solid Solid
}

// EntityPrefixSize is the smallest stride LocateGameData accepts.
const EntityPrefixSize = unsafe.Sizeof(Entity{})

const MaxDebugLines = 4096

type DebugLine struct {
	Start vec.Vec3
	End   vec.Vec3
	Color [4]float32
}

// DebugLines is owned by the engine. The module appends during a frame and
// the server clears it before the next one.
type DebugLines struct {
	lines []DebugLine
}

// Add drops the line when the buffer is full.
func (d *DebugLines) Add(l DebugLine) bool {
	if len(d.lines) >= MaxDebugLines {
		return false
	}
	d.lines = append(d.lines, l)
	return true
}

func (d *DebugLines) Lines() []DebugLine {
	return d.lines
}

func (d *DebugLines) Len() int {
	return len(d.lines)
}

func (d *DebugLines) Clear() {
	d.lines = d.lines[:0]
}
