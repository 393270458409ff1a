// SPDX-License-Identifier: GPL-2.0-or-later

package game

import (
	"gofakk/bsp"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/filesystem"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/zone"
)

// Import is what the engine hands to GetGameAPI.
type Import struct {
	APIVersion int

	Printf       func(format string, v ...interface{})
	DPrintf      func(format string, v ...interface{})
	DebugPrintf  func(format string, v ...interface{})
	Error        func(code errs.Code, format string, v ...interface{})
	Milliseconds func() int

	// Malloc allocates with the game tag, all of it is released when the
	// level ends.
	Malloc func(size int) *zone.Block
	Free   func(b *zone.Block)

	Cvar    func(name, value string, flags cvar.Flag) *cvar.Cvar
	CvarSet func(name, value string)

	Argc       func() int
	Argv       func(n int) string
	Args       func() string
	AddCommand func(name string)

	FSReadFile   func(name string) (*zone.Block, error)
	FSFreeFile   func(b *zone.Block)
	FSWriteFile  func(name string, data []byte) error
	FSOpenWrite  func(name string) (filesystem.FileHandle, error)
	FSOpenAppend func(name string) (filesystem.FileHandle, error)
	FSWrite      func(buf []byte, f filesystem.FileHandle) (int, error)
	FSRead       func(buf []byte, f filesystem.FileHandle) (int, error)
	FSClose      func(f filesystem.FileHandle) error
	FSTell       func(f filesystem.FileHandle) int64
	FSSeek       func(f filesystem.FileHandle, offset int64, origin filesystem.Origin) error
	FSFlush      func(f filesystem.FileHandle) error

	SendConsoleCommand func(text string)

	// SendServerCommand queues a reliable command, client -1 is everyone.
	SendServerCommand func(client int, format string, v ...interface{})
	SetConfigstring   func(index int, value string)
	GetConfigstring   func(index int) string
	SetUserinfo       func(client int, value string)
	GetUserinfo       func(client int) string

	SetBrushModel         func(ent *Entity, name string)
	Trace                 func(start, mins, maxs, end vec.Vec3, passEnt, mask int, cylinder bool) bsp.Trace
	PointContents         func(p vec.Vec3, passEnt int) int
	InPVS                 func(p1, p2 vec.Vec3) bool
	InPVSIgnorePortals    func(p1, p2 vec.Vec3) bool
	AdjustAreaPortalState func(ent *Entity, open bool)
	AreasConnected        func(area1, area2 int) bool

	LinkEntity   func(ent *Entity)
	UnlinkEntity func(ent *Entity)
	AreaEntities func(mins, maxs vec.Vec3, max int) []int
	ClipToEntity func(start, mins, maxs, end vec.Vec3, entityNum, mask int) bsp.Trace

	ImageIndex func(name string) int
	ItemIndex  func(name string) int
	SoundIndex func(name string) int
	ModelIndex func(name string) int

	SetLightStyle func(i int, value string)
	GameDir       func() string
	IsModel       func(index int) bool
	SetModel      func(ent *Entity, name string)

	// TIKI and Alias address models by their model index.
	TIKI  TIKI
	Alias Alias

	Sound           func(origin *vec.Vec3, entnum, channel int, name string, volume, minDist float32)
	StopSound       func(entnum, channel int)
	SoundLength     func(name string) float32
	SoundAmplitudes func(name string) []byte

	CalcCRC    func(data []byte) int
	DebugLines func() *DebugLines

	LocateGameData func(ents []*Entity, num int, stride uintptr, clients []*protocol.PlayerState, clientStride uintptr)

	SetFarPlane  func(farplane int)
	SetSkyPortal func(skyportal bool)
}

// Export is what the game module returns.
type Export struct {
	APIVersion int

	Init     func(startTime, randomSeed int)
	Shutdown func()
	Cleanup  func(sameMap bool)

	SpawnEntities func(mapname, entities string, levelTime int)

	// ClientConnect returns a non empty reason to reject the client.
	ClientConnect         func(clientNum int, firstTime bool) string
	ClientBegin           func(ent *Entity, cmd *protocol.UserCmd)
	ClientUserinfoChanged func(ent *Entity, userinfo string)
	ClientDisconnect      func(ent *Entity)
	ClientCommand         func(ent *Entity)
	ClientThink           func(ent *Entity, cmd *protocol.UserCmd)

	PrepFrame func()
	RunFrame  func(levelTime, frameTime int)

	// ConsoleCommand reports whether the game handled the command.
	ConsoleCommand func() bool

	WritePersistant   func(filename string) error
	ReadPersistant    func(filename string) error
	WriteLevel        func(filename string, autosave bool) error
	ReadLevel         func(filename string) error
	LevelArchiveValid func(filename string) bool

	// Set by LocateGameData.
	GEntities   []*Entity
	GEntitySize uintptr
	NumEntities int
	MaxEntities int
}
