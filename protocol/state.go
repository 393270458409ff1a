// SPDX-License-Identifier: GPL-2.0-or-later

package protocol

import (
	"gofakk/math/vec"
)

type Trajectory struct {
	Type     int
	Time     int
	Duration int
	Base     vec.Vec3
	Delta    vec.Vec3
}

// EntityState is the part of an entity the clients see.
type EntityState struct {
	Number int
	EType  int
	EFlags int

	Pos  Trajectory
	APos Trajectory

	Time  int
	Time2 int

	Origin  vec.Vec3
	Origin2 vec.Vec3
	Angles  vec.Vec3
	Angles2 vec.Vec3

	OtherEntityNum  int
	OtherEntityNum2 int
	GroundEntityNum int

	ConstantLight    int
	LoopSound        int
	LoopSoundVolume  int
	LoopSoundMinDist int
	LoopSoundMaxDist float32
	LoopSoundPitch   float32
	LoopSoundFlags   int

	Parent          int
	TagNum          int
	AttachUseAngles bool
	AttachOffset    vec.Vec3
	BeamEntNum      int

	ModelIndex int
	UsageIndex int
	SkinNum    int
	WasFrame   int
	FrameInfo  [MaxFrameInfo]FrameInfo

	ActionWeight float32

	BoneTag    [MaxBoneControls]int
	BoneAngles [MaxBoneControls]vec.Vec3

	ClientNum   int
	GroundPlane bool
	Solid       int

	Scale      float32
	Alpha      float32
	RenderFX   int
	ShaderData [2]float32
	ShaderTime float32
	Surfaces   [MaxSurfaces]byte
}

// FrameInfo is one animation channel of a TIKI model.
type FrameInfo struct {
	Index  int
	Time   float32
	Weight float32
}

type PlayerState struct {
	CommandTime int
	PMType      int
	PMFlags     int
	PMTime      int
	BobCycle    int

	Origin   vec.Vec3
	Velocity vec.Vec3

	Gravity     int
	Speed       int
	DeltaAngles [3]int

	GroundEntityNum int

	LegsTimer  int
	LegsAnim   int
	TorsoTimer int
	TorsoAnim  int

	MovementDir  int
	GrapplePoint vec.Vec3

	ClientNum  int
	ViewAngles vec.Vec3
	ViewHeight int
	LeanAngle  float32

	Stats         [MaxStats]int
	ActiveItems   [MaxActiveItems]int
	AmmoNameIndex [MaxAmmo]int
	AmmoAmount    [MaxAmmo]int
	MaxAmmoAmount [MaxAmmo]int

	CurrentMusicMood    int
	FallbackMusicMood   int
	MusicVolume         float32
	MusicVolumeFadeTime float32
	ReverbType          int
	ReverbLevel         float32

	Blend        [4]float32
	FOV          float32
	CameraOrigin vec.Vec3
	CameraAngles vec.Vec3
	CameraFlags  int
	CameraOffset float32
	CameraPosOfs vec.Vec3

	Voted int
}

type UserCmd struct {
	ServerTime  int
	Buttons     int
	Weapon      int
	Angles      [3]int
	ForwardMove int8
	RightMove   int8
	UpMove      int8
}

// SoundEvent is a positioned sound started by the game during a frame.
type SoundEvent struct {
	Origin    vec.Vec3
	EntityNum int
	Channel   int
	Name      string
	Volume    float32
	MinDist   float32
}

// Snapshot is the state of the world one client sees after a server
// frame.
type Snapshot struct {
	Valid      bool
	MessageNum int
	SnapFlags  int
	Ping       int
	ServerTime int
	AreaMask   [MaxMapAreaBytes]byte
	PS         PlayerState
	Entities   []EntityState
	Sounds     []SoundEvent
	// ServerCommandSequence is the highest reliable command sent to the
	// client when the snapshot was built.
	ServerCommandSequence int
}

// GameState carries all config strings to a connecting client.
type GameState struct {
	ConfigStrings   [MaxConfigStrings]string
	CommandSequence int
	ClientNum       int
}
