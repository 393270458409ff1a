// SPDX-License-Identifier: GPL-2.0-or-later

package protocol

const (
	// Version is sent in the serverinfo string, the loopback client does
	// not check it.
	Version = 1

	GEntityNumBits = 10
	MaxGEntities   = 1 << GEntityNumBits

	EntityNumNone      = MaxGEntities - 1
	EntityNumWorld     = MaxGEntities - 2
	EntityNumMaxNormal = MaxGEntities - 2

	MaxClients       = 64
	MaxConfigStrings = 2048
	MaxStats         = 32
	MaxAmmo          = 16
	MaxActiveItems   = 8
	MaxFrameInfo     = 16
	MaxBoneControls  = 5
	MaxSurfaces      = 32

	MaxEntitiesInSnapshot = 256
	MaxServerSounds       = 64
	MaxMapAreaBytes       = 32

	MaxStringChars = 1024
	BigInfoString  = 8192
	MaxInfoString  = 1024

	MaxMsgLen = 16384

	// PacketBackup snapshots are kept by the client.
	PacketBackup = 32
	// CmdBackup usercmds are kept by the client.
	CmdBackup = 64
	// MaxReliableCommands pending server or client commands per client.
	MaxReliableCommands = 64
)

// config string layout
const (
	CSServerInfo = 0
	CSSystemInfo = 1
	CSMessage    = 2
	CSMusic      = 3
	CSLevelStart = 4
	CSFogInfo    = 5
	CSSkyInfo    = 6

	CSModels      = 32
	CSSounds      = CSModels + 256
	CSImages      = CSSounds + 256
	CSLightStyles = CSImages + 256
	CSItems       = CSLightStyles + 32
	CSMax         = CSItems + 256

	MaxModels      = 256
	MaxSounds      = 256
	MaxImages      = 256
	MaxLightStyles = 32
	MaxItems       = 256
)

// Snapshot flags.
const (
	SnapRateDelayed   = 1
	SnapNotActive     = 2
	SnapServerCount   = 4
	SnapLevelChanging = 8
)

// Trajectory types.
const (
	TrStationary = iota
	TrInterpolate
	TrLinear
	TrLinearStop
	TrSine
	TrGravity
)

const (
	// SolidBModel marks an entity clipped against its inline model.
	SolidBModel = 0xffffff
)

// PackSolid encodes an entity box in 24 bits so clients can predict
// against it. The box must be symmetric in x and y.
func PackSolid(mins, maxs [3]float32) int {
	clamp := func(v int) int {
		if v < 1 {
			return 1
		}
		if v > 255 {
			return 255
		}
		return v
	}
	x := clamp(int(maxs[0]))
	zd := clamp(int(-mins[2]))
	zu := clamp(int(maxs[2] + 32))
	return zu<<16 | zd<<8 | x
}

// UnpackSolid decodes PackSolid.
func UnpackSolid(solid int) (mins, maxs [3]float32) {
	x := float32(solid & 255)
	zd := float32((solid >> 8) & 255)
	zu := float32((solid>>16)&255) - 32
	return [3]float32{-x, -x, -zd}, [3]float32{x, x, zu}
}
