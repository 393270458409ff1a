// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"fmt"

	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/crc"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/qtime"
	"gofakk/tiki"
	"gofakk/zone"
)

// gameImport builds the table handed to the game module.
func (s *Server) gameImport() *game.Import {
	fs := s.FS
	resolve := func(m int) tiki.Handle { return s.modelHandle(m) }
	return &game.Import{
		Printf:  conlog.Printf,
		DPrintf: conlog.DPrintf,
		DebugPrintf: func(format string, v ...interface{}) {
			conlog.SafePrintf(format, v...)
		},
		Error: func(code errs.Code, format string, v ...interface{}) {
			errs.Raise(code, errs.Unknown, format, v...)
		},
		Milliseconds: qtime.Milliseconds,

		Malloc: func(size int) *zone.Block { return s.Zone.Alloc(size, zone.TagGame) },
		Free: func(b *zone.Block) {
			if err := s.Zone.Free(b); err != nil {
				panic(errs.Com(errs.Fatal, err))
			}
		},

		Cvar: func(name, value string, flags cvar.Flag) *cvar.Cvar { return s.Cvars.Get(name, value, flags) },
		CvarSet: func(name, value string) {
			if err := s.Cvars.Set(name, value); err != nil {
				conlog.Printf("%v\n", err)
			}
		},

		Argc:       func() int { return s.args.Argc() },
		Argv:       func(n int) string { return s.args.Argv(n).String() },
		Args:       func() string { return s.args.ArgumentString() },
		AddCommand: s.addGameCommand,

		FSReadFile:   fs.ReadFile,
		FSFreeFile:   fs.FreeFile,
		FSWriteFile:  fs.WriteFile,
		FSOpenWrite:  fs.OpenWrite,
		FSOpenAppend: fs.OpenAppend,
		FSWrite:      fs.Write,
		FSRead:       fs.Read,
		FSClose:      fs.Close,
		FSTell:       fs.Tell,
		FSSeek:       fs.Seek,
		FSFlush:      fs.Flush,

		SendConsoleCommand: func(text string) { s.Cbuf.AddText(text) },
		SendServerCommand:  s.SendServerCommand,
		SetConfigstring:    s.SetConfigstring,
		GetConfigstring:    s.GetConfigstring,
		SetUserinfo:        s.SetUserinfo,
		GetUserinfo:        s.GetUserinfo,

		SetBrushModel:         s.SetBrushModel,
		Trace:                 s.Trace,
		PointContents:         s.PointContents,
		InPVS:                 s.World.InPVS,
		InPVSIgnorePortals:    s.World.InPVSIgnorePortals,
		AdjustAreaPortalState: s.AdjustAreaPortalState,
		AreasConnected:        s.World.AreasConnected,

		LinkEntity:   s.LinkEntity,
		UnlinkEntity: s.UnlinkEntity,
		AreaEntities: s.AreaEntities,
		ClipToEntity: s.ClipToEntity,

		ImageIndex: s.ImageIndex,
		ItemIndex:  s.ItemIndex,
		SoundIndex: s.SoundIndex,
		ModelIndex: s.ModelIndex,

		SetLightStyle: s.SetLightStyle,
		GameDir:       fs.GameDir,
		IsModel:       s.IsModel,
		SetModel:      s.SetModel,

		TIKI:  game.NewTIKI(s.TIKI, resolve),
		Alias: game.NewAlias(s.Aliases, resolve),

		Sound:           s.startSound,
		StopSound:       s.stopSound,
		SoundLength:     s.Sounds.Length,
		SoundAmplitudes: s.Sounds.Amplitudes,

		CalcCRC:    func(data []byte) int { return int(crc.Checksum(data)) },
		DebugLines: s.DebugLines,

		LocateGameData: s.LocateGameData,

		SetFarPlane: func(farplane int) {
			s.farPlane = farplane
			s.SetConfigstring(protocol.CSFogInfo, fmt.Sprint(farplane))
		},
		SetSkyPortal: func(skyportal bool) {
			s.skyPortal = skyportal
			v := "0"
			if skyportal {
				v = "1"
			}
			s.SetConfigstring(protocol.CSSkyInfo, v)
		},
	}
}

// LocateGameData tells the server where the game keeps its entities.
// stride is the size of the game's own entity type, it has to start with a
// game.Entity.
func (s *Server) LocateGameData(ents []*game.Entity, num int, stride uintptr, clients []*protocol.PlayerState, clientStride uintptr) {
	if stride < game.EntityPrefixSize {
		errs.Raise(errs.Drop, errs.VersionMismatch, "SV_LocateGameData: entity size %d smaller than %d", stride, game.EntityPrefixSize)
	}
	if num < 0 || num > len(ents) || num > protocol.MaxGEntities {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_LocateGameData: bad entity count %d", num)
	}
	s.gents = ents
	s.numEntities = num
	s.gclients = clients
	if s.ge != nil {
		s.ge.GEntities = ents
		s.ge.GEntitySize = stride
		s.ge.NumEntities = num
		s.ge.MaxEntities = len(ents)
	}
}

func (s *Server) gentity(num int) *game.Entity {
	if num < 0 || num >= len(s.gents) {
		return nil
	}
	return s.gents[num]
}

func (s *Server) gclient(num int) *protocol.PlayerState {
	if num < 0 || num >= len(s.gclients) {
		return nil
	}
	return s.gclients[num]
}

// addGameCommand forwards a console command to the game module.
func (s *Server) addGameCommand(name string) {
	if s.Commands.Exists(name) {
		conlog.DPrintf("game command %s already defined\n", name)
		return
	}
	err := s.Commands.Add(name, func(a cmd.Arguments) error {
		if s.ge == nil {
			return nil
		}
		s.args = a
		defer func() { s.args = cmd.Arguments{} }()
		return game.Call(func() { s.ge.ConsoleCommand() })
	})
	if err != nil {
		conlog.Errorf(err, "AddCommand %s", name)
		return
	}
	s.gameCommands = append(s.gameCommands, name)
}

// GameCommand offers an unknown console command to the game module. It is
// the last command buffer executor.
func (s *Server) GameCommand(a cmd.Arguments) (bool, error) {
	if s.ge == nil || s.state != Game {
		return false, nil
	}
	s.args = a
	defer func() { s.args = cmd.Arguments{} }()
	handled := false
	err := game.Call(func() { handled = s.ge.ConsoleCommand() })
	return handled, err
}

func (s *Server) startSound(origin *vec.Vec3, entnum, channel int, name string, volume, minDist float32) {
	if len(s.sounds) >= protocol.MaxServerSounds {
		conlog.DPrintf("SV_Sound: too many sounds this frame, %s dropped\n", name)
		return
	}
	ev := protocol.SoundEvent{
		EntityNum: entnum,
		Channel:   channel,
		Name:      name,
		Volume:    volume,
		MinDist:   minDist,
	}
	switch {
	case origin != nil:
		ev.Origin = *origin
	case entnum >= 0 && entnum < len(s.gents) && s.gents[entnum] != nil:
		ev.Origin = s.gents[entnum].CurrentOrigin
	}
	s.sounds = append(s.sounds, ev)
}

func (s *Server) stopSound(entnum, channel int) {
	s.SendServerCommand(-1, "stopsound %d %d", entnum, channel)
}
