// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"bytes"
	"strings"

	"github.com/google/uuid"

	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/protocol"
	"gofakk/savegame"
)

func (s *Server) registerCommands() {
	cmd.Must(s.Commands.Add("map", s.mapCommand))
	cmd.Must(s.Commands.Add("killserver", s.killServerCommand))
	cmd.Must(s.Commands.Add("status", s.statusCommand))
	cmd.Must(s.Commands.Add("serverinfo", s.serverInfoCommand))
	cmd.Must(s.Commands.Add("savegame", s.saveGameCommand))
	cmd.Must(s.Commands.Add("loadgame", s.loadGameCommand))
}

func (s *Server) mapCommand(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("map <mapname> : start a level\n")
		return nil
	}
	name := a.Argv(1).String()
	if !s.FS.FileExists(bspName(name)) {
		conlog.Printf("Can't find map %s\n", bspName(name))
		return nil
	}
	return s.SpawnServer(name)
}

func (s *Server) killServerCommand(a cmd.Arguments) error {
	if s.state == Dead {
		conlog.Printf("Server is not running.\n")
		return nil
	}
	s.Shutdown("Server was killed.")
	return nil
}

func (s *Server) statusCommand(a cmd.Arguments) error {
	if s.state == Dead {
		conlog.Printf("Server is not running.\n")
		return nil
	}
	conlog.Printf("map: %s\n", s.mapName)
	conlog.Printf("time: %d state: %v session: %s\n", s.time, s.state, s.sessionID)
	conlog.Printf("num state    rel name\n")
	conlog.Printf("--- ------ ----- ---------------\n")
	for _, c := range s.clients {
		st := "free"
		if c.state == clientActive {
			st = "active"
		}
		conlog.Printf("%3d %-6s %5d %s\n", c.num, st, c.reliableSequence-c.reliableAcknowledge, infoValue(c.userinfo, "name"))
	}
	return nil
}

func (s *Server) serverInfoCommand(a cmd.Arguments) error {
	conlog.Printf("Server info settings:\n")
	info := s.Cvars.InfoString(cvar.SERVERINFO)
	parts := strings.Split(strings.TrimPrefix(info, `\`), `\`)
	for i := 0; i+1 < len(parts); i += 2 {
		conlog.Printf("%-20s %s\n", parts[i], parts[i+1])
	}
	return nil
}

// infoValue finds key in a \key\value info string.
func infoValue(info, key string) string {
	parts := strings.Split(strings.TrimPrefix(info, `\`), `\`)
	for i := 0; i+1 < len(parts); i += 2 {
		if strings.EqualFold(parts[i], key) {
			return parts[i+1]
		}
	}
	return ""
}

func saveNames(name string) (archive, level, persistant string) {
	base := "save/" + name
	return base + savegame.Ext, base + ".sav", base + ".spv"
}

func (s *Server) saveGameCommand(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("savegame <name> : save the current level\n")
		return nil
	}
	if s.state != Game {
		conlog.Printf("Not playing a local game.\n")
		return nil
	}
	return s.SaveGame(a.Argv(1).String())
}

func (s *Server) loadGameCommand(a cmd.Arguments) error {
	if a.Argc() != 2 {
		conlog.Printf("loadgame <name> : load a saved level\n")
		return nil
	}
	return s.LoadGame(a.Argv(1).String())
}

// SaveGame writes the archive of the running level and lets the game
// module save its own state next to it.
func (s *Server) SaveGame(name string) error {
	if strings.ContainsAny(name, `/\.`) {
		return errs.New(errs.Configuration, "SV_SaveGame: bad name %q", name)
	}
	archive, level, persistant := saveNames(name)
	h := &savegame.Header{
		ID:         uuid.New(),
		MapName:    s.mapName,
		ServerTime: s.time,
		Comment:    s.configStrings[protocol.CSMessage],
		LevelFile:  level,
	}
	if h.Comment == "" {
		h.Comment = s.mapName
	}
	for i, cs := range s.configStrings {
		if cs != "" {
			h.ConfigStrings = append(h.ConfigStrings, savegame.ConfigString{Index: i, Value: cs})
		}
	}
	for _, cv := range s.Cvars.All() {
		if cv.Flags()&cvar.SERVERINFO != 0 && cv.Flags()&cvar.ROM == 0 {
			h.Cvars = append(h.Cvars, savegame.Cvar{Name: cv.Name(), Value: cv.String()})
		}
	}

	var buf bytes.Buffer
	if err := savegame.Write(&buf, h); err != nil {
		return err
	}
	if err := s.FS.WriteFile(archive, buf.Bytes()); err != nil {
		return err
	}
	ge := s.ge
	var werr error
	if err := game.Call(func() {
		if werr = ge.WriteLevel(level, false); werr == nil {
			werr = ge.WritePersistant(persistant)
		}
	}); err != nil {
		return err
	}
	if werr != nil {
		return werr
	}
	conlog.Logger().Info().Str("file", archive).Str("map", s.mapName).Msg("game saved")
	return nil
}

// LoadGame respawns the saved map and restores the level from the archive.
func (s *Server) LoadGame(name string) error {
	archive, _, persistant := saveNames(name)
	data, err := s.FS.ReadFileBytes(archive)
	if err != nil {
		conlog.Printf("Can't find savegame %s\n", archive)
		return nil
	}
	h, err := savegame.Read(bytes.NewReader(data))
	if err != nil {
		return errs.Com(errs.Drop, err)
	}
	for _, cv := range h.Cvars {
		if err := s.Cvars.Set(cv.Name, cv.Value); err != nil {
			conlog.DPrintf("%v\n", err)
		}
	}
	if err := s.SpawnServer(h.MapName); err != nil {
		return err
	}
	for _, cs := range h.ConfigStrings {
		if cs.Index == protocol.CSServerInfo || cs.Index == protocol.CSSystemInfo {
			continue
		}
		if cs.Index < 0 || cs.Index >= protocol.MaxConfigStrings {
			return errs.Com(errs.Drop, errs.New(errs.Corruption, "SV_LoadGame: config string %d out of range", cs.Index))
		}
		s.SetConfigstring(cs.Index, cs.Value)
	}
	s.time = h.ServerTime

	ge := s.ge
	var rerr error
	if err := game.Call(func() {
		if !ge.LevelArchiveValid(h.LevelFile) {
			rerr = errs.New(errs.VersionMismatch, "SV_LoadGame: %s is not a valid level archive", h.LevelFile)
			return
		}
		if rerr = ge.ReadPersistant(persistant); rerr == nil {
			rerr = ge.ReadLevel(h.LevelFile)
		}
	}); err != nil {
		return err
	}
	if rerr != nil {
		return errs.Com(errs.Drop, rerr)
	}
	conlog.Logger().Info().Str("file", archive).Str("map", h.MapName).Msg("game loaded")
	return nil
}
