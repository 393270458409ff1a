// SPDX-License-Identifier: GPL-2.0-or-later

// Package server runs the authoritative simulation of a level.
package server

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gofakk/alias"
	"gofakk/bsp"
	"gofakk/cbuf"
	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/filesystem"
	"gofakk/game"
	"gofakk/metrics"
	"gofakk/net"
	"gofakk/protocol"
	"gofakk/rand"
	"gofakk/snd"
	"gofakk/tiki"
	"gofakk/zone"
)

type State int

const (
	Dead State = iota
	Loading
	Game
)

func (s State) String() string {
	switch s {
	case Loading:
		return "LOADING"
	case Game:
		return "GAME"
	}
	return "DEAD"
}

// ClientHook is the co-hosted client as the server sees it.
type ClientHook interface {
	MapLoading(mapname string)
	ConfigstringChanged(index int, value string)
}

// Deps are the engine services the server works with.
type Deps struct {
	Zone     *zone.Zone
	// Hunk holds the level data, cleared on every spawn and shutdown.
	Hunk     *zone.Hunk
	Cvars    *cvar.Registry
	Commands *cmd.Commands
	Cbuf     *cbuf.CommandBuffer
	FS       *filesystem.FS
	World    *bsp.World
	TIKI     *tiki.Cache
	Aliases  *alias.Registry
	Sounds   *snd.Registry
	Loopback *net.Loopback
	Metrics  *metrics.Metrics
	Rand     *rand.Generator
	Hook     ClientHook
	// GameDir is searched for game modules that are not linked in.
	GameDir string
	// GameModule is the module name, "game" when empty.
	GameModule string
}

type Server struct {
	Deps

	state State
	ge    *game.Export

	time            int
	residual        int
	frameTime       int
	snapshotCounter int
	mapName         string
	sessionID       uuid.UUID

	configStrings [protocol.MaxConfigStrings]string
	modelHandles  [protocol.MaxModels]tiki.Handle

	// the entity directory, indexed by entity number
	linked [protocol.MaxGEntities]*game.Entity
	svEnts [protocol.MaxGEntities]svEntity

	gents       []*game.Entity
	numEntities int
	gclients    []*protocol.PlayerState

	clients      []*client
	gameCommands []string
	args         cmd.Arguments
	debugLines   game.DebugLines
	sounds       []protocol.SoundEvent
	farPlane     int
	skyPortal    bool

	fps          *cvar.Cvar
	maxClients   *cvar.Cvar
	floodProtect *cvar.Cvar
}

// New registers the server cvars and console commands.
func New(d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Rand == nil {
		r := rand.New(0)
		d.Rand = &r
	}
	if d.Zone == nil {
		d.Zone = zone.New(0)
	}
	if d.Commands == nil {
		d.Commands = cmd.New()
	}
	if d.Aliases == nil {
		d.Aliases = alias.NewRegistry(d.Rand.Uint32())
	}
	if d.TIKI == nil {
		d.TIKI = tiki.NewCache(d.FS, d.Zone, d.Aliases, d.Rand)
	}
	if d.Sounds == nil {
		d.Sounds = snd.NewRegistry(d.FS)
	}
	if d.World == nil {
		d.World = bsp.NewWorld()
	}
	if d.Hunk != nil {
		d.World.SetHunk(d.Hunk)
	}
	if d.Loopback == nil {
		d.Loopback = net.NewLoopback(net.DefaultLoopbackSlots, d.Metrics)
	}
	if d.GameModule == "" {
		d.GameModule = "game"
	}
	s := &Server{Deps: d}
	s.fps = d.Cvars.Get("sv_fps", "20", cvar.ARCHIVE)
	s.maxClients = d.Cvars.Get("sv_maxclients", "1", cvar.LATCH|cvar.SERVERINFO)
	d.Cvars.Get("mapname", "nomap", cvar.SERVERINFO)
	d.Cvars.Get("sv_running", "0", cvar.ROM)
	d.Cvars.Get("sv_cheats", "1", cvar.LATCH|cvar.SYSTEMINFO)
	s.floodProtect = d.Cvars.Get("sv_floodprotect", "1", cvar.ARCHIVE)
	d.Cvars.Get("sv_sessionid", "", cvar.SERVERINFO|cvar.ROM)
	d.Cvars.Get("protocol", fmt.Sprint(protocol.Version), cvar.SERVERINFO|cvar.ROM)
	s.frameTime = defaultFrameTime
	s.updateFrameTime()
	s.registerCommands()
	return s
}

func (s *Server) State() State {
	return s.state
}

func (s *Server) Time() int {
	return s.time
}

func (s *Server) MapName() string {
	return s.mapName
}

func (s *Server) SessionID() uuid.UUID {
	return s.sessionID
}

func (s *Server) FrameTime() int {
	return s.frameTime
}

// Residual is the wall time not yet simulated.
func (s *Server) Residual() int {
	return s.residual
}

func (s *Server) DebugLines() *game.DebugLines {
	return &s.debugLines
}

// GameState returns the config strings as sent to a connecting client.
func (s *Server) GameState(clientNum int) *protocol.GameState {
	gs := &protocol.GameState{
		ConfigStrings: s.configStrings,
		ClientNum:     clientNum,
	}
	if c := s.client(clientNum); c != nil {
		// the unacknowledged commands follow the game state
		gs.CommandSequence = c.reliableAcknowledge
	}
	return gs
}

// SpawnServer loads mapname and starts the game module on it.
func (s *Server) SpawnServer(mapname string) error {
	if s.state != Dead {
		s.Shutdown("Server restarted")
	}
	conlog.Printf("------ Server Initialization ------\n")
	conlog.Printf("Server: %s\n", mapname)

	s.state = Loading
	s.time = 0
	s.residual = 0
	s.snapshotCounter = 0
	s.clearConfigstrings()
	s.Cvars.ApplyLatched()
	s.updateFrameTime()
	s.mapName = mapname
	s.Cvars.ForceSet("mapname", mapname)
	s.Cvars.ForceSet("sv_running", "1")
	s.sessionID = uuid.New()
	s.Cvars.ForceSet("sv_sessionid", s.sessionID.String())
	// model handles and their alias scopes belong to the level
	s.TIKI.FlushAll()
	if s.Hunk != nil {
		s.Hunk.Clear()
	}

	if err := s.World.LoadMap(s.FS, bspName(mapname)); err != nil {
		s.Shutdown("")
		return errs.Com(errs.Drop, err)
	}

	ge, err := game.Load(s.GameDir, s.GameModule, s.gameImport())
	if err != nil {
		s.Shutdown("")
		return err
	}
	s.ge = ge

	n := s.maxClients.Integer()
	if n < 1 {
		n = 1
	}
	if n > protocol.MaxClients {
		n = protocol.MaxClients
	}
	s.clients = make([]*client, n)
	for i := range s.clients {
		s.clients[i] = newClient(i)
	}

	seed := int(s.Rand.Uint32() & 0x7fffffff)
	if err := game.Call(func() {
		ge.Init(0, seed)
		ge.SpawnEntities(mapname, s.World.EntityString(), 0)
	}); err != nil {
		s.Shutdown(err.Error())
		return err
	}

	for _, c := range s.clients {
		var reason string
		if err := game.Call(func() { reason = ge.ClientConnect(c.num, true) }); err != nil {
			s.Shutdown(err.Error())
			return err
		}
		if reason != "" {
			conlog.Printf("Game rejected a connection: %s.\n", reason)
			continue
		}
		c.state = clientActive
		if err := game.Call(func() { ge.ClientBegin(s.gentity(c.num), &protocol.UserCmd{}) }); err != nil {
			s.Shutdown(err.Error())
			return err
		}
	}

	s.configStrings[protocol.CSServerInfo] = s.Cvars.InfoString(cvar.SERVERINFO)
	s.configStrings[protocol.CSSystemInfo] = s.Cvars.InfoString(cvar.SYSTEMINFO)
	s.state = Game
	if s.Hook != nil {
		s.Hook.MapLoading(mapname)
	}
	conlog.Logger().Info().Str("map", mapname).Str("session", s.sessionID.String()).Msg("level spawned")
	conlog.Printf("-----------------------------------\n")
	return nil
}

func bspName(mapname string) string {
	return "maps/" + mapname + ".bsp"
}

// Shutdown stops the level. The server is DEAD afterwards.
func (s *Server) Shutdown(reason string) {
	if s.state == Dead && s.ge == nil {
		return
	}
	conlog.Printf("----- Server Shutdown -----\n")
	if reason != "" {
		conlog.Printf("%s\n", reason)
	}
	if s.ge != nil {
		ge := s.ge
		for _, c := range s.clients {
			if c.state == clientActive {
				if err := game.Call(func() { ge.ClientDisconnect(s.gentity(c.num)) }); err != nil {
					conlog.Errorf(err, "ClientDisconnect")
				}
				c.state = clientFree
			}
		}
		if err := game.Call(ge.Shutdown); err != nil {
			conlog.Errorf(err, "game shutdown")
		}
		s.ge = nil
	}
	for _, name := range s.gameCommands {
		s.Commands.Remove(name)
	}
	s.gameCommands = nil
	if s.Zone != nil {
		s.Zone.FreeByTag(zone.TagGame)
	}
	s.unlinkAll()
	s.gents = nil
	s.numEntities = 0
	s.gclients = nil
	s.clients = nil
	s.World.ClearMap()
	if s.Hunk != nil {
		s.Hunk.Clear()
	}
	s.clearConfigstrings()
	s.sounds = s.sounds[:0]
	s.debugLines.Clear()
	s.Loopback.Clear()
	s.Cvars.ForceSet("sv_running", "0")
	s.state = Dead
}

func (s *Server) clearConfigstrings() {
	for i := range s.configStrings {
		s.configStrings[i] = ""
	}
	for i := range s.modelHandles {
		s.modelHandles[i] = 0
	}
}

// SetConfigstring changes a slot and tells the clients about it.
func (s *Server) SetConfigstring(index int, value string) {
	if index < 0 || index >= protocol.MaxConfigStrings {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_SetConfigstring: bad index %d", index)
	}
	switch index {
	case protocol.CSModels, protocol.CSSounds, protocol.CSImages:
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_SetConfigstring: index %d is reserved", index)
	}
	if s.configStrings[index] == value {
		return
	}
	s.configStrings[index] = value
	if s.state != Game {
		return
	}
	s.SendServerCommand(-1, "cs %d \"%s\"", index, value)
	if s.Hook != nil {
		s.Hook.ConfigstringChanged(index, value)
	}
}

func (s *Server) GetConfigstring(index int) string {
	if index < 0 || index >= protocol.MaxConfigStrings {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_GetConfigstring: bad index %d", index)
	}
	return s.configStrings[index]
}

// findIndex returns the slot of name inside a config string range, adding
// it when create is set. Slot 0 is never used.
func (s *Server) findIndex(name string, start, max int, create bool) int {
	if name == "" {
		return 0
	}
	i := 1
	for ; i < max; i++ {
		cs := s.configStrings[start+i]
		if cs == "" {
			break
		}
		if strings.EqualFold(cs, name) {
			return i
		}
	}
	if !create {
		return 0
	}
	if i == max {
		errs.Raise(errs.Drop, errs.LimitExceeded, "G_FindConfigstringIndex: overflow")
	}
	s.SetConfigstring(start+i, name)
	return i
}

func (s *Server) ModelIndex(name string) int {
	i := s.findIndex(name, protocol.CSModels, protocol.MaxModels, true)
	if i > 0 && s.modelHandles[i] == 0 && strings.EqualFold(filesystem.Ext(name), ".tik") {
		s.modelHandles[i] = s.TIKI.RegisterModel(name)
	}
	return i
}

func (s *Server) SoundIndex(name string) int {
	return s.findIndex(name, protocol.CSSounds, protocol.MaxSounds, true)
}

func (s *Server) ImageIndex(name string) int {
	return s.findIndex(name, protocol.CSImages, protocol.MaxImages, true)
}

func (s *Server) ItemIndex(name string) int {
	return s.findIndex(name, protocol.CSItems, protocol.MaxItems, true)
}

func (s *Server) SetLightStyle(i int, value string) {
	if i < 0 || i >= protocol.MaxLightStyles {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_SetLightStyle: bad style %d", i)
	}
	s.SetConfigstring(protocol.CSLightStyles+i, value)
}

// modelHandle maps a model index to its TIKI handle, 0 for other models.
func (s *Server) modelHandle(index int) tiki.Handle {
	if index <= 0 || index >= len(s.modelHandles) {
		return 0
	}
	return s.modelHandles[index]
}

// SendServerCommand queues a reliable command for one client or, with
// clientNum -1, for every active client.
func (s *Server) SendServerCommand(clientNum int, format string, v ...interface{}) {
	text := fmt.Sprintf(format, v...)
	if clientNum == -1 {
		for _, c := range s.clients {
			if c.state == clientActive {
				s.addReliableCommand(c, text)
			}
		}
		return
	}
	c := s.client(clientNum)
	if c == nil {
		errs.Raise(errs.Drop, errs.LimitExceeded, "SV_SendServerCommand: bad client %d", clientNum)
	}
	s.addReliableCommand(c, text)
}

func (s *Server) client(num int) *client {
	if num < 0 || num >= len(s.clients) {
		return nil
	}
	return s.clients[num]
}

func (s *Server) updateFrameTime() {
	fps := s.fps.Integer()
	if fps <= 0 {
		return
	}
	s.frameTime = 1000 / fps
	if s.frameTime < 1 {
		s.frameTime = 1
	}
}
