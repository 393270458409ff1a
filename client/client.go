// SPDX-License-Identifier: GPL-2.0-or-later

// Package client is the co-hosted loopback client. It keeps the snapshots
// and usercmds the client game module asks for and runs that module.
package client

import (
	"gofakk/alias"
	"gofakk/bsp"
	"gofakk/cgame"
	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/filesystem"
	"gofakk/net"
	"gofakk/protocol"
	clc "gofakk/protocol/client"
	"gofakk/rand"
	"gofakk/snd"
	"gofakk/tiki"
	"gofakk/zone"
)

type State int

const (
	Disconnected State = iota
	Loading
	Active
)

func (s State) String() string {
	switch s {
	case Loading:
		return "LOADING"
	case Active:
		return "ACTIVE"
	}
	return "DISCONNECTED"
}

// GameStates is the server the client is co-hosted with.
type GameStates interface {
	GameState(clientNum int) *protocol.GameState
}

type Deps struct {
	Zone     *zone.Zone
	Cvars    *cvar.Registry
	Commands *cmd.Commands
	Cbuf     interface{ AddText(string) bool }
	FS       *filesystem.FS
	World    *bsp.World
	TIKI     *tiki.Cache
	Aliases  *alias.Registry
	Sounds   *snd.Registry
	Loopback *net.Loopback
	Server   GameStates

	Renderer Renderer
	Sound    SoundOutput
	Music    Music
	Input    Input

	// CGameDir is searched for cgame modules that are not linked in.
	CGameDir string
	// CGameModule is the module name, "cgame" when empty.
	CGameModule string
}

type Client struct {
	Deps

	state State
	cge   *cgame.Export
	// err is a failure outside of Frame, reported by the next Frame
	err error

	mapName   string
	gameState protocol.GameState

	snapshots  [protocol.PacketBackup]*protocol.Snapshot
	curSnap    int
	serverTime int
	// newest valid snapshot, the server deltas against it
	messageAcknowledge int

	cmds      [protocol.CmdBackup]protocol.UserCmd
	cmdNumber int

	// server commands received
	serverCommands        [protocol.MaxReliableCommands]string
	serverCommandSequence int
	// client commands not yet executed by the server
	reliable            [protocol.MaxReliableCommands]string
	reliableSequence    int
	reliableAcknowledge int

	args          cmd.Arguments
	cgameCommands []string
	modelTIKI     map[int]tiki.Handle
}

// New registers the client cvars and console commands.
func New(d Deps) *Client {
	if d.Zone == nil {
		d.Zone = zone.New(0)
	}
	if d.Commands == nil {
		d.Commands = cmd.New()
	}
	if d.World == nil {
		d.World = bsp.NewWorld()
	}
	if d.Aliases == nil {
		d.Aliases = alias.NewRegistry(0)
	}
	if d.TIKI == nil {
		r := rand.New(0)
		d.TIKI = tiki.NewCache(d.FS, d.Zone, d.Aliases, &r)
	}
	if d.Sounds == nil {
		d.Sounds = snd.NewRegistry(d.FS)
	}
	if d.Loopback == nil {
		d.Loopback = net.NewLoopback(net.DefaultLoopbackSlots, nil)
	}
	if d.Renderer == nil {
		d.Renderer = &NullRenderer{}
	}
	if d.Sound == nil {
		d.Sound = &snd.Queue{}
	}
	if d.Music == nil {
		d.Music = NullMusic{}
	}
	if d.Input == nil {
		d.Input = NullInput{}
	}
	if d.CGameModule == "" {
		d.CGameModule = "cgame"
	}
	c := &Client{Deps: d, modelTIKI: map[int]tiki.Handle{}}
	d.Cvars.Get("cl_running", "1", cvar.ROM)
	d.Cvars.Get("name", "player", cvar.USERINFO|cvar.ARCHIVE)
	d.Cvars.Get("cl_cgame", "", cvar.INIT)
	c.registerCommands()
	return c
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) ServerTime() int {
	return c.serverTime
}

// MapLoading starts the client game on the level the server just spawned.
func (c *Client) MapLoading(mapname string) {
	c.Disconnect()
	c.state = Loading
	c.mapName = mapname
	if c.Server != nil {
		if gs := c.Server.GameState(0); gs != nil {
			c.gameState = *gs
			c.serverCommandSequence = gs.CommandSequence
		}
	}

	world := "maps/" + mapname + ".bsp"
	if err := c.World.LoadMap(c.FS, world); err != nil {
		c.fail(errs.Com(errs.Drop, err))
		return
	}
	c.Renderer.LoadWorldMap(world)

	ex, err := cgame.Load(c.CGameDir, c.CGameModule)
	if err != nil {
		c.fail(err)
		return
	}
	c.cge = ex
	imp := c.cgameImport()
	if err := cgame.Call(func() {
		ex.Init(imp, c.curSnap, c.serverCommandSequence)
		if ex.GetRendererConfig != nil {
			ex.GetRendererConfig()
		}
	}); err != nil {
		c.fail(err)
		return
	}
	c.state = Active
	c.SendClientCommand(`userinfo "` + c.Cvars.InfoString(cvar.USERINFO) + `"`)
	conlog.Logger().Info().Str("map", mapname).Str("cgame", c.CGameModule).Msg("client game started")
}

func (c *Client) fail(err error) {
	conlog.Errorf(err, "MapLoading")
	if c.err == nil {
		c.err = err
	}
	c.Disconnect()
}

// ConfigstringChanged is the fast path of a cs server command.
func (c *Client) ConfigstringChanged(index int, value string) {
	if index < 0 || index >= protocol.MaxConfigStrings {
		return
	}
	c.gameState.ConfigStrings[index] = value
}

// Disconnect stops the client game and forgets the level.
func (c *Client) Disconnect() {
	if c.cge != nil {
		ex := c.cge
		c.cge = nil
		if ex.Shutdown != nil {
			if err := cgame.Call(ex.Shutdown); err != nil {
				conlog.Errorf(err, "CG_Shutdown")
			}
		}
	}
	for _, name := range c.cgameCommands {
		c.Commands.Remove(name)
	}
	c.cgameCommands = nil
	c.Zone.FreeByTag(zone.TagCGame)
	c.Sound.StopAll()

	c.state = Disconnected
	c.mapName = ""
	c.gameState = protocol.GameState{}
	c.snapshots = [protocol.PacketBackup]*protocol.Snapshot{}
	c.curSnap = 0
	c.serverTime = 0
	c.messageAcknowledge = 0
	c.cmds = [protocol.CmdBackup]protocol.UserCmd{}
	c.cmdNumber = 0
	c.serverCommandSequence = 0
	c.reliableSequence = 0
	c.reliableAcknowledge = 0
	c.modelTIKI = map[int]tiki.Handle{}
}

// Shutdown is Disconnect at engine shutdown.
func (c *Client) Shutdown() {
	c.Disconnect()
	c.Cvars.ForceSet("cl_running", "0")
}

// Frame reads the server messages, sends the next usercmd and lets the
// client game draw.
func (c *Client) Frame(msec int) error {
	if err := c.err; err != nil {
		c.err = nil
		return err
	}
	if c.state != Active {
		return nil
	}
	if err := c.readPackets(); err != nil {
		return err
	}
	if c.state != Active {
		return nil
	}
	c.serverTime += msec
	c.createCmd(msec)
	if err := c.writePacket(); err != nil {
		return err
	}

	ex := c.cge
	return cgame.Call(func() {
		ex.DrawActiveFrame(c.serverTime, cgame.StereoCenter, false)
		if ex.Draw2D != nil {
			ex.Draw2D()
		}
	})
}

func (c *Client) createCmd(msec int) {
	c.cmdNumber++
	uc := &c.cmds[c.cmdNumber&(protocol.CmdBackup-1)]
	*uc = protocol.UserCmd{ServerTime: c.serverTime}
	c.Input.Sample(uc, msec)
	uc.ServerTime = c.serverTime
}

// SendClientCommand queues a reliable command for the server.
func (c *Client) SendClientCommand(text string) {
	if c.reliableSequence-c.reliableAcknowledge >= protocol.MaxReliableCommands {
		errs.Raise(errs.Drop, errs.Overflow, "CL_AddReliableCommand: client command overflow")
	}
	c.reliableSequence++
	c.reliable[c.reliableSequence&(protocol.MaxReliableCommands-1)] = text
}

func (c *Client) writePacket() error {
	msg := &clc.Message{
		MessageAcknowledge:  c.messageAcknowledge,
		ReliableAcknowledge: c.serverCommandSequence,
		Moves:               []protocol.UserCmd{c.cmds[c.cmdNumber&(protocol.CmdBackup-1)]},
	}
	for seq := c.reliableAcknowledge + 1; seq <= c.reliableSequence; seq++ {
		msg.Commands = append(msg.Commands, clc.Command{
			Sequence: seq,
			Text:     c.reliable[seq&(protocol.MaxReliableCommands-1)],
		})
	}
	data, err := clc.ToBytes(msg)
	if err != nil {
		return errs.Com(errs.Drop, err)
	}
	return c.Loopback.Send(net.ClientToServer, data)
}

// GetGameState returns the config strings as the client knows them.
func (c *Client) GetGameState() *protocol.GameState {
	gs := c.gameState
	return &gs
}

// GetSnapshot returns snapshot n if it is still in the ring and valid.
func (c *Client) GetSnapshot(n int) (*protocol.Snapshot, bool) {
	if n > c.curSnap {
		errs.Raise(errs.Drop, errs.LimitExceeded, "CL_GetSnapshot: %d > %d", n, c.curSnap)
	}
	if c.curSnap-n >= protocol.PacketBackup {
		return nil, false
	}
	s := c.snapshots[n&(protocol.PacketBackup-1)]
	if s == nil || !s.Valid || s.MessageNum != n {
		return nil, false
	}
	return s, true
}

func (c *Client) GetCurrentSnapshotNumber() (snapshot, serverTime int) {
	if s := c.snapshots[c.curSnap&(protocol.PacketBackup-1)]; s != nil {
		return c.curSnap, s.ServerTime
	}
	return c.curSnap, 0
}

func (c *Client) GetCurrentCmdNumber() int {
	return c.cmdNumber
}

// GetUserCmd returns usercmd n if it is still in the ring.
func (c *Client) GetUserCmd(n int) (protocol.UserCmd, bool) {
	if n > c.cmdNumber {
		errs.Raise(errs.Drop, errs.LimitExceeded, "CL_GetUserCmd: %d >= %d", n, c.cmdNumber)
	}
	if c.cmdNumber-n >= protocol.CmdBackup || n <= 0 {
		return protocol.UserCmd{}, false
	}
	return c.cmds[n&(protocol.CmdBackup-1)], true
}

// GetServerCommand tokenizes server command seq for Argc and Argv.
func (c *Client) GetServerCommand(seq int) bool {
	if c.serverCommandSequence-seq >= protocol.MaxReliableCommands {
		errs.Raise(errs.Drop, errs.LimitExceeded, "CL_GetServerCommand: a reliable command was cycled out")
	}
	if seq > c.serverCommandSequence {
		errs.Raise(errs.Drop, errs.LimitExceeded, "CL_GetServerCommand: requested a command not received")
	}
	c.args = cmd.Parse(c.serverCommands[seq&(protocol.MaxReliableCommands-1)])
	if c.args.Argc() > 0 && c.args.Argv(0).String() == "disconnect" {
		errs.Raise(errs.Disconnect, errs.Unknown, "Server disconnected")
	}
	return true
}
