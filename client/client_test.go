// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/bsp"
	"gofakk/cbuf"
	"gofakk/cgame"
	"gofakk/cmd"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/filesystem"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/net"
	"gofakk/protocol"
	"gofakk/server"
	"gofakk/snd"
	"gofakk/zone"
)

// testGame is just enough of a game module to run a level.
type testGame struct {
	imp      *game.Import
	ents     []*game.Entity
	lastCmd  protocol.UserCmd
	userinfo string
	commands []string
}

func (g *testGame) export() *game.Export {
	return &game.Export{
		APIVersion: game.APIVersion,
		Init: func(startTime, seed int) {
			g.ents = make([]*game.Entity, 8)
			for i := range g.ents {
				g.ents[i] = &game.Entity{OwnerNum: protocol.EntityNumNone}
				g.ents[i].State.Number = i
			}
			ps := []*protocol.PlayerState{{}}
			g.ents[0].Client = ps[0]
			g.imp.LocateGameData(g.ents, len(g.ents), game.EntityPrefixSize, ps, 0)
		},
		Shutdown:              func() {},
		SpawnEntities:         func(mapname, entities string, levelTime int) {},
		ClientConnect:         func(clientNum int, firstTime bool) string { return "" },
		ClientBegin:           func(ent *game.Entity, cmd *protocol.UserCmd) { ent.InUse = true },
		ClientUserinfoChanged: func(ent *game.Entity, userinfo string) { g.userinfo = userinfo },
		ClientDisconnect:      func(ent *game.Entity) {},
		ClientCommand: func(ent *game.Entity) {
			g.commands = append(g.commands, strings.TrimSpace(g.imp.Argv(0)+" "+g.imp.Args()))
		},
		ClientThink:    func(ent *game.Entity, cmd *protocol.UserCmd) { g.lastCmd = *cmd },
		PrepFrame:      func() {},
		RunFrame:       func(levelTime, frameTime int) {},
		ConsoleCommand: func() bool { return false },
	}
}

// testCGame records what the client hands it.
type testCGame struct {
	imp       *cgame.Import
	initSnap  int
	initSeq   int
	frames    []int
	snapshots []int
	commands  []string
	shutdowns int
}

func (g *testCGame) export() *cgame.Export {
	return &cgame.Export{
		APIVersion: cgame.APIVersion,
		Init: func(imp *cgame.Import, serverMessageNum, serverCommandSequence int) {
			g.imp = imp
			g.initSnap = serverMessageNum
			g.initSeq = serverCommandSequence
			imp.AddCommand("cgtest")
		},
		Shutdown: func() { g.shutdowns++ },
		DrawActiveFrame: func(serverTime int, stereo cgame.StereoFrame, demoPlayback bool) {
			g.frames = append(g.frames, serverTime)
			if n, _ := g.imp.GetCurrentSnapshotNumber(); n > 0 {
				if s, ok := g.imp.GetSnapshot(n); ok {
					g.snapshots = append(g.snapshots, s.MessageNum)
				}
			}
		},
		ConsoleCommand: func() bool {
			g.commands = append(g.commands, g.imp.Argv(0)+" "+g.imp.Args())
			return true
		},
	}
}

type soundRecorder struct {
	snd.Queue
	stops [][2]int
}

func (s *soundRecorder) Stop(entnum, channel int) {
	s.stops = append(s.stops, [2]int{entnum, channel})
}

type harness struct {
	srv    *server.Server
	cl     *Client
	g      *testGame
	cg     *testCGame
	sound  *soundRecorder
	cmds   *cmd.Commands
	cbuf   *cbuf.CommandBuffer
	zone   *zone.Zone
	cgName string
}

func testMap() []byte {
	var b bsp.Builder
	wall := b.Shader("textures/wall", 0, bsp.ContentsSolid)
	walls := b.Room(vec.Vec3{-128, -128, -128}, vec.Vec3{128, 128, 128}, 16, wall)
	b.Leaf(0, 0, walls...)
	b.Model(vec.Vec3{-144, -144, -144}, vec.Vec3{144, 144, 144}, 0, len(walls))
	b.Entities("{\n\"classname\" \"worldspawn\"\n}\n")
	return b.Bytes()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, filesystem.DefaultGame, "maps")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "room.bsp"), testMap(), 0o644))

	h := &harness{
		g:     &testGame{},
		cg:    &testCGame{},
		sound: &soundRecorder{},
		cmds:  cmd.New(),
		cbuf:  &cbuf.CommandBuffer{},
		zone:  zone.New(0),
	}
	fs := filesystem.New(h.zone)
	require.NoError(t, fs.Init(base, ""))
	cvars := cvar.New()
	world := bsp.NewWorld()
	loop := net.NewLoopback(net.DefaultLoopbackSlots, nil)

	gameName := "cl_game_" + t.Name()
	game.Register(gameName, func(imp *game.Import) *game.Export {
		h.g.imp = imp
		return h.g.export()
	})
	h.cgName = "cl_cgame_" + t.Name()
	cgame.Register(h.cgName, h.cg.export)

	h.cl = New(Deps{
		Zone:        h.zone,
		Cvars:       cvars,
		Commands:    h.cmds,
		Cbuf:        h.cbuf,
		FS:          fs,
		World:       world,
		Loopback:    loop,
		Sound:       h.sound,
		CGameModule: h.cgName,
	})
	h.srv = server.New(server.Deps{
		Zone:       h.zone,
		Cvars:      cvars,
		Commands:   h.cmds,
		Cbuf:       h.cbuf,
		FS:         fs,
		World:      world,
		Loopback:   loop,
		Hook:       h.cl,
		GameModule: gameName,
	})
	h.cl.Server = h.srv
	return h
}

func (h *harness) spawn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.srv.SpawnServer("room"))
	require.Equal(t, Active, h.cl.State())
}

func (h *harness) frame(t *testing.T, msec int) {
	t.Helper()
	require.NoError(t, h.srv.Frame(msec))
	require.NoError(t, h.cl.Frame(msec))
}

func TestMapLoading(t *testing.T) {
	h := newHarness(t)
	h.spawn(t)
	assert.Equal(t, 0, h.cg.initSnap)
	assert.True(t, h.cmds.Exists("cgtest"))
	assert.Equal(t, "room", h.cl.mapName)
	assert.Contains(t, h.cl.GetGameState().ConfigStrings[protocol.CSServerInfo], `\mapname\room`)

	h.frame(t, 50)
	assert.Equal(t, []int{100}, h.cg.frames)
	assert.Equal(t, []int{1}, h.cg.snapshots)
	assert.Equal(t, 1, h.cl.GetCurrentCmdNumber())

	// the server sees the usercmd and the userinfo on its next frame
	h.frame(t, 50)
	assert.Equal(t, 100, h.g.lastCmd.ServerTime)
	assert.Contains(t, h.g.userinfo, `\name\player`)
	assert.Equal(t, []int{1, 2}, h.cg.snapshots)

	// a new level restarts the client game
	require.NoError(t, h.srv.SpawnServer("room"))
	assert.Equal(t, 1, h.cg.shutdowns)
	assert.Equal(t, Active, h.cl.State())
	assert.Equal(t, 0, h.cl.GetCurrentCmdNumber())
}

func TestServerCommands(t *testing.T) {
	h := newHarness(t)
	h.spawn(t)
	h.srv.SetConfigstring(protocol.CSMusic, "music/intro.mp3")
	h.srv.SendServerCommand(-1, "stopsound %d %d", 3, 1)
	h.srv.SendServerCommand(-1, "print \"hello there\"")
	h.frame(t, 50)

	gs := h.cl.GetGameState()
	assert.Equal(t, "music/intro.mp3", gs.ConfigStrings[protocol.CSMusic])
	assert.Equal(t, [][2]int{{3, 1}}, h.sound.stops)

	seq := h.cl.serverCommandSequence
	require.True(t, h.cl.GetServerCommand(seq))
	assert.Equal(t, "print", h.cg.imp.Argv(0))
	assert.Equal(t, "hello there", h.cg.imp.Argv(1))
	require.True(t, h.cl.GetServerCommand(seq-2))
	assert.Equal(t, 3, h.cg.imp.Argc())
	assert.Equal(t, "cs", h.cg.imp.Argv(0))

	err := cgame.Call(func() { h.cl.GetServerCommand(seq + 1) })
	assert.Equal(t, errs.Drop, errs.CodeOf(err))

	// the fast path does not wait for the frame
	h.srv.SetConfigstring(protocol.CSMessage, "welcome")
	assert.Equal(t, "welcome", h.cl.GetGameState().ConfigStrings[protocol.CSMessage])
}

func TestClientCommands(t *testing.T) {
	h := newHarness(t)
	h.spawn(t)

	h.cbuf.SetCommandExecutors([]cbuf.Efunc{
		func(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) { return h.cmds.Execute(a) },
		h.cl.ForwardCommand,
	})
	h.cbuf.AddText("cgtest one two\ngive all\ncmd say hi\n")
	require.NoError(t, h.cbuf.Execute())
	assert.Equal(t, []string{"cgtest one two"}, h.cg.commands)

	h.frame(t, 50)
	h.frame(t, 50)
	assert.Equal(t, []string{"give all", "say hi"}, h.g.commands)

	h.cl.Disconnect()
	ok, err := h.cl.ForwardCommand(h.cbuf, cmd.Parse("give all"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, h.cmds.Exists("cgtest"))
}

func TestUserCmdRing(t *testing.T) {
	h := newHarness(t)
	c := h.cl
	for i := 1; i <= 70; i++ {
		c.serverTime = i * 10
		c.createCmd(10)
	}
	assert.Equal(t, 70, c.GetCurrentCmdNumber())
	_, ok := c.GetUserCmd(6)
	assert.False(t, ok)
	uc, ok := c.GetUserCmd(7)
	require.True(t, ok)
	assert.Equal(t, 70, uc.ServerTime)
	uc, ok = c.GetUserCmd(70)
	require.True(t, ok)
	assert.Equal(t, 700, uc.ServerTime)

	err := cgame.Call(func() { c.GetUserCmd(71) })
	assert.Equal(t, errs.Drop, errs.CodeOf(err))
}

func TestSnapshotRing(t *testing.T) {
	h := newHarness(t)
	c := h.cl
	for i := 1; i <= 40; i++ {
		c.storeSnapshot(&protocol.Snapshot{Valid: true, MessageNum: i, ServerTime: i * 50})
	}
	n, tm := c.GetCurrentSnapshotNumber()
	assert.Equal(t, 40, n)
	assert.Equal(t, 2000, tm)
	assert.Equal(t, 40, c.messageAcknowledge)

	_, ok := c.GetSnapshot(8)
	assert.False(t, ok)
	s, ok := c.GetSnapshot(9)
	require.True(t, ok)
	assert.Equal(t, 450, s.ServerTime)

	err := cgame.Call(func() { c.GetSnapshot(41) })
	assert.Equal(t, errs.Drop, errs.CodeOf(err))
}

func TestReliableOverflow(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < protocol.MaxReliableCommands; i++ {
		h.cl.SendClientCommand("say x")
	}
	err := cgame.Call(func() { h.cl.SendClientCommand("say one too many") })
	assert.Equal(t, errs.Drop, errs.CodeOf(err))
}

func TestMissingCGame(t *testing.T) {
	h := newHarness(t)
	h.cl.CGameModule = "cl_cgame_missing"
	require.NoError(t, h.srv.SpawnServer("room"))
	assert.Equal(t, Disconnected, h.cl.State())
	err := h.cl.Frame(50)
	require.Error(t, err)
	assert.Equal(t, errs.Fatal, errs.CodeOf(err))
	assert.True(t, errs.Is(err, errs.NotFound))
	assert.NoError(t, h.cl.Frame(50))
}

func TestRegisterModel(t *testing.T) {
	r := &NullRenderer{}
	assert.Equal(t, 0, r.RegisterModel(""))
	assert.Equal(t, 1, r.RegisterModel("models/a.md3"))
	assert.Equal(t, 2, r.RegisterModel("models/b.md3"))
	assert.Equal(t, 1, r.RegisterModel("models/a.md3"))

	h := newHarness(t)
	h.cl.Renderer = r
	assert.Equal(t, 3, h.cl.registerModel("models/c.md3"))
	assert.Zero(t, h.cl.tikiHandle(3))
}
