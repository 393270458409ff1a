// SPDX-License-Identifier: GPL-2.0-or-later

// Package engine ties the subsystems together and runs the frame loop.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"gofakk/alias"
	"gofakk/bsp"
	"gofakk/cbuf"
	"gofakk/client"
	"gofakk/cmd"
	"gofakk/conlog"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/filesystem"
	"gofakk/gametime"
	"gofakk/math"
	"gofakk/metrics"
	"gofakk/net"
	"gofakk/rand"
	"gofakk/server"
	"gofakk/snd"
	"gofakk/tiki"
	"gofakk/zone"
)

// ErrQuit is returned by Frame once the quit command ran.
var ErrQuit = errors.New("quit")

const configFile = "config.cfg"

// Collaborators are the client side outputs. Nil members get the null
// implementations.
type Collaborators struct {
	Renderer client.Renderer
	Sound    client.SoundOutput
	Music    client.Music
	Input    client.Input
}

type Engine struct {
	cfg Config

	Zone     *zone.Zone
	Hunk     *zone.Hunk
	Cvars    *cvar.Registry
	Commands *cmd.Commands
	Cbuf     *cbuf.CommandBuffer
	FS       *filesystem.FS
	Aliases  *alias.Registry
	TIKI     *tiki.Cache
	World    *bsp.World
	Sounds   *snd.Registry
	Loopback *net.Loopback
	Server   *server.Server
	Client   *client.Client
	Metrics  *metrics.Metrics
	Rand     *rand.Generator

	developer *cvar.Cvar
	frames    int
	quit      bool
	down      bool
}

// New runs the engine initialization. The returned error is fatal.
func New(cfg Config, co Collaborators) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, errs.Com(errs.Fatal, err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	r := rand.New(seed)
	e := &Engine{
		cfg:     cfg,
		Metrics: metrics.New(),
		Rand:    &r,
	}

	// memory
	e.Zone = zone.New(0)
	e.Hunk = zone.NewHunk(cfg.HunkMegs << 20)

	// command plumbing and the engine cvars
	e.Cbuf = &cbuf.CommandBuffer{}
	e.Commands = cmd.New()
	e.Cvars = cvar.New()
	e.Cvars.Register(e.Commands)
	e.Cvars.SetCheatsAllowed(func() bool { return e.Cvars.VariableInteger("sv_cheats") != 0 })
	e.Cbuf.SetCommandExecutors([]cbuf.Efunc{e.executeCommand, e.executeCvar})
	e.registerCvars()
	e.registerCommands()
	if err := e.seedCvars(); err != nil {
		return nil, err
	}

	e.FS = filesystem.New(e.Zone)
	if err := e.FS.Init(e.cfg.BaseDir, e.cfg.Game); err != nil {
		return nil, errs.Com(errs.Fatal, err)
	}

	for _, f := range []string{"default.cfg", configFile, "autoexec.cfg"} {
		e.Cbuf.AddText("exec " + f + "\n")
	}
	if err := e.Cbuf.Execute(); err != nil {
		return nil, errs.Com(errs.Fatal, err)
	}
	e.Cvars.LockInit()

	e.World = bsp.NewWorld()
	e.Aliases = alias.NewRegistry(e.Rand.Uint32())
	e.Sounds = snd.NewRegistry(e.FS)
	e.TIKI = tiki.NewCache(e.FS, e.Zone, e.Aliases, e.Rand)
	e.Loopback = net.NewLoopback(net.DefaultLoopbackSlots, e.Metrics)

	e.Client = client.New(client.Deps{
		Zone:        e.Zone,
		Cvars:       e.Cvars,
		Commands:    e.Commands,
		Cbuf:        e.Cbuf,
		FS:          e.FS,
		World:       e.World,
		TIKI:        e.TIKI,
		Aliases:     e.Aliases,
		Sounds:      e.Sounds,
		Loopback:    e.Loopback,
		Renderer:    co.Renderer,
		Sound:       co.Sound,
		Music:       co.Music,
		Input:       co.Input,
		CGameDir:    cfg.ModuleDir,
		CGameModule: cfg.CGameModule,
	})
	e.Server = server.New(server.Deps{
		Zone:       e.Zone,
		Hunk:       e.Hunk,
		Cvars:      e.Cvars,
		Commands:   e.Commands,
		Cbuf:       e.Cbuf,
		FS:         e.FS,
		World:      e.World,
		TIKI:       e.TIKI,
		Aliases:    e.Aliases,
		Sounds:     e.Sounds,
		Loopback:   e.Loopback,
		Metrics:    e.Metrics,
		Rand:       e.Rand,
		Hook:       e.Client,
		GameDir:    cfg.ModuleDir,
		GameModule: cfg.GameModule,
	})
	e.Client.Server = e.Server
	e.Cbuf.SetCommandExecutors([]cbuf.Efunc{
		e.executeCommand,
		e.executeCvar,
		e.executeGame,
		e.Client.ForwardCommand,
	})

	for _, l := range cfg.Commands {
		e.Cbuf.AddText(l + "\n")
	}
	if cfg.Map != "" {
		e.Cbuf.AddText("map " + cfg.Map + "\n")
	}
	conlog.Logger().Info().
		Str("basedir", e.cfg.BaseDir).
		Str("game", e.FS.Game()).
		Int("hunk_megs", cfg.HunkMegs).
		Msg("engine initialized")
	return e, nil
}

func (e *Engine) registerCvars() {
	e.developer = e.Cvars.Get("developer", "0", cvar.TEMP)
	e.developer.SetCallback(func(cv *cvar.Cvar) { conlog.SetDeveloper(cv.Bool()) })
	e.Cvars.Get("com_maxfps", "85", cvar.ARCHIVE)
	e.Cvars.Get("fixedtime", "0", cvar.CHEAT)
	e.Cvars.Get("timescale", "1", cvar.CHEAT|cvar.SYSTEMINFO)
	e.Cvars.Get("sv_cheats", "1", cvar.LATCH|cvar.SYSTEMINFO)
	e.Cvars.Get("com_hunkmegs", fmt.Sprint(e.cfg.HunkMegs), cvar.ROM)
	e.Cvars.Get("fs_basepath", e.cfg.BaseDir, cvar.INIT)
	e.Cvars.Get("fs_game", e.cfg.Game, cvar.INIT|cvar.SYSTEMINFO)
}

// seedCvars applies the startup config and the command line set lines.
func (e *Engine) seedCvars() error {
	if e.cfg.Developer {
		e.Cvars.ForceSet("developer", "1")
	}
	if e.cfg.FPS > 0 {
		e.Cvars.ForceSet("sv_fps", fmt.Sprint(e.cfg.FPS))
	}
	if e.cfg.MaxClients > 0 {
		e.Cvars.ForceSet("sv_maxclients", fmt.Sprint(e.cfg.MaxClients))
	}
	for name, value := range e.cfg.Cvars {
		e.Cvars.ForceSet(name, value)
	}
	for _, l := range e.cfg.SetLines {
		e.Cbuf.AddText(l + "\n")
	}
	if err := e.Cbuf.Execute(); err != nil {
		return errs.Com(errs.Fatal, err)
	}
	// command line values win over the defaults
	e.cfg.BaseDir = e.Cvars.VariableString("fs_basepath")
	e.cfg.Game = e.Cvars.VariableString("fs_game")
	return nil
}

func (e *Engine) executeCommand(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) {
	return e.Commands.Execute(a)
}

func (e *Engine) executeCvar(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) {
	return e.Cvars.Execute(a)
}

func (e *Engine) executeGame(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) {
	return e.Server.GameCommand(a)
}

// Gatherer returns the engine counters for an embedder to export.
func (e *Engine) Gatherer() prometheus.Gatherer {
	return e.Metrics.Gatherer()
}

func (e *Engine) FrameCount() int {
	return e.frames
}

// Frame runs one engine frame of wallMsec milliseconds. Drop and Disconnect
// errors are handled here, any other error is fatal and shuts the engine
// down before it is returned.
func (e *Engine) Frame(wallMsec int) error {
	if e.down {
		return ErrQuit
	}
	msec := math.Clamp(1, gametime.Scale(e.Cvars, wallMsec), server.MaxFrameMsec)
	err := e.frame(msec)
	e.frames++
	e.updateZoneGauge()
	if err != nil {
		if err := e.handleError(err); err != nil {
			return err
		}
	}
	if e.quit {
		e.Shutdown()
		return ErrQuit
	}
	return nil
}

func (e *Engine) frame(msec int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Recover(r)
		}
	}()
	if err := e.Cbuf.Execute(); err != nil {
		return err
	}
	if err := e.Server.Frame(msec); err != nil {
		return err
	}
	return e.Client.Frame(msec)
}

func (e *Engine) handleError(err error) error {
	switch errs.CodeOf(err) {
	case errs.Drop:
		conlog.Errorf(err, "%v\n", err)
		e.Server.Shutdown("Server crashed: " + err.Error())
		e.Client.Disconnect()
		e.Hunk.Clear()
		return nil
	case errs.Disconnect:
		conlog.Printf("%v\n", err)
		e.Client.Disconnect()
		return nil
	}
	conlog.Errorf(err, "FATAL: %v\n", err)
	e.Shutdown()
	return err
}

func (e *Engine) updateZoneGauge() {
	for _, t := range zone.Tags() {
		_, bytes := e.Zone.Outstanding(t)
		e.Metrics.ZoneBytes.WithLabelValues(t.String()).Set(float64(bytes))
	}
}

// Shutdown tears the subsystems down in reverse order. It is safe to call
// more than once.
func (e *Engine) Shutdown() {
	if e.down {
		return
	}
	e.down = true
	e.Client.Shutdown()
	e.Server.Shutdown("Server quit")
	e.TIKI.FlushAll()
	e.Sounds.Clear()
	e.Aliases.Clear(alias.Global)
	e.World.ClearMap()
	e.Loopback.Clear()
	if e.cfg.WriteConfig && e.Cvars.Modified(cvar.ARCHIVE) {
		if err := e.writeConfig(); err != nil {
			conlog.Errorf(err, "couldn't write %s\n", configFile)
		}
	}
	e.FS.Shutdown()
	e.Hunk.Clear()
	for _, t := range zone.Tags() {
		if blocks, bytes := e.Zone.Outstanding(t); blocks != 0 {
			conlog.Warnf("%v: %d blocks with %d bytes outstanding\n", t, blocks, bytes)
			e.Zone.FreeByTag(t)
		}
	}
	e.updateZoneGauge()
	conlog.Logger().Info().Int("frames", e.frames).Msg("engine shut down")
}

func (e *Engine) writeConfig() error {
	var b strings.Builder
	b.WriteString("// generated by gofakk, do not modify\n")
	for _, l := range e.Cvars.ArchiveLines() {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return e.FS.WriteFile(configFile, []byte(b.String()))
}
