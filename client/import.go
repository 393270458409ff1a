// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"strings"

	"gofakk/bsp"
	"gofakk/cgame"
	"gofakk/conlog"
	"gofakk/cvar"
	"gofakk/errs"
	"gofakk/game"
	"gofakk/math/vec"
	"gofakk/protocol"
	"gofakk/qtime"
	"gofakk/snd"
	"gofakk/tiki"
	"gofakk/zone"
)

func (c *Client) cgameImport() *cgame.Import {
	fs := c.FS
	w := c.World
	r := c.Renderer
	so := c.Sound
	return &cgame.Import{
		APIVersion: cgame.APIVersion,

		Printf:  conlog.Printf,
		DPrintf: conlog.DPrintf,
		DebugPrintf: func(format string, v ...interface{}) {
			conlog.SafePrintf(format, v...)
		},
		Malloc: func(size int) *zone.Block { return c.Zone.Alloc(size, zone.TagCGame) },
		Free: func(b *zone.Block) {
			if err := c.Zone.Free(b); err != nil {
				panic(errs.Com(errs.Fatal, err))
			}
		},
		Error: func(code errs.Code, format string, v ...interface{}) {
			errs.Raise(code, errs.Unknown, format, v...)
		},
		Milliseconds: qtime.Milliseconds,

		Cvar: func(name, value string, flags cvar.Flag) *cvar.Cvar { return c.Cvars.Get(name, value, flags) },
		CvarSet: func(name, value string) {
			if err := c.Cvars.Set(name, value); err != nil {
				conlog.Printf("%v\n", err)
			}
		},

		Argc:       func() int { return c.args.Argc() },
		Argv:       func(n int) string { return c.args.Argv(n).String() },
		Args:       func() string { return c.args.ArgumentString() },
		AddCommand: c.addCGameCommand,

		FSReadFile:  fs.ReadFile,
		FSFreeFile:  fs.FreeFile,
		FSWriteFile: fs.WriteFile,

		SendConsoleCommand: func(text string) {
			if c.Cbuf != nil {
				c.Cbuf.AddText(text)
			}
		},
		SendClientCommand: c.SendClientCommand,

		CMLoadMap:                  func(name string) error { return w.LoadMap(fs, name) },
		CMInlineModel:              w.InlineModel,
		CMNumInlineModels:          w.NumInlineModels,
		CMPointContents:            w.PointContents,
		CMTransformedPointContents: w.TransformedPointContents,
		CMBoxTrace:                 w.BoxTrace,
		CMTransformedBoxTrace:      w.TransformedBoxTrace,
		CMTempBoxModel:             w.TempBoxModel,
		CMMarkFragments:            w.MarkFragments,

		SStartSound: so.Start,
		SStartLocalSound: func(name string) {
			// a negative channel plays without spatialization
			so.Start(nil, protocol.EntityNumNone, -1, c.Sounds.Register(name), 1, 0)
		},
		SStopSound:          so.Stop,
		SClearLoopingSounds: so.ClearLoopingSounds,
		SAddLoopingSound:    so.AddLoopingSound,
		SRespatialize:       so.Respatialize,
		SRegisterSound:      func(name string) snd.Handle { return c.Sounds.Register(name) },

		MusicNewSoundtrack: c.Music.NewSoundtrack,
		MusicUpdateMood:    c.Music.UpdateMood,
		MusicUpdateVolume:  c.Music.UpdateVolume,

		LipLength:     c.Sounds.Length,
		LipAmplitudes: c.Sounds.Amplitudes,

		RClearScene:          r.ClearScene,
		RRenderScene:         r.RenderScene,
		RLoadWorldMap:        r.LoadWorldMap,
		RRegisterModel:       c.registerModel,
		RRegisterSkin:        r.RegisterSkin,
		RRegisterShader:      func(name string) int { return r.RegisterShader(name, true) },
		RRegisterShaderNoMip: func(name string) int { return r.RegisterShader(name, false) },
		RAddRefEntityToScene: r.AddRefEntityToScene,
		RAddLightToScene:     r.AddLightToScene,
		RAddPolyToScene:      r.AddPolyToScene,
		RSetColor:            r.SetColor,
		RDrawStretchPic:      r.DrawStretchPic,
		RModelBounds:         func(model bsp.ClipHandle) (vec.Vec3, vec.Vec3) { return w.ModelBounds(model) },
		RDebugLine:           r.DebugLine,
		RSwipeBegin:          r.SwipeBegin,
		RSwipePoint:          r.SwipePoint,
		RSwipeEnd:            r.SwipeEnd,

		GetGameState:             c.GetGameState,
		GetSnapshot:              c.GetSnapshot,
		GetCurrentSnapshotNumber: c.GetCurrentSnapshotNumber,
		GetRendererConfig:        r.Config,
		GetCurrentCmdNumber:      c.GetCurrentCmdNumber,
		GetUserCmd:               c.GetUserCmd,
		GetServerCommand:         c.GetServerCommand,

		TIKIGetHandle: c.tikiHandle,
		TIKI:          game.NewTIKI(c.TIKI, c.tikiHandle),
		Alias:         game.NewAlias(c.Aliases, c.tikiHandle),
	}
}

// registerModel registers name with the renderer and, for .tik files, with
// the TIKI cache under the renderer handle.
func (c *Client) registerModel(name string) int {
	h := c.Renderer.RegisterModel(name)
	if h != 0 && strings.HasSuffix(strings.ToLower(name), ".tik") {
		if th := c.TIKI.RegisterModel(name); th != 0 {
			c.modelTIKI[h] = th
		}
	}
	return h
}

func (c *Client) tikiHandle(model int) tiki.Handle {
	return c.modelTIKI[model]
}
