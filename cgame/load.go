// SPDX-License-Identifier: GPL-2.0-or-later

package cgame

import (
	"sync"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/game"
)

type GetAPI func() *Export

const EntryPoint = "GetCGameAPI"

var (
	mu      sync.Mutex
	modules = map[string]GetAPI{}
)

func Register(name string, fn GetAPI) {
	mu.Lock()
	defer mu.Unlock()
	modules[name] = fn
}

// Load finds the client game module name, the caller runs Init.
func Load(dir, name string) (*Export, error) {
	mu.Lock()
	fn, ok := modules[name]
	mu.Unlock()
	if !ok {
		sym, err := game.OpenPlugin(dir, name, EntryPoint)
		if err != nil {
			return nil, errs.Com(errs.Fatal, err)
		}
		switch f := sym.(type) {
		case func() *Export:
			fn = f
		case *GetAPI:
			fn = *f
		default:
			return nil, errs.Com(errs.Fatal, errs.New(errs.BadFormat, "%s: %s has type %T", name, EntryPoint, sym))
		}
	}
	var ex *Export
	if err := game.Call(func() { ex = fn() }); err != nil {
		return nil, errs.Com(errs.Fatal, err)
	}
	if ex == nil {
		return nil, errs.Com(errs.Fatal, errs.New(errs.BadFormat, "%s: %s returned nothing", name, EntryPoint))
	}
	if ex.APIVersion != APIVersion {
		return nil, errs.Com(errs.Fatal, errs.New(errs.VersionMismatch,
			"cgame is version %d, not %d", ex.APIVersion, APIVersion))
	}
	conlog.DPrintf("Loaded cgame module %s\n", name)
	return ex, nil
}

// Call runs a module callback behind the same boundary as the game module.
func Call(fn func()) error {
	return game.Call(fn)
}
