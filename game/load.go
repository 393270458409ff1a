// SPDX-License-Identifier: GPL-2.0-or-later

package game

import (
	"path/filepath"
	"plugin"
	"sync"

	"gofakk/conlog"
	"gofakk/errs"
)

// GetAPI is the entry point of a game module.
type GetAPI func(imp *Import) *Export

const EntryPoint = "GetGameAPI"

var (
	mu      sync.Mutex
	modules = map[string]GetAPI{}
)

// Register makes a module loadable without a plugin file. It is meant to be
// called from init functions.
func Register(name string, fn GetAPI) {
	mu.Lock()
	defer mu.Unlock()
	modules[name] = fn
}

func registered(name string) (GetAPI, bool) {
	mu.Lock()
	defer mu.Unlock()
	fn, ok := modules[name]
	return fn, ok
}

// OpenPlugin resolves symbol from <dir>/<name>.so.
func OpenPlugin(dir, name, symbol string) (plugin.Symbol, error) {
	path := filepath.Join(dir, name+".so")
	p, err := plugin.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.NotFound, "Sys_LoadDll("+path+")")
	}
	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, errs.Wrap(err, errs.NotFound, "Sys_LoadDll("+path+")")
	}
	return sym, nil
}

// Load finds the module name and exchanges the tables with it. Every
// failure is fatal.
func Load(dir, name string, imp *Import) (*Export, error) {
	imp.APIVersion = APIVersion
	fn, ok := registered(name)
	if !ok {
		sym, err := OpenPlugin(dir, name, EntryPoint)
		if err != nil {
			return nil, errs.Com(errs.Fatal, err)
		}
		switch f := sym.(type) {
		case func(*Import) *Export:
			fn = f
		case *GetAPI:
			fn = *f
		default:
			return nil, errs.Com(errs.Fatal, errs.New(errs.BadFormat, "%s: %s has type %T", name, EntryPoint, sym))
		}
	}
	var ex *Export
	if err := Call(func() { ex = fn(imp) }); err != nil {
		return nil, errs.Com(errs.Fatal, err)
	}
	if ex == nil {
		return nil, errs.Com(errs.Fatal, errs.New(errs.BadFormat, "%s: %s returned nothing", name, EntryPoint))
	}
	if ex.APIVersion != APIVersion {
		return nil, errs.Com(errs.Fatal, errs.New(errs.VersionMismatch,
			"game is version %d, not %d", ex.APIVersion, APIVersion))
	}
	conlog.DPrintf("Loaded game module %s\n", name)
	return ex, nil
}

// Call runs fn and turns a panic inside the module into an error. An engine
// error keeps its code, anything else drops the level.
func Call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Recover(r)
		}
	}()
	fn()
	return nil
}
