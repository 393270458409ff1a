// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvar holds console variables.
package cvar

import (
	"sort"
	"strconv"
	"strings"

	"gofakk/conlog"
	"gofakk/errs"
)

type Flag uint32

const (
	// cvar flags bitfield
	NONE        Flag = 0
	ARCHIVE     Flag = 1 << 0
	USERINFO    Flag = 1 << 1
	SERVERINFO  Flag = 1 << 2
	SYSTEMINFO  Flag = 1 << 3
	INIT        Flag = 1 << 4 // only set from the command line
	LATCH       Flag = 1 << 5 // applied on the next level load
	ROM         Flag = 1 << 6
	USERCREATED Flag = 1 << 7
	TEMP        Flag = 1 << 8 // never archived
	CHEAT       Flag = 1 << 9
)

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	name  string
	flags Flag
	// stringValue is the truth, value the derived one
	stringValue  string
	value        float32
	integer      int
	defaultValue string
	latched      string
	hasLatched   bool
	modified     int
	callback     CallbackFunc
	id           int
}

func (cv *Cvar) Name() string           { return cv.name }
func (cv *Cvar) ID() int                { return cv.id }
func (cv *Cvar) Flags() Flag            { return cv.flags }
func (cv *Cvar) String() string         { return cv.stringValue }
func (cv *Cvar) Value() float32         { return cv.value }
func (cv *Cvar) Integer() int           { return cv.integer }
func (cv *Cvar) Bool() bool             { return cv.integer != 0 || cv.value != 0 }
func (cv *Cvar) Default() string        { return cv.defaultValue }
func (cv *Cvar) Archive() bool          { return cv.flags&ARCHIVE != 0 && cv.flags&TEMP == 0 }
func (cv *Cvar) ModificationCount() int { return cv.modified }

// Latched returns the value waiting for the next level load.
func (cv *Cvar) Latched() (string, bool) {
	return cv.latched, cv.hasLatched
}

func (cv *Cvar) SetCallback(cb CallbackFunc) {
	cv.callback = cb
}

func (cv *Cvar) set(s string) {
	cv.stringValue = s
	pf, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		pf = 0
	}
	cv.value = float32(pf)
	cv.integer = int(pf)
	cv.modified++
	if cv.callback != nil {
		cv.callback(cv)
	}
}

type Registry struct {
	cvars  []*Cvar
	byName map[string]*Cvar
	// cheats gates CHEAT writes from the console
	cheats func() bool
	// locked once the command line has been applied
	initLocked bool
	// modified accumulates the flags of changed cvars
	modified Flag
}

func New() *Registry {
	return &Registry{byName: make(map[string]*Cvar)}
}

func key(name string) string {
	return strings.ToLower(name)
}

// SetCheatsAllowed installs the check that gates CHEAT cvars.
func (r *Registry) SetCheatsAllowed(f func() bool) {
	r.cheats = f
}

// LockInit makes INIT cvars read only.
func (r *Registry) LockInit() {
	r.initLocked = true
}

func (r *Registry) All() []*Cvar {
	return r.cvars
}

// Find looks a cvar up case insensitively.
func (r *Registry) Find(name string) (*Cvar, bool) {
	cv, ok := r.byName[key(name)]
	return cv, ok
}

// Get returns the cvar, creating it with value and flags if it does not
// exist. Existing cvars get the flags merged in.
func (r *Registry) Get(name, value string, flags Flag) *Cvar {
	if cv, ok := r.Find(name); ok {
		if cv.flags&USERCREATED != 0 {
			cv.flags &^= USERCREATED
			cv.defaultValue = value
		}
		cv.flags |= flags
		r.modified |= flags
		if flags&ROM != 0 {
			cv.set(value)
		}
		return cv
	}
	cv := &Cvar{name: name, flags: flags, defaultValue: value, id: len(r.cvars)}
	cv.set(value)
	cv.modified = 1
	r.cvars = append(r.cvars, cv)
	r.byName[key(name)] = cv
	r.modified |= flags
	return cv
}

// Set changes a cvar as if typed on the console.
func (r *Registry) Set(name, value string) error {
	return r.set(name, value, false)
}

// ForceSet bypasses ROM, INIT, LATCH and CHEAT protection.
func (r *Registry) ForceSet(name, value string) {
	r.set(name, value, true)
}

func (r *Registry) SetValue(name string, v float32) error {
	return r.Set(name, formatValue(v))
}

func formatValue(v float32) string {
	if float32(int(v)) == v {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func (r *Registry) set(name, value string, force bool) error {
	cv, ok := r.Find(name)
	if !ok {
		r.Get(name, value, USERCREATED)
		return nil
	}
	if !force {
		switch {
		case cv.flags&ROM != 0:
			return errs.New(errs.Configuration, "%s is read only.", name)
		case cv.flags&INIT != 0 && r.initLocked:
			return errs.New(errs.Configuration, "%s is write protected.", name)
		case cv.flags&CHEAT != 0 && (r.cheats == nil || !r.cheats()):
			return errs.New(errs.Configuration, "%s is cheat protected.", name)
		case cv.flags&LATCH != 0:
			if value == cv.stringValue {
				cv.latched, cv.hasLatched = "", false
				return nil
			}
			if !cv.hasLatched || cv.latched != value {
				cv.latched, cv.hasLatched = value, true
				conlog.Printf("%s will be changed upon restarting.\n", name)
			}
			return nil
		}
	} else if cv.hasLatched {
		cv.latched, cv.hasLatched = "", false
	}
	if value == cv.stringValue {
		return nil
	}
	r.modified |= cv.flags
	cv.set(value)
	return nil
}

// ApplyLatched moves every latched value into place.
func (r *Registry) ApplyLatched() {
	for _, cv := range r.cvars {
		if cv.hasLatched {
			v := cv.latched
			cv.latched, cv.hasLatched = "", false
			r.modified |= cv.flags
			cv.set(v)
		}
	}
}

// Reset restores the default value.
func (r *Registry) Reset(name string) error {
	cv, ok := r.Find(name)
	if !ok {
		return errs.New(errs.NotFound, "Cvar_Reset: variable %s not found", name)
	}
	return r.Set(cv.name, cv.defaultValue)
}

func (r *Registry) VariableValue(name string) float32 {
	if cv, ok := r.Find(name); ok {
		return cv.value
	}
	return 0
}

func (r *Registry) VariableInteger(name string) int {
	if cv, ok := r.Find(name); ok {
		return cv.integer
	}
	return 0
}

func (r *Registry) VariableString(name string) string {
	if cv, ok := r.Find(name); ok {
		return cv.stringValue
	}
	return ""
}

// Modified reports and clears the accumulated flags of changed cvars.
func (r *Registry) Modified(f Flag) bool {
	m := r.modified&f != 0
	r.modified &^= f
	return m
}

// InfoString builds a "\key\value" string of all cvars with flag set.
func (r *Registry) InfoString(flag Flag) string {
	var b strings.Builder
	for _, cv := range r.sorted() {
		if cv.flags&flag != 0 {
			b.WriteString("\\")
			b.WriteString(cv.name)
			b.WriteString("\\")
			b.WriteString(cv.stringValue)
		}
	}
	return b.String()
}

// ArchiveLines returns "seta name value" lines for every archived cvar.
func (r *Registry) ArchiveLines() []string {
	var l []string
	for _, cv := range r.sorted() {
		if !cv.Archive() {
			continue
		}
		v := cv.stringValue
		if cv.hasLatched {
			v = cv.latched
		}
		l = append(l, "seta "+cv.name+" \""+v+"\"")
	}
	return l
}

func (r *Registry) sorted() []*Cvar {
	s := make([]*Cvar, len(r.cvars))
	copy(s, r.cvars)
	sort.Slice(s, func(i, j int) bool { return key(s[i].name) < key(s[j].name) })
	return s
}
