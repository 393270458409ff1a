// SPDX-License-Identifier: GPL-2.0-or-later

// Package alias maps alias names to one or more resource names and picks
// among them at random. Aliases live either in the global scope or in the
// scope of a registered model.
package alias

import (
	"fmt"
	"io"
	"strings"

	"gofakk/conlog"
	"gofakk/rand"
)

const (
	MaxCandidates = 8
	MaxAliasName  = 64
	MaxEntries    = 4096
)

// Scope selects the global table or the table of one model handle.
type Scope int

const Global Scope = -1

func Model(handle int) Scope {
	return Scope(handle)
}

func (s Scope) String() string {
	if s == Global {
		return "global"
	}
	return fmt.Sprintf("model %d", int(s))
}

// ActorDialog records how often a specific actor played a dialog line.
type ActorDialog struct {
	Actor          int
	TimesPlayed    int
	PlayedThisLoop bool
	LastTimePlayed int
}

type Entry struct {
	Alias      string
	Candidates []string
	Parameters string

	TimesPlayed    int
	PlayedThisLoop bool
	LastTimePlayed int
	Actors         []ActorDialog
}

// DialogHistory may veto or pick candidates for dialog lookups. Returning
// ok == false falls back to a random pick.
type DialogHistory interface {
	Choose(e *Entry, random bool, entity int) (candidate string, ok bool)
}

type key struct {
	scope Scope
	name  string
}

type Registry struct {
	entries map[key]*Entry
	// order keeps insertion order for dumps and lists
	order   []key
	rng     rand.Generator
	history DialogHistory
}

// NewRegistry creates a registry whose random picks are seeded by seed.
func NewRegistry(seed uint32) *Registry {
	return &Registry{
		entries: make(map[key]*Entry),
		rng:     rand.New(seed),
	}
}

// Seed reseeds the random source.
func (r *Registry) Seed(seed uint32) {
	r.rng.NewSeed(seed)
}

func (r *Registry) SetDialogHistory(h DialogHistory) {
	r.history = h
}

func makeKey(s Scope, alias string) key {
	return key{s, strings.ToLower(alias)}
}

func (r *Registry) find(s Scope, alias string) *Entry {
	return r.entries[makeKey(s, alias)]
}

// Add appends candidate to alias. Adding to a full alias warns and fails.
func (r *Registry) Add(s Scope, alias, candidate, params string) bool {
	if alias == "" || candidate == "" {
		return false
	}
	if len(alias) >= MaxAliasName {
		alias = alias[:MaxAliasName-1]
	}
	if e := r.find(s, alias); e != nil {
		if len(e.Candidates) >= MaxCandidates {
			conlog.Warnf("Alias_Add: %s in %v has %d candidates, dropping %s\n", alias, s, MaxCandidates, candidate)
			return false
		}
		e.Candidates = append(e.Candidates, candidate)
		if params != "" {
			e.Parameters = params
		}
		return true
	}
	if len(r.order) >= MaxEntries {
		conlog.Warnf("Alias_Add: table full\n")
		return false
	}
	k := makeKey(s, alias)
	r.entries[k] = &Entry{
		Alias:      alias,
		Candidates: []string{candidate},
		Parameters: params,
	}
	r.order = append(r.order, k)
	return true
}

func (r *Registry) pick(e *Entry) string {
	if len(e.Candidates) == 1 {
		return e.Candidates[0]
	}
	return e.Candidates[r.rng.Intn(len(e.Candidates))]
}

// FindRandom returns one candidate of alias. Model scopes fall back to the
// global scope.
func (r *Registry) FindRandom(s Scope, alias string) (string, bool) {
	e := r.lookup(s, alias)
	if e == nil {
		return "", false
	}
	return r.pick(e), true
}

func (r *Registry) lookup(s Scope, alias string) *Entry {
	if e := r.find(s, alias); e != nil {
		return e
	}
	if s != Global {
		return r.find(Global, alias)
	}
	return nil
}

// FindDialog is FindRandom with the dialog history hook consulted first.
func (r *Registry) FindDialog(s Scope, alias string, random bool, entity int) (string, bool) {
	e := r.lookup(s, alias)
	if e == nil {
		return "", false
	}
	if r.history != nil {
		if c, ok := r.history.Choose(e, random, entity); ok {
			return c, true
		}
	}
	return r.pick(e), true
}

// Params returns the parameter string of alias.
func (r *Registry) Params(s Scope, alias string) (string, bool) {
	e := r.lookup(s, alias)
	if e == nil {
		return "", false
	}
	return e.Parameters, true
}

// UpdateDialog stores play history for alias.
func (r *Registry) UpdateDialog(s Scope, alias string, timesPlayed int, playedThisLoop bool, lastTimePlayed int) {
	e := r.find(s, alias)
	if e == nil {
		return
	}
	e.TimesPlayed = timesPlayed
	e.PlayedThisLoop = playedThisLoop
	e.LastTimePlayed = lastTimePlayed
}

// AddActorDialog stores play history of alias for one actor.
func (r *Registry) AddActorDialog(s Scope, alias string, actor, timesPlayed int, playedThisLoop bool, lastTimePlayed int) {
	e := r.find(s, alias)
	if e == nil {
		return
	}
	d := ActorDialog{actor, timesPlayed, playedThisLoop, lastTimePlayed}
	for i := range e.Actors {
		if e.Actors[i].Actor == actor {
			e.Actors[i] = d
			return
		}
	}
	e.Actors = append(e.Actors, d)
}

// List returns the entries of a scope in insertion order.
func (r *Registry) List(s Scope) []*Entry {
	var l []*Entry
	for _, k := range r.order {
		if k.scope == s {
			l = append(l, r.entries[k])
		}
	}
	return l
}

// NameForNum returns the alias at position n of the scope.
func (r *Registry) NameForNum(s Scope, n int) (string, bool) {
	l := r.List(s)
	if n < 0 || n >= len(l) {
		return "", false
	}
	return l[n].Alias, true
}

func (r *Registry) Clear(s Scope) {
	order := r.order[:0]
	for _, k := range r.order {
		if k.scope == s {
			delete(r.entries, k)
			continue
		}
		order = append(order, k)
	}
	r.order = order
}

// ClearModels drops every model scope, keeping the global one.
func (r *Registry) ClearModels() {
	order := r.order[:0]
	for _, k := range r.order {
		if k.scope != Global {
			delete(r.entries, k)
			continue
		}
		order = append(order, k)
	}
	r.order = order
}

func (r *Registry) Dump(s Scope, w io.Writer) {
	fmt.Fprintf(w, "--- Alias dump (%v) ---\n", s)
	for _, e := range r.List(s) {
		fmt.Fprintf(w, "  %s -> %s (%d candidates)\n", e.Alias, strings.Join(e.Candidates, " "), len(e.Candidates))
	}
}
