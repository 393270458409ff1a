// SPDX-License-Identifier: GPL-2.0-or-later

// Package snd registers sounds and queues sound events for the audio
// collaborator.
package snd

import (
	"bytes"
	"strings"

	"github.com/gopxl/beep/v2/wav"

	"gofakk/conlog"
	"gofakk/filesystem"
)

const (
	MaxSounds = 1024
	// AmplitudeRate is the number of lip sync samples per second.
	AmplitudeRate = 20
)

// Handle identifies a registered sound. 0 is never valid.
type Handle int

type Loader interface {
	ReadFileBytes(name string) ([]byte, error)
}

type Registry struct {
	load  Loader
	cache cache
}

func NewRegistry(load Loader) *Registry {
	r := &Registry{load: load}
	r.Clear()
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// Register returns the handle of name, adding it when it is new. A full
// registry returns 0.
func (r *Registry) Register(name string) Handle {
	if name == "" {
		return 0
	}
	name = normalize(name)
	if h, ok := r.cache.Has(name); ok {
		return h
	}
	if len(r.cache) >= MaxSounds {
		conlog.Warnf("S_RegisterSound: %s, max sounds reached\n", name)
		return 0
	}
	return r.cache.Add(&sfx{name: name, length: lengthUnknown})
}

// Name of h or "" if h is invalid.
func (r *Registry) Name(h Handle) string {
	if s := r.cache.Get(h); s != nil {
		return s.name
	}
	return ""
}

func (r *Registry) NumSounds() int {
	return len(r.cache) - 1
}

// Clear forgets all sounds. Handles from before are invalid afterwards.
func (r *Registry) Clear() {
	r.cache = cache{nil}
}

// Length is the play time of the WAV file name in seconds, -1 if it can
// not be read.
func (r *Registry) Length(name string) float32 {
	name = normalize(name)
	h, registered := r.cache.Has(name)
	if registered {
		if l := r.cache.Get(h).length; l != lengthUnknown {
			return l
		}
	}
	l := r.decodeLength(name)
	if registered {
		r.cache.Get(h).length = l
	}
	return l
}

func (r *Registry) decodeLength(name string) float32 {
	data, err := r.load.ReadFileBytes(name)
	if err != nil {
		return -1
	}
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		conlog.Warnf("S_SoundLength: %s: %v\n", name, err)
		return -1
	}
	defer s.Close()
	return float32(format.SampleRate.D(s.Len()).Seconds())
}

// Amplitudes reads the lip sync file of name, one byte per 1/20s. The
// file has the name of the sound with an .amp extension.
func (r *Registry) Amplitudes(name string) []byte {
	data, err := r.load.ReadFileBytes(filesystem.StripExt(normalize(name)) + ".amp")
	if err != nil {
		return nil
	}
	return data
}
