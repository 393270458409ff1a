// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"github.com/sasha-s/go-deadlock"

	"gofakk/math/vec"
)

type EventKind int

const (
	EventStart EventKind = iota
	EventStop
	EventStopAll
	EventRespatialize
)

const (
	MaxQueuedEvents = 256
	MaxLoopSounds   = 64
)

type Event struct {
	Kind EventKind
	// Fixed sounds play at Origin, others follow entity EntNum.
	Fixed   bool
	Origin  vec.Vec3
	EntNum  int
	Channel int
	Sfx     Handle
	Volume  float32
	MinDist float32
	// Axis is the listener orientation of a respatialize event.
	Axis vec.Axis
}

type LoopSound struct {
	Origin   vec.Vec3
	Velocity vec.Vec3
	Sfx      Handle
	Volume   float32
	MinDist  float32
}

// Queue carries sound events from the engine goroutine to the audio
// goroutine.
type Queue struct {
	mu      deadlock.Mutex
	events  []Event
	loops   []LoopSound
	dropped int
}

func (q *Queue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= MaxQueuedEvents {
		q.dropped++
		return
	}
	q.events = append(q.events, ev)
}

// Start plays sfx. A nil origin attaches the sound to entnum.
func (q *Queue) Start(origin *vec.Vec3, entnum, channel int, sfx Handle, volume, minDist float32) {
	if sfx <= 0 {
		return
	}
	ev := Event{
		Kind:    EventStart,
		EntNum:  entnum,
		Channel: channel,
		Sfx:     sfx,
		Volume:  volume,
		MinDist: minDist,
	}
	if origin != nil {
		ev.Fixed = true
		ev.Origin = *origin
	}
	q.push(ev)
}

func (q *Queue) Stop(entnum, channel int) {
	q.push(Event{Kind: EventStop, EntNum: entnum, Channel: channel})
}

// StopAll also drops queued events and loop sounds.
func (q *Queue) StopAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events[:0], Event{Kind: EventStopAll})
	q.loops = q.loops[:0]
}

// Respatialize moves the listener.
func (q *Queue) Respatialize(entnum int, origin vec.Vec3, axis vec.Axis) {
	q.push(Event{Kind: EventRespatialize, EntNum: entnum, Origin: origin, Axis: axis})
}

func (q *Queue) ClearLoopingSounds() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loops = q.loops[:0]
}

func (q *Queue) AddLoopingSound(origin, velocity vec.Vec3, sfx Handle, volume, minDist float32) {
	if sfx <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.loops) >= MaxLoopSounds {
		return
	}
	q.loops = append(q.loops, LoopSound{
		Origin:   origin,
		Velocity: velocity,
		Sfx:      sfx,
		Volume:   volume,
		MinDist:  minDist,
	})
}

// Drain hands the queued events and a copy of the loop sounds to the audio
// goroutine.
func (q *Queue) Drain() ([]Event, []LoopSound) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev := q.events
	q.events = nil
	loops := append([]LoopSound(nil), q.loops...)
	return ev, loops
}

// Dropped counts the events lost to a full queue.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
