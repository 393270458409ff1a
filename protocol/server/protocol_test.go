// SPDX-License-Identifier: GPL-2.0-or-later

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
	"gofakk/math/vec"
	"gofakk/protocol"
)

func entity(num, model int, origin vec.Vec3) protocol.EntityState {
	return protocol.EntityState{Number: num, ModelIndex: model, Origin: origin}
}

func TestGameStateAndCommands(t *testing.T) {
	gs := &protocol.GameState{CommandSequence: 4, ClientNum: 0}
	gs.ConfigStrings[protocol.CSServerInfo] = `\mapname\dm1\sv_hostname\fakk`
	gs.ConfigStrings[protocol.CSModels+1] = "*1"
	msg := &Message{
		ReliableAcknowledge: 3,
		Commands:            []Command{{Sequence: 5, Text: "print hello"}},
		GameState:           gs,
	}
	b, err := ToBytes(msg, nil)
	require.NoError(t, err)

	got, err := FromBytes(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReliableAcknowledge)
	assert.Equal(t, msg.Commands, got.Commands)
	require.NotNil(t, got.GameState)
	assert.Equal(t, *gs, *got.GameState)
	assert.Nil(t, got.Snapshot)
}

func TestSnapshotDelta(t *testing.T) {
	base := &protocol.Snapshot{
		Valid:      true,
		MessageNum: 10,
		ServerTime: 500,
		Entities: []protocol.EntityState{
			entity(1, 2, vec.Vec3{0, 0, 0}),
			entity(5, 3, vec.Vec3{8, 8, 8}),
			entity(9, 4, vec.Vec3{-16, 32, 64}),
		},
	}
	base.PS.CommandTime = 450
	base.PS.Origin = vec.Vec3{1, 2, 3}

	cur := &protocol.Snapshot{
		Valid:      true,
		MessageNum: 12,
		ServerTime: 600,
		SnapFlags:  protocol.SnapNotActive,
		Entities: []protocol.EntityState{
			entity(1, 2, vec.Vec3{4.5, 0, 0}),
			entity(9, 4, vec.Vec3{-16, 32, 64}),
			entity(12, 6, vec.Vec3{100, 0, -100}),
		},
		Sounds: []protocol.SoundEvent{
			{Origin: vec.Vec3{1, 2, 3}, EntityNum: 7, Channel: 2, Name: "sound/door.wav", Volume: 0.5, MinDist: 64},
		},
		ServerCommandSequence: 8,
	}
	cur.AreaMask[0] = 0x3
	cur.PS = base.PS
	cur.PS.CommandTime = 550
	cur.PS.Stats[3] = 7

	b, err := ToBytes(&Message{Snapshot: cur}, base)
	require.NoError(t, err)
	full, err := ToBytes(&Message{Snapshot: cur}, nil)
	require.NoError(t, err)
	assert.Less(t, len(b), len(full))

	lookup := func(n int) *protocol.Snapshot {
		if n == base.MessageNum {
			return base
		}
		return nil
	}
	for name, data := range map[string][]byte{"delta": b, "full": full} {
		t.Run(name, func(t *testing.T) {
			got, err := FromBytes(data, lookup)
			require.NoError(t, err)
			s := got.Snapshot
			require.NotNil(t, s)
			assert.True(t, s.Valid)
			assert.Equal(t, 600, s.ServerTime)
			assert.Equal(t, 12, s.MessageNum)
			assert.Equal(t, protocol.SnapNotActive, s.SnapFlags)
			assert.Equal(t, cur.AreaMask, s.AreaMask)
			assert.Equal(t, cur.PS, s.PS)
			assert.Equal(t, cur.Entities, s.Entities)
			assert.Equal(t, cur.Sounds, s.Sounds)
			assert.Equal(t, 8, s.ServerCommandSequence)
		})
	}
}

func TestSnapshotMissingBase(t *testing.T) {
	base := &protocol.Snapshot{Valid: true, MessageNum: 1}
	cur := &protocol.Snapshot{Valid: true, MessageNum: 2, Entities: []protocol.EntityState{entity(3, 1, vec.Vec3{})}}
	b, err := ToBytes(&Message{Snapshot: cur}, base)
	require.NoError(t, err)
	got, err := FromBytes(b, func(int) *protocol.Snapshot { return nil })
	require.NoError(t, err)
	assert.False(t, got.Snapshot.Valid)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", []byte{1, 0}},
		{"no eof", []byte{0, 0, 0, 0, Nop}},
		{"illegible", []byte{0, 0, 0, 0, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.data, nil)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.BadFormat))
		})
	}
}
