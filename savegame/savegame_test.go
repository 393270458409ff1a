// SPDX-License-Identifier: GPL-2.0-or-later

package savegame

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"gofakk/errs"
)

func TestRoundTrip(t *testing.T) {
	h := &Header{
		ID:         uuid.New(),
		MapName:    "m1l1",
		ServerTime: 12345,
		Comment:    "beginning",
		ConfigStrings: []ConfigString{
			{Index: 0, Value: `\mapname\m1l1`},
			{Index: 33, Value: "models/julie.tik"},
		},
		Cvars:     []Cvar{{Name: "skill", Value: "2"}},
		LevelFile: "save/quick.sav",
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func compressed(t *testing.T, data []byte) *bytes.Buffer {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return &buf
}

func TestReadErrors(t *testing.T) {
	badVersion := appendString(nil, fieldMagic, Magic)
	badVersion = appendVarint(badVersion, fieldVersion, Version+1)

	unknownField := (&Header{}).marshal()
	unknownField = appendVarint(unknownField, 99, 7)

	tests := []struct {
		name string
		data *bytes.Buffer
		ok   bool
	}{
		{"not zstd", bytes.NewBufferString("plain text"), false},
		{"bad magic", compressed(t, appendString(nil, fieldMagic, "QUAKE")), false},
		{"bad version", compressed(t, badVersion), false},
		{"truncated", compressed(t, protowire.AppendTag(nil, fieldMapName, protowire.BytesType)), false},
		{"unknown field", compressed(t, unknownField), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.data)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.BadFormat), "%v", err)
		})
	}
}
