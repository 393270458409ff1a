// SPDX-License-Identifier: GPL-2.0-or-later

// Package savegame reads and writes the engine part of a saved game. The
// game module stores its own level and persistant files next to it.
package savegame

import (
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"

	"gofakk/errs"
)

const (
	Magic   = "FAKKSSV"
	Version = 1
	Ext     = ".ssv"
)

const (
	fieldMagic protowire.Number = iota + 1
	fieldVersion
	fieldID
	fieldMapName
	fieldServerTime
	fieldComment
	fieldConfigString
	fieldCvar
	fieldLevelFile
)

type ConfigString struct {
	Index int
	Value string
}

type Cvar struct {
	Name  string
	Value string
}

type Header struct {
	ID            uuid.UUID
	MapName       string
	ServerTime    int
	Comment       string
	ConfigStrings []ConfigString
	// Cvars holds the server info cvars.
	Cvars     []Cvar
	LevelFile string
}

func appendString(b []byte, n protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, n protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (h *Header) marshal() []byte {
	var b []byte
	b = appendString(b, fieldMagic, Magic)
	b = appendVarint(b, fieldVersion, Version)
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, h.ID[:])
	b = appendString(b, fieldMapName, h.MapName)
	b = appendVarint(b, fieldServerTime, protowire.EncodeZigZag(int64(h.ServerTime)))
	b = appendString(b, fieldComment, h.Comment)
	for _, cs := range h.ConfigStrings {
		var m []byte
		m = appendVarint(m, 1, uint64(cs.Index))
		m = appendString(m, 2, cs.Value)
		b = protowire.AppendTag(b, fieldConfigString, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	for _, cv := range h.Cvars {
		var m []byte
		m = appendString(m, 1, cv.Name)
		m = appendString(m, 2, cv.Value)
		b = protowire.AppendTag(b, fieldCvar, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	b = appendString(b, fieldLevelFile, h.LevelFile)
	return b
}

// Write stores h compressed into w.
func Write(w io.Writer, h *Header) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(h.marshal()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func Read(r io.Reader) (*Header, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, "savegame")
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, errs.Wrap(err, errs.BadFormat, "savegame")
	}
	return unmarshal(data)
}

func badWire(n int) error {
	return errs.Wrap(protowire.ParseError(n), errs.BadFormat, "savegame")
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walk calls fn for each field of a message. fn returns how many bytes of
// the value it consumed, or -1 to skip it.
func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return badWire(n)
		}
		b = b[n:]
		used, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if used < 0 {
			used = protowire.ConsumeFieldValue(num, typ, b)
			if used < 0 {
				return badWire(used)
			}
		}
		b = b[used:]
	}
	return nil
}

func consumeString(b []byte, out *string) (int, error) {
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, badWire(n)
	}
	*out = s
	return n, nil
}

func consumeVarint(b []byte, out *uint64) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, badWire(n)
	}
	*out = v
	return n, nil
}

func unmarshal(data []byte) (*Header, error) {
	h := &Header{}
	var magic string
	var version uint64
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldMagic && typ == protowire.BytesType:
			return consumeString(b, &magic)
		case num == fieldVersion && typ == protowire.VarintType:
			return consumeVarint(b, &version)
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, badWire(n)
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return 0, errs.Wrap(err, errs.BadFormat, "savegame id")
			}
			h.ID = id
			return n, nil
		case num == fieldMapName && typ == protowire.BytesType:
			return consumeString(b, &h.MapName)
		case num == fieldServerTime && typ == protowire.VarintType:
			var v uint64
			n, err := consumeVarint(b, &v)
			h.ServerTime = int(protowire.DecodeZigZag(v))
			return n, err
		case num == fieldComment && typ == protowire.BytesType:
			return consumeString(b, &h.Comment)
		case num == fieldLevelFile && typ == protowire.BytesType:
			return consumeString(b, &h.LevelFile)
		case num == fieldConfigString && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, badWire(n)
			}
			var cs ConfigString
			err := walk(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch {
				case num == 1 && typ == protowire.VarintType:
					var i uint64
					n, err := consumeVarint(b, &i)
					cs.Index = int(i)
					return n, err
				case num == 2 && typ == protowire.BytesType:
					return consumeString(b, &cs.Value)
				}
				return -1, nil
			})
			h.ConfigStrings = append(h.ConfigStrings, cs)
			return n, err
		case num == fieldCvar && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, badWire(n)
			}
			var cv Cvar
			err := walk(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch {
				case num == 1 && typ == protowire.BytesType:
					return consumeString(b, &cv.Name)
				case num == 2 && typ == protowire.BytesType:
					return consumeString(b, &cv.Value)
				}
				return -1, nil
			})
			h.Cvars = append(h.Cvars, cv)
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, errs.New(errs.BadFormat, "savegame: bad magic %q", magic)
	}
	if version != Version {
		return nil, errs.New(errs.BadFormat, "savegame: version %d, expected %d", version, Version)
	}
	return h, nil
}
