// SPDX-License-Identifier: GPL-2.0-or-later

package pack

import (
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
)

func writePak(t *testing.T, method uint16) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "pak0.pk3")
	require.NoError(t, Write(name, map[string][]byte{
		"Textures/A.tga":    []byte("LOW"),
		"scripts\\x.shader": []byte(strings.Repeat("textures/x { }\n", 40)),
		"maps/test.bsp":     {0, 1, 2, 3},
	}, method))
	return name
}

func TestPak(t *testing.T) {
	for _, method := range []uint16{MethodStore, MethodDeflate} {
		name := writePak(t, method)
		p, err := Open(name)
		require.NoError(t, err)
		if p.String() != name {
			t.Errorf("pack String error: want %v got %v", name, p.String())
		}
		_, ok := p.FindFile("textures/a.tga")
		assert.True(t, ok)
		_, ok = p.FindFile("/SCRIPTS/x.shader")
		assert.True(t, ok)
		_, ok = p.FindFile("nope")
		assert.False(t, ok)

		for i, e := range p.Entries() {
			byIndex, err := p.ReadFile(i)
			require.NoError(t, err)
			byName, err := p.ReadFileByName(e.Path)
			require.NoError(t, err)
			assert.Equal(t, byIndex, byName)
			assert.Equal(t, e.CRC32, crc32.ChecksumIEEE(byName))
			assert.Equal(t, e.UncompressedSize, int64(len(byName)))
			assert.Equal(t, method, e.Method)
		}
		b, err := p.ReadFileByName("textures/a.tga")
		require.NoError(t, err)
		assert.Equal(t, "LOW", string(b))
		require.NoError(t, p.Close())
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pk3"))
	assert.True(t, errs.Is(err, errs.NotFound))

	bad := filepath.Join(t.TempDir(), "bad.pk3")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))
	_, err = Open(bad)
	assert.True(t, errs.Is(err, errs.BadFormat))
}

func TestCorruptEntry(t *testing.T) {
	name := writePak(t, MethodStore)
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	// entries are stored uncompressed, flip the payload of "maps/test.bsp"
	i := strings.Index(string(data), "maps/test.bsp")
	require.Greater(t, i, 0)
	data[i+len("maps/test.bsp")] ^= 0xff
	require.NoError(t, os.WriteFile(name, data, 0o644))

	p, err := Open(name)
	require.NoError(t, err)
	defer p.Close()
	_, err = p.ReadFileByName("maps/test.bsp")
	assert.True(t, errs.Is(err, errs.Corruption))
}
