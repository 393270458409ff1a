// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
	"gofakk/pack"
	"gofakk/zone"
)

func gameDir(t *testing.T) (base, dir string) {
	t.Helper()
	base = t.TempDir()
	dir = filepath.Join(base, DefaultGame)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return base, dir
}

func writePak(t *testing.T, dir, name string, files map[string]string) {
	t.Helper()
	m := make(map[string][]byte, len(files))
	for k, v := range files {
		m[k] = []byte(v)
	}
	require.NoError(t, pack.Write(filepath.Join(dir, name), m, pack.MethodDeflate))
}

func readString(t *testing.T, f *FS, name string) string {
	t.Helper()
	b, err := f.ReadFileBytes(name)
	require.NoError(t, err)
	return string(b)
}

func TestArchiveOverride(t *testing.T) {
	base, dir := gameDir(t)
	writePak(t, dir, "pak0.pk3", map[string]string{"textures/a.tga": "LOW"})
	writePak(t, dir, "pak1.pk3", map[string]string{"textures/a.tga": "HIGH"})

	z := zone.New(0)
	f := New(z)
	require.NoError(t, f.Init(base, ""))
	assert.Equal(t, "HIGH", readString(t, f, "textures/a.tga"))

	require.NoError(t, os.Remove(filepath.Join(dir, "pak1.pk3")))
	require.NoError(t, f.Restart())
	assert.Equal(t, "LOW", readString(t, f, "textures/a.tga"))

	f.Shutdown()
	n, _ := z.Outstanding(zone.TagGeneral)
	assert.Zero(t, n)
}

func TestLooseFileFirst(t *testing.T) {
	base, dir := gameDir(t)
	writePak(t, dir, "pak0.pk3", map[string]string{"cfg/x.cfg": "packed"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cfg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cfg", "x.cfg"), []byte("loose"), 0o644))

	f := New(zone.New(0))
	require.NoError(t, f.Init(base, DefaultGame))
	defer f.Shutdown()
	assert.Equal(t, "loose", readString(t, f, "cfg/x.cfg"))
	assert.Len(t, f.SearchPaths(), 2)
	assert.Equal(t, dir, f.SearchPaths()[0])
}

func TestReadFile(t *testing.T) {
	base, dir := gameDir(t)
	writePak(t, dir, "pak0.pk3", map[string]string{"scripts/a.txt": "abc"})
	z := zone.New(0)
	f := New(z)
	require.NoError(t, f.Init(base, ""))
	defer f.Shutdown()

	b, err := f.ReadFile("scripts/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0}, b.Bytes())
	f.FreeFile(b)

	_, err = f.ReadFile("scripts/missing.txt")
	assert.True(t, errs.Is(err, errs.NotFound))
	assert.False(t, f.FileExists("scripts/missing.txt"))
	assert.True(t, f.FileExists("scripts/a.txt"))
	assert.Zero(t, z.Total())
}

func TestHandles(t *testing.T) {
	base, dir := gameDir(t)
	writePak(t, dir, "pak0.pk3", map[string]string{"data/n.bin": "0123456789"})
	z := zone.New(0)
	f := New(z)
	require.NoError(t, f.Init(base, ""))
	defer f.Shutdown()

	h, n, err := f.OpenRead("data/n.bin")
	require.NoError(t, err)
	require.NotZero(t, h)
	assert.Equal(t, int64(10), n)
	// the archive entry lives in the zone while the handle is open
	assert.NotZero(t, z.Total())

	buf := make([]byte, 4)
	got, err := f.Read(buf, h)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, "0123", string(buf))
	require.NoError(t, f.Seek(h, -2, SeekEnd))
	assert.Equal(t, int64(8), f.Tell(h))
	got, _ = f.Read(buf, h)
	assert.Equal(t, 2, got)
	got, _ = f.Read(buf, h)
	assert.Zero(t, got)
	assert.Error(t, f.Seek(h, 11, SeekSet))
	assert.Error(t, f.Seek(h, -1, SeekSet))
	require.NoError(t, f.Seek(h, 3, SeekSet))
	require.NoError(t, f.Seek(h, 2, SeekCur))
	assert.Equal(t, int64(5), f.Tell(h))

	require.NoError(t, f.Close(h))
	assert.Zero(t, z.Total())
	assert.Error(t, f.Close(h))
}

func TestWrite(t *testing.T) {
	base, dir := gameDir(t)
	f := New(zone.New(0))
	require.NoError(t, f.Init(base, ""))
	defer f.Shutdown()

	h, err := f.OpenWrite("save/log.txt")
	require.NoError(t, err)
	f.Write([]byte("one\n"), h)
	require.NoError(t, f.Close(h))
	h, err = f.OpenAppend("save/log.txt")
	require.NoError(t, err)
	f.Write([]byte("two\n"), h)
	assert.Equal(t, int64(8), f.Tell(h))
	require.NoError(t, f.Close(h))

	b, err := os.ReadFile(filepath.Join(dir, "save", "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(b))
	assert.Equal(t, "one\ntwo\n", readString(t, f, "save/log.txt"))

	require.NoError(t, f.WriteFile("config.cfg", []byte("seta a 1\n")))
	assert.True(t, f.FileExists("config.cfg"))
	for _, bad := range []string{"../escape.txt", "/abs.txt", "c:/x.txt"} {
		_, err := f.OpenWrite(bad)
		assert.Error(t, err, bad)
	}
}

func TestListFiles(t *testing.T) {
	base, dir := gameDir(t)
	writePak(t, dir, "pak0.pk3", map[string]string{
		"maps/a.bsp":     "a",
		"maps/b.bsp":     "b",
		"maps/sub/c.bsp": "c",
		"maps/a.txt":     "t",
	})
	writePak(t, dir, "pak1.pk3", map[string]string{"maps/b.bsp": "B"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maps", "d.bsp"), nil, 0o644))

	f := New(zone.New(0))
	require.NoError(t, f.Init(base, ""))
	defer f.Shutdown()
	assert.Equal(t, []string{"maps/a.bsp", "maps/b.bsp", "maps/d.bsp"}, f.ListFiles("maps", ".bsp"))
	assert.Equal(t, []string{"maps/a.bsp", "maps/a.txt", "maps/b.bsp", "maps/d.bsp"}, f.ListFiles("maps/", ""))
}

func TestMissingGameDir(t *testing.T) {
	f := New(zone.New(0))
	err := f.Init(t.TempDir(), "nope")
	assert.True(t, errs.Is(err, errs.Configuration))
}

func TestExt(t *testing.T) {
	for _, tc := range []struct {
		in, ext, strip string
	}{
		{"models/a.tik", ".tik", "models/a"},
		{"models.d/a", "", "models.d/a"},
		{"a.b.skc", ".skc", "a.b"},
	} {
		if got := Ext(tc.in); got != tc.ext {
			t.Errorf("Ext(%q)=%q, want %q", tc.in, got, tc.ext)
		}
		if got := StripExt(tc.in); got != tc.strip {
			t.Errorf("StripExt(%q)=%q, want %q", tc.in, got, tc.strip)
		}
	}
	assert.Equal(t, "maps/x.bsp", DefaultExt("maps/x", ".bsp"))
}
