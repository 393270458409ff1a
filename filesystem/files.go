// SPDX-License-Identifier: GPL-2.0-or-later

// Package filesystem is the virtual filesystem: loose files of the game
// directory layered over its pk3 archives.
package filesystem

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gofakk/conlog"
	"gofakk/errs"
	"gofakk/filesystem/vfs"
	"gofakk/pack"
	"gofakk/zone"
)

const DefaultGame = "fakk"

type packFileSystem struct {
	p *pack.Pack
	z *zone.Zone
}

// zoneFile is an archive entry extracted into a zone block. Closing it
// releases the block.
type zoneFile struct {
	*bytes.Reader
	z *zone.Zone
	b *zone.Block
}

func (f *zoneFile) Close() error {
	if f.b == nil {
		return nil
	}
	err := f.z.Free(f.b)
	f.b = nil
	return err
}

type fileInfo struct {
	name string // base name of the file
	size int64  // length in bytes for regular files; system-dependent for others
}

func (f *fileInfo) Name() string {
	return f.name
}
func (f *fileInfo) Size() int64 {
	return f.size
}
func (f *fileInfo) Mode() fs.FileMode {
	return 0
}
func (f *fileInfo) ModTime() time.Time {
	return time.Time{}
}
func (f *fileInfo) IsDir() bool {
	return false
}
func (f *fileInfo) Sys() any {
	return nil
}

func (p packFileSystem) Open(path string) (io.ReadSeekCloser, error) {
	// inside a pack file there is no 'root'. all files are relative to '.'
	i, ok := p.p.FindFile(vfs.Clean(path))
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	data, err := p.p.ReadFile(i)
	if err != nil {
		if errs.Is(err, errs.Corruption) {
			panic(errs.Com(errs.Fatal, err))
		}
		return nil, err
	}
	b := p.z.Alloc(len(data), zone.TagGeneral)
	copy(b.Bytes(), data)
	return &zoneFile{Reader: bytes.NewReader(b.Bytes()), z: p.z, b: b}, nil
}

func (p packFileSystem) Stat(path string) (os.FileInfo, error) {
	i, ok := p.p.FindFile(vfs.Clean(path))
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	e := p.p.Entries()[i]
	return &fileInfo{
		name: pathpkg.Base(e.Path),
		size: e.UncompressedSize,
	}, nil
}

func (p packFileSystem) List(dir, ext string) ([]string, error) {
	dir = strings.ToLower(vfs.Clean(dir))
	var l []string
	for _, e := range p.p.Entries() {
		d := pathpkg.Dir(e.Path)
		if d == "." {
			d = ""
		}
		if d == dir && vfs.HasExt(e.Path, ext) {
			l = append(l, e.Path)
		}
	}
	return l, nil
}

func (p packFileSystem) String() string {
	return p.p.String()
}

// FS owns the search path and the open file handles.
type FS struct {
	mutex   sync.RWMutex
	baseDir string
	game    string
	gameDir string
	ns      vfs.NameSpace
	paks    []*pack.Pack
	z       *zone.Zone
	handles [MaxFileHandles]*handle
}

func New(z *zone.Zone) *FS {
	return &FS{z: z}
}

// Init scans <base>/<game> for pak*.pk3 files and builds the search path.
func (f *FS) Init(base, game string) error {
	if game == "" {
		game = DefaultGame
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closePaks()
	f.baseDir = base
	f.game = game
	f.gameDir = filepath.Join(base, game)
	if fi, err := os.Stat(f.gameDir); err != nil || !fi.IsDir() {
		return errs.New(errs.Configuration, "game directory %s not found", f.gameDir)
	}
	f.ns = vfs.NameSpace{}
	f.useDir(f.gameDir)
	conlog.DPrintf("%d files in pk3 files\n", f.packedFileCount())
	return nil
}

// Restart rescans the current game directory.
func (f *FS) Restart() error {
	f.mutex.RLock()
	base, game := f.baseDir, f.game
	f.mutex.RUnlock()
	return f.Init(base, game)
}

// Shutdown closes all handles and archives.
func (f *FS) Shutdown() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for i, h := range f.handles {
		if h != nil {
			h.close()
			f.handles[i] = nil
		}
	}
	f.closePaks()
	f.ns = vfs.NameSpace{}
}

func (f *FS) closePaks() {
	for _, p := range f.paks {
		p.Close()
	}
	f.paks = nil
}

func (f *FS) packedFileCount() int {
	n := 0
	for _, p := range f.paks {
		n += len(p.Entries())
	}
	return n
}

func (f *FS) useDir(dir string) {
	// 1) Add pak*.pk3 files sorted ascending, each before the previous one
	// so the highest number is searched first
	// 2) add the loose directory in front of all archives
	names, _ := filepath.Glob(filepath.Join(dir, "*.pk3"))
	var paks []string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(filepath.Base(n)), "pak") {
			paks = append(paks, n)
		}
	}
	sort.Strings(paks)
	for _, pfp := range paks {
		p, err := pack.Open(pfp)
		if err != nil {
			conlog.Warnf("could not open %s: %v\n", pfp, err)
			continue
		}
		f.paks = append(f.paks, p)
		f.ns.Bind(packFileSystem{p: p, z: f.z}, vfs.BindBefore)
	}
	f.ns.Bind(vfs.OS(dir), vfs.BindBefore)
}

func (f *FS) GameDir() string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.gameDir
}

func (f *FS) Game() string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.game
}

func (f *FS) BaseDir() string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.baseDir
}

// SearchPaths lists the search path, highest priority first.
func (f *FS) SearchPaths() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	var l []string
	for _, m := range f.ns.Mounts() {
		l = append(l, m.String())
	}
	return l
}

func (f *FS) Stat(path string) (os.FileInfo, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.ns.Stat(path)
}

func (f *FS) FileExists(path string) bool {
	_, err := f.Stat(path)
	return err == nil
}

// Open returns a reader over path from the highest priority source.
func (f *FS) Open(name string) (io.ReadSeekCloser, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	r, _, err := f.ns.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(err, errs.NotFound, name)
		}
		return nil, err
	}
	return r, nil
}

// ReadFile loads path into a zone block followed by one zero byte. Release
// it with FreeFile.
func (f *FS) ReadFile(name string) (*zone.Block, error) {
	r, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	n, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		panic(errs.Com(errs.Fatal, errs.Wrap(err, errs.Corruption, name)))
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		panic(errs.Com(errs.Fatal, errs.Wrap(err, errs.Corruption, name)))
	}
	b := f.z.Alloc(int(n)+1, zone.TagGeneral)
	if _, err := io.ReadFull(r, b.Bytes()[:n]); err != nil {
		f.z.Free(b)
		panic(errs.Com(errs.Fatal, errs.Wrap(err, errs.Corruption, name)))
	}
	return b, nil
}

// ReadFileBytes is ReadFile for callers that do not keep zone blocks.
func (f *FS) ReadFileBytes(name string) ([]byte, error) {
	b, err := f.ReadFile(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, b.Size()-1)
	copy(data, b.Bytes())
	f.FreeFile(b)
	return data, nil
}

func (f *FS) FreeFile(b *zone.Block) {
	if b == nil {
		return
	}
	if err := f.z.Free(b); err != nil {
		panic(errs.Com(errs.Fatal, err))
	}
}

// ListFiles lists the files in dir with extension ext over the whole search
// path. Each path appears once.
func (f *FS) ListFiles(dir, ext string) []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.ns.List(dir, ext)
}

func isSep(c uint8) bool {
	return c == '/' || c == '\\'
}

func Ext(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func StripExt(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}

// DefaultExt appends ext when path has none.
func DefaultExt(path, ext string) string {
	if Ext(path) != "" {
		return path
	}
	return path + ext
}
