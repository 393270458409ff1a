// SPDX-License-Identifier: GPL-2.0-or-later

// Package pack reads pk3 archives.
package pack

import (
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"gofakk/errs"
)

const (
	MethodStore   = zip.Store
	MethodDeflate = zip.Deflate
)

type Entry struct {
	Path             string
	CompressedSize   int64
	UncompressedSize int64
	Offset           int64
	Method           uint16
	CRC32            uint32

	f *zip.File
}

type Pack struct {
	name    string
	rc      *zip.ReadCloser
	entries []Entry
	index   map[string]int
}

// NormalizePath lowercases p, turns backslashes into slashes and strips
// leading slashes.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	return strings.ToLower(p)
}

// Open reads the central directory of the archive at path.
func Open(path string) (*Pack, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(err, errs.NotFound, path)
		}
		return nil, errs.Wrap(err, errs.BadFormat, path)
	}
	p := &Pack{
		name:  path,
		rc:    rc,
		index: make(map[string]int, len(rc.File)),
	}
	for _, f := range rc.File {
		if strings.HasSuffix(f.Name, "/") {
			// directory entry
			continue
		}
		off, err := f.DataOffset()
		if err != nil {
			rc.Close()
			return nil, errs.Wrap(err, errs.BadFormat, path)
		}
		n := NormalizePath(f.Name)
		if _, ok := p.index[n]; ok {
			// first occurrence wins
			continue
		}
		p.index[n] = len(p.entries)
		p.entries = append(p.entries, Entry{
			Path:             n,
			CompressedSize:   int64(f.CompressedSize64),
			UncompressedSize: int64(f.UncompressedSize64),
			Offset:           off,
			Method:           f.Method,
			CRC32:            f.CRC32,
			f:                f,
		})
	}
	return p, nil
}

func (p *Pack) String() string {
	return p.name
}

func (p *Pack) Close() error {
	return p.rc.Close()
}

func (p *Pack) Entries() []Entry {
	return p.entries
}

// FindFile returns the entry index of path.
func (p *Pack) FindFile(path string) (int, bool) {
	i, ok := p.index[NormalizePath(path)]
	return i, ok
}

// Open returns a reader of the uncompressed entry.
func (p *Pack) Open(i int) (io.ReadCloser, error) {
	if i < 0 || i >= len(p.entries) {
		return nil, errs.New(errs.NotFound, "%s: no entry %d", p.name, i)
	}
	e := &p.entries[i]
	if e.Method != MethodStore && e.Method != MethodDeflate {
		return nil, errs.New(errs.BadFormat, "%s: %s uses unsupported method %d", p.name, e.Path, e.Method)
	}
	return e.f.Open()
}

// ReadFile extracts entry i and verifies its CRC.
func (p *Pack) ReadFile(i int) ([]byte, error) {
	r, err := p.Open(i)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	e := &p.entries[i]
	data := make([]byte, e.UncompressedSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errs.Wrap(err, errs.Corruption, p.name+": "+e.Path)
	}
	if crc32.ChecksumIEEE(data) != e.CRC32 {
		return nil, errs.New(errs.Corruption, "%s: %s crc mismatch", p.name, e.Path)
	}
	return data, nil
}

// ReadFileByName is ReadFile(FindFile(path)).
func (p *Pack) ReadFileByName(path string) ([]byte, error) {
	i, ok := p.FindFile(path)
	if !ok {
		return nil, errs.New(errs.NotFound, "%s: %s not found", p.name, path)
	}
	return p.ReadFile(i)
}
