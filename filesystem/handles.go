// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gofakk/errs"
	"gofakk/filesystem/vfs"
)

const MaxFileHandles = 64

// FileHandle identifies an open file. 0 is never a valid handle.
type FileHandle int

type Origin int

const (
	SeekSet Origin = iota
	SeekCur
	SeekEnd
)

type handle struct {
	name string
	r    io.ReadSeekCloser
	size int64
	w    *os.File
	bw   *bufio.Writer
}

func (h *handle) close() error {
	if h.r != nil {
		return h.r.Close()
	}
	if h.bw != nil {
		if err := h.bw.Flush(); err != nil {
			h.w.Close()
			return err
		}
	}
	return h.w.Close()
}

func (f *FS) allocHandle(h *handle) (FileHandle, error) {
	for i := 1; i < MaxFileHandles; i++ {
		if f.handles[i] == nil {
			f.handles[i] = h
			return FileHandle(i), nil
		}
	}
	return 0, errs.New(errs.LimitExceeded, "FS_HandleForFile: none free")
}

func (f *FS) get(h FileHandle) (*handle, error) {
	if h <= 0 || int(h) >= MaxFileHandles || f.handles[h] == nil {
		return nil, errs.New(errs.NotFound, "FS: bad file handle %d", int(h))
	}
	return f.handles[h], nil
}

// OpenRead opens path for reading and returns its length.
func (f *FS) OpenRead(path string) (FileHandle, int64, error) {
	r, err := f.Open(path)
	if err != nil {
		return 0, -1, err
	}
	n, err := r.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = r.Seek(0, io.SeekStart)
	}
	if err != nil {
		r.Close()
		return 0, -1, errs.Wrap(err, errs.Corruption, path)
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	h, err := f.allocHandle(&handle{name: path, r: r, size: n})
	if err != nil {
		r.Close()
		return 0, -1, err
	}
	return h, n, nil
}

// Read fills buf and returns how many bytes were read, 0 at end of file.
func (f *FS) Read(buf []byte, fh FileHandle) (int, error) {
	f.mutex.RLock()
	h, err := f.get(fh)
	f.mutex.RUnlock()
	if err != nil {
		return 0, err
	}
	if h.r == nil {
		return 0, errs.New(errs.Configuration, "FS_Read: %s is open for writing", h.name)
	}
	n, err := io.ReadFull(h.r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	if err != nil {
		panic(errs.Com(errs.Fatal, errs.Wrap(err, errs.Corruption, h.name)))
	}
	return n, nil
}

// Seek moves the read position. Targets outside the file fail.
func (f *FS) Seek(fh FileHandle, offset int64, origin Origin) error {
	f.mutex.RLock()
	h, err := f.get(fh)
	f.mutex.RUnlock()
	if err != nil {
		return err
	}
	if h.r == nil {
		return errs.New(errs.Configuration, "FS_Seek: %s is open for writing", h.name)
	}
	cur, _ := h.r.Seek(0, io.SeekCurrent)
	var target int64
	switch origin {
	case SeekSet:
		target = offset
	case SeekCur:
		target = cur + offset
	case SeekEnd:
		target = h.size + offset
	default:
		return errs.New(errs.Configuration, "FS_Seek: bad origin %d", int(origin))
	}
	if target < 0 || target > h.size {
		return errs.New(errs.Overflow, "FS_Seek: %d outside %s", target, h.name)
	}
	_, err = h.r.Seek(target, io.SeekStart)
	return err
}

func (f *FS) Tell(fh FileHandle) int64 {
	f.mutex.RLock()
	h, err := f.get(fh)
	f.mutex.RUnlock()
	if err != nil {
		return -1
	}
	if h.r != nil {
		n, _ := h.r.Seek(0, io.SeekCurrent)
		return n
	}
	h.bw.Flush()
	n, _ := h.w.Seek(0, io.SeekCurrent)
	return n
}

func (f *FS) Close(fh FileHandle) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	h, err := f.get(fh)
	if err != nil {
		return err
	}
	f.handles[fh] = nil
	return h.close()
}

// writePath maps path into the game directory, refusing anything that
// would escape it.
func (f *FS) writePath(path string) (string, error) {
	if strings.Contains(path, "..") || strings.Contains(path, ":") || strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return "", errs.New(errs.Configuration, "FS: refusing to write %q", path)
	}
	f.mutex.RLock()
	dir := f.gameDir
	f.mutex.RUnlock()
	if dir == "" {
		return "", errs.New(errs.Configuration, "FS: filesystem not initialized")
	}
	return filepath.Join(dir, filepath.FromSlash(vfs.Clean(path))), nil
}

func (f *FS) openWriter(path string, flag int) (FileHandle, error) {
	full, err := f.writePath(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, errs.Wrap(err, errs.Configuration, path)
	}
	w, err := os.OpenFile(full, flag, 0o644)
	if err != nil {
		return 0, errs.Wrap(err, errs.Configuration, path)
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	h, err := f.allocHandle(&handle{name: path, w: w, bw: bufio.NewWriter(w)})
	if err != nil {
		w.Close()
		return 0, err
	}
	return h, nil
}

// OpenWrite creates or truncates path inside the game directory.
func (f *FS) OpenWrite(path string) (FileHandle, error) {
	return f.openWriter(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

func (f *FS) OpenAppend(path string) (FileHandle, error) {
	return f.openWriter(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY)
}

func (f *FS) Write(buf []byte, fh FileHandle) (int, error) {
	f.mutex.RLock()
	h, err := f.get(fh)
	f.mutex.RUnlock()
	if err != nil {
		return 0, err
	}
	if h.bw == nil {
		return 0, errs.New(errs.Configuration, "FS_Write: %s is open for reading", h.name)
	}
	return h.bw.Write(buf)
}

func (f *FS) Flush(fh FileHandle) error {
	f.mutex.RLock()
	h, err := f.get(fh)
	f.mutex.RUnlock()
	if err != nil {
		return err
	}
	if h.bw == nil {
		return nil
	}
	return h.bw.Flush()
}

// WriteFile writes data to path inside the game directory.
func (f *FS) WriteFile(path string, data []byte) error {
	full, err := f.writePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errs.Wrap(err, errs.Configuration, path)
	}
	return os.WriteFile(full, data, 0o644)
}

// Remove deletes path from the game directory.
func (f *FS) Remove(path string) error {
	full, err := f.writePath(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}
