// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfs defines the search path abstraction used by the filesystem.
// A NameSpace is an ordered union of file systems, the first to hold a path
// wins.
package vfs

import (
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
)

// The FileSystem interface is what a search path element provides.
type FileSystem interface {
	Open(name string) (io.ReadSeekCloser, error)
	Stat(name string) (os.FileInfo, error)
	// List returns the paths of the regular files directly in dir whose
	// name ends in ext. An empty ext matches everything.
	List(dir, ext string) ([]string, error)
	String() string
}

// Clean turns name into the slash separated, unrooted form used for lookups.
func Clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = pathpkg.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// HasExt reports whether name ends in ext, ignoring case.
func HasExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

type osFS string

// OS returns a FileSystem rooted at the OS directory root.
func OS(root string) FileSystem {
	return osFS(root)
}

func (root osFS) String() string { return string(root) }

func (root osFS) resolve(name string) string {
	return filepath.Join(string(root), filepath.FromSlash(Clean(name)))
}

func (root osFS) Open(name string) (io.ReadSeekCloser, error) {
	f, err := os.Open(root.resolve(name))
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, &os.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f, nil
}

func (root osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(root.resolve(name))
}

func (root osFS) List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(root.resolve(dir))
	if err != nil {
		return nil, err
	}
	var l []string
	for _, e := range entries {
		if e.IsDir() || !HasExt(e.Name(), ext) {
			continue
		}
		l = append(l, pathpkg.Join(Clean(dir), e.Name()))
	}
	return l, nil
}
