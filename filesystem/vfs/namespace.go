// SPDX-License-Identifier: GPL-2.0-or-later

package vfs

import (
	"io"
	"os"
	"sort"
	"strings"
)

type BindMode int

const (
	BindReplace BindMode = iota
	BindBefore
	BindAfter
)

// A NameSpace is a file system made up of other file systems searched in
// order.
type NameSpace struct {
	mounts []FileSystem
}

func (*NameSpace) String() string {
	return "ns"
}

// Bind adds newfs to the search path.
// If mode is BindReplace, old file systems are discarded.
// If mode is BindBefore, newfs takes priority over existing ones,
// but earlier ones are still consulted for paths that do not exist in newfs.
// If mode is BindAfter, newfs is consulted only after existing ones
// have been tried and failed.
func (ns *NameSpace) Bind(newfs FileSystem, mode BindMode) {
	switch mode {
	case BindReplace:
		ns.mounts = []FileSystem{newfs}
	case BindAfter:
		ns.mounts = append(ns.mounts, newfs)
	case BindBefore:
		ns.mounts = append([]FileSystem{newfs}, ns.mounts...)
	}
}

// Mounts returns the search path, highest priority first.
func (ns *NameSpace) Mounts() []FileSystem {
	return ns.mounts
}

// Open returns the file from the first file system that has it.
func (ns *NameSpace) Open(name string) (io.ReadSeekCloser, FileSystem, error) {
	var err error
	for _, m := range ns.mounts {
		r, err1 := m.Open(name)
		if err1 == nil {
			return r, m, nil
		}
		// IsNotExist errors in overlay FSes can mask real errors in
		// the underlying FS, so ignore them if there is another error.
		if err == nil || os.IsNotExist(err) {
			err = err1
		}
	}
	if err == nil {
		err = &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return nil, nil, err
}

func (ns *NameSpace) Stat(name string) (os.FileInfo, error) {
	var err error
	for _, m := range ns.mounts {
		fi, err1 := m.Stat(name)
		if err1 == nil {
			return fi, nil
		}
		if err == nil {
			err = err1
		}
	}
	if err == nil {
		err = &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return nil, err
}

// List merges the listings of all file systems. A path seen in a higher
// priority file system hides the same path further down. The result is
// sorted.
func (ns *NameSpace) List(dir, ext string) []string {
	seen := make(map[string]bool)
	var l []string
	for _, m := range ns.mounts {
		names, err := m.List(dir, ext)
		if err != nil {
			continue
		}
		for _, n := range names {
			k := strings.ToLower(n)
			if seen[k] {
				continue
			}
			seen[k] = true
			l = append(l, n)
		}
	}
	sort.Strings(l)
	return l
}
