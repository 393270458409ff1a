// SPDX-License-Identifier: GPL-2.0-or-later

package pack

import (
	"os"
	"sort"

	"github.com/klauspost/compress/zip"
)

// Write creates a pk3 at path holding files, compressed with method.
func Write(path string, files map[string][]byte, method uint16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: n, Method: method})
		if err != nil {
			f.Close()
			return err
		}
		if _, err := fw.Write(files[n]); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
