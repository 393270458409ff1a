// SPDX-License-Identifier: GPL-2.0-or-later

package zone

import (
	"gofakk/errs"
)

const hunkAlign = 16

// Hunk is a bump allocator cleared wholesale between levels. Slices handed
// out are invalid after Clear.
type Hunk struct {
	mem  []byte
	used int
}

func NewHunk(size int) *Hunk {
	return &Hunk{mem: make([]byte, size)}
}

// Alloc returns size zeroed bytes aligned to 16. Running out is fatal.
func (h *Hunk) Alloc(size int) []byte {
	if size < 0 {
		errs.Raise(errs.Fatal, errs.LimitExceeded, "Hunk_Alloc: bad size %d", size)
	}
	start := (h.used + hunkAlign - 1) &^ (hunkAlign - 1)
	end := start + size
	if end > len(h.mem) {
		errs.Raise(errs.Fatal, errs.LimitExceeded, "Hunk_Alloc failed on %d", size)
	}
	b := h.mem[start:end:end]
	clear(b)
	h.used = end
	return b
}

// Mark returns the current high-water mark.
func (h *Hunk) Mark() int {
	return h.used
}

// FreeToMark releases everything allocated after m.
func (h *Hunk) FreeToMark(m int) {
	if m >= 0 && m < h.used {
		h.used = m
	}
}

func (h *Hunk) Clear() {
	h.used = 0
}

func (h *Hunk) Used() int {
	return h.used
}

func (h *Hunk) Size() int {
	return len(h.mem)
}
