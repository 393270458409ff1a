// SPDX-License-Identifier: GPL-2.0-or-later

// Package zone implements the tagged zone allocator and the level hunk.
package zone

import (
	"fmt"
	"io"

	"gofakk/errs"
)

type Tag int

const (
	TagFree Tag = iota
	TagGeneral
	TagRenderer
	TagSound
	TagGame
	TagCGame
	TagTiki
	TagGhost
	TagScript
	TagSmall
	TagStatic
	numTags
)

var tagNames = [numTags]string{
	"FREE", "GENERAL", "RENDERER", "SOUND", "GAME", "CGAME",
	"TIKI", "GHOST", "SCRIPT", "SMALL", "STATIC",
}

func (t Tag) String() string {
	if t < 0 || t >= numTags {
		return fmt.Sprintf("TAG(%d)", int(t))
	}
	return tagNames[t]
}

const (
	liveMagic = 0x1d4a11
	deadMagic = 0xdeadbeef
)

// Block is a single zone allocation. Its user data is only valid until the
// block is freed.
type Block struct {
	magic      uint32
	tag        Tag
	data       []byte
	prev, next *Block
}

func (b *Block) Bytes() []byte {
	return b.data
}

func (b *Block) Size() int {
	return len(b.data)
}

func (b *Block) Tag() Tag {
	return b.tag
}

type Zone struct {
	// head is the sentinel of a circular list of live blocks
	head   Block
	blocks [numTags]int
	bytes  [numTags]int
	total  int
	limit  int
}

// New creates a zone. A limit of 0 means unbounded.
func New(limit int) *Zone {
	z := &Zone{limit: limit}
	z.head.next = &z.head
	z.head.prev = &z.head
	return z
}

// Alloc returns a zeroed block. Failure to allocate is fatal.
func (z *Zone) Alloc(size int, tag Tag) *Block {
	if size < 0 {
		errs.Raise(errs.Fatal, errs.LimitExceeded, "Z_Malloc: bad size %d", size)
	}
	if tag <= TagFree || tag >= numTags {
		errs.Raise(errs.Fatal, errs.Configuration, "Z_Malloc: bad tag %d", int(tag))
	}
	if z.limit > 0 && z.total+size > z.limit {
		errs.Raise(errs.Fatal, errs.LimitExceeded, "Z_Malloc: failed on allocation of %d bytes from the %v zone", size, tag)
	}
	b := &Block{
		magic: liveMagic,
		tag:   tag,
		data:  make([]byte, size),
	}
	b.next = z.head.next
	b.prev = &z.head
	z.head.next.prev = b
	z.head.next = b
	z.blocks[tag]++
	z.bytes[tag] += size
	z.total += size
	return b
}

func (z *Zone) AllocDefault(size int) *Block {
	return z.Alloc(size, TagGeneral)
}

// Free releases a block. Freeing a block twice or a damaged block reports
// corruption.
func (z *Zone) Free(b *Block) error {
	if b == nil {
		return errs.New(errs.Corruption, "Z_Free: NULL pointer")
	}
	if b.magic != liveMagic {
		return errs.New(errs.Corruption, "Z_Free: freed a pointer without ZONEID")
	}
	z.unlink(b)
	return nil
}

func (z *Zone) unlink(b *Block) {
	b.prev.next = b.next
	b.next.prev = b.prev
	b.prev, b.next = nil, nil
	b.magic = deadMagic
	z.blocks[b.tag]--
	z.bytes[b.tag] -= len(b.data)
	z.total -= len(b.data)
	b.data = nil
}

// FreeByTag frees every live block carrying tag and reports how many were
// released.
func (z *Zone) FreeByTag(tag Tag) int {
	n := 0
	for b := z.head.next; b != &z.head; {
		next := b.next
		if b.tag == tag {
			z.unlink(b)
			n++
		}
		b = next
	}
	return n
}

// Outstanding reports the live block count and byte total for tag.
func (z *Zone) Outstanding(tag Tag) (blocks, bytes int) {
	if tag < 0 || tag >= numTags {
		return 0, 0
	}
	return z.blocks[tag], z.bytes[tag]
}

// Total is the number of live bytes over all tags.
func (z *Zone) Total() int {
	return z.total
}

// Each calls f for every live block, most recent first.
func (z *Zone) Each(f func(*Block)) {
	for b := z.head.next; b != &z.head; b = b.next {
		f(b)
	}
}

// Tags lists every valid allocation tag.
func Tags() []Tag {
	t := make([]Tag, 0, numTags-1)
	for i := TagGeneral; i < numTags; i++ {
		t = append(t, i)
	}
	return t
}

func (z *Zone) Dump(w io.Writer) {
	for _, t := range Tags() {
		fmt.Fprintf(w, "%-9v %6d blocks %10d bytes\n", t, z.blocks[t], z.bytes[t])
	}
	fmt.Fprintf(w, "%-9s %6s        %10d bytes\n", "total", "", z.total)
}
