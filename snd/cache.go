// SPDX-License-Identifier: GPL-2.0-or-later

package snd

const lengthUnknown = -2

type sfx struct {
	name   string
	length float32
}

// cache holds the registered sounds by handle, slot 0 stays empty.
type cache []*sfx

func (c *cache) Get(h Handle) *sfx {
	if h <= 0 || int(h) >= len(*c) {
		return nil
	}
	return (*c)[h]
}

func (c *cache) Has(n string) (Handle, bool) {
	for i, s := range *c {
		if s != nil && s.name == n {
			return Handle(i), true
		}
	}
	return 0, false
}

func (c *cache) Add(s *sfx) Handle {
	h := Handle(len(*c))
	*c = append(*c, s)
	return h
}
