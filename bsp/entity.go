// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"strings"

	"gofakk/errs"
	"gofakk/parser"
)

// Entity is one brace block of the map entity string.
type Entity struct {
	properties map[string]string
	keys       []string
}

func NewEntity() *Entity {
	return &Entity{properties: make(map[string]string)}
}

func (e *Entity) Set(key, value string) {
	if _, ok := e.properties[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.properties[key] = value
}

func (e *Entity) Property(name string) (string, bool) {
	v, ok := e.properties[name]
	return v, ok
}

func (e *Entity) Name() (string, bool) {
	v, ok := e.properties["classname"]
	return v, ok
}

// PropertyNames lists the keys in the order they appear.
func (e *Entity) PropertyNames() []string {
	return append([]string(nil), e.keys...)
}

// ParseEntities splits the entity string into its blocks:
//
//	{
//	"classname" "worldspawn"
//	"message" "The Garden"
//	}
func ParseEntities(data string) ([]*Entity, error) {
	c := parser.New("entities", data)
	var es []*Entity
	for {
		t, ok := c.Next(true)
		if !ok {
			return es, nil
		}
		if t != "{" {
			return nil, errs.New(errs.BadFormat, "ParseEntities: found %q when expecting {", t)
		}
		e := NewEntity()
		for {
			k, ok := c.Next(true)
			if !ok {
				return nil, errs.New(errs.BadFormat, "ParseEntities: EOF without closing brace")
			}
			if k == "}" {
				break
			}
			v, ok := c.Next(false)
			if !ok || v == "}" {
				return nil, errs.New(errs.BadFormat, "ParseEntities: key %q without value", k)
			}
			e.Set(strings.TrimSpace(k), v)
		}
		es = append(es, e)
	}
}
