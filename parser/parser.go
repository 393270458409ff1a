// SPDX-License-Identifier: GPL-2.0-or-later

// Package parser is the whitespace and comment aware tokenizer used for
// scripts, TIKI descriptors and console lines.
package parser

import (
	"strings"

	"gofakk/conlog"
)

const MaxTokenChars = 1024

// Cursor walks a text buffer. The buffer is owned by the caller.
type Cursor struct {
	text string
	pos  int
	line int
	name string
}

func New(name, text string) *Cursor {
	return &Cursor{text: text, line: 1, name: name}
}

func (c *Cursor) Name() string {
	return c.name
}

func (c *Cursor) Line() int {
	return c.line
}

// Rest is the unparsed remainder.
func (c *Cursor) Rest() string {
	return c.text[c.pos:]
}

// EOF reports whether only whitespace and comments remain.
func (c *Cursor) EOF() bool {
	save := *c
	t := c.Parse(true)
	*c = save
	return t == ""
}

// skipWhite skips blanks and reports whether a newline was crossed.
func (c *Cursor) skipWhite() (hasNewLines bool, ok bool) {
	for c.pos < len(c.text) {
		ch := c.text[c.pos]
		if ch > ' ' {
			return hasNewLines, true
		}
		if ch == '\n' {
			c.line++
			hasNewLines = true
		}
		c.pos++
	}
	return hasNewLines, false
}

// Parse returns the next token or "" at end of input. When allowNewline is
// false a newline before the next token also yields "" and is not consumed
// past.
func (c *Cursor) Parse(allowNewline bool) string {
	t, _ := c.Next(allowNewline)
	return t
}

// Next is Parse but also reports whether a token was found, so an empty
// quoted string can be told apart from the end of input.
func (c *Cursor) Next(allowNewline bool) (string, bool) {
	for {
		start := c.pos
		startLine := c.line
		nl, ok := c.skipWhite()
		if !ok {
			return "", false
		}
		if nl && !allowNewline {
			// leave the cursor at the newline so the next line starts fresh
			c.pos = start
			c.line = startLine
			c.rewindToNewline()
			return "", false
		}
		ch := c.text[c.pos]
		if ch == '/' && c.pos+1 < len(c.text) && c.text[c.pos+1] == '/' {
			for c.pos < len(c.text) && c.text[c.pos] != '\n' {
				c.pos++
			}
			continue
		}
		if ch == '/' && c.pos+1 < len(c.text) && c.text[c.pos+1] == '*' {
			c.pos += 2
			for c.pos < len(c.text) && !(c.text[c.pos] == '*' && c.pos+1 < len(c.text) && c.text[c.pos+1] == '/') {
				if c.text[c.pos] == '\n' {
					c.line++
				}
				c.pos++
			}
			if c.pos < len(c.text) {
				c.pos += 2
			}
			continue
		}
		break
	}

	var b strings.Builder
	add := func(ch byte) {
		if b.Len() < MaxTokenChars-1 {
			b.WriteByte(ch)
		}
	}
	if c.text[c.pos] == '"' {
		c.pos++
		for c.pos < len(c.text) {
			ch := c.text[c.pos]
			c.pos++
			if ch == '"' || ch == 0 {
				break
			}
			if ch == '\n' {
				c.line++
			}
			add(ch)
		}
		return b.String(), true
	}
	for c.pos < len(c.text) {
		ch := c.text[c.pos]
		if ch <= ' ' {
			break
		}
		add(ch)
		c.pos++
	}
	if b.Len() == MaxTokenChars-1 {
		conlog.DPrintf("token exceeded %d chars in %s line %d, truncated\n", MaxTokenChars, c.name, c.line)
	}
	return b.String(), true
}

// rewindToNewline moves forward to the first newline without crossing it.
func (c *Cursor) rewindToNewline() {
	for c.pos < len(c.text) && c.text[c.pos] != '\n' {
		c.pos++
	}
}

// Peek returns the next token without consuming it.
func (c *Cursor) Peek(allowNewline bool) string {
	save := *c
	t := c.Parse(allowNewline)
	*c = save
	return t
}

// ParseLine is Parse(false).
func (c *Cursor) ParseLine() string {
	return c.Parse(false)
}

// AtLineEnd reports whether only blanks remain before the next newline.
func (c *Cursor) AtLineEnd() bool {
	for i := c.pos; i < len(c.text); i++ {
		switch ch := c.text[i]; {
		case ch == '\n':
			return true
		case ch == '/' && i+1 < len(c.text) && c.text[i+1] == '/':
			return true
		case ch > ' ':
			return false
		}
	}
	return true
}

// SkipRestOfLine discards everything up to and including the next newline.
func (c *Cursor) SkipRestOfLine() {
	for c.pos < len(c.text) {
		ch := c.text[c.pos]
		c.pos++
		if ch == '\n' {
			c.line++
			return
		}
	}
}

// SkipBracedSection skips tokens until the braces opened by the next "{"
// are balanced.
func (c *Cursor) SkipBracedSection() {
	depth := 0
	for {
		t := c.Parse(true)
		if t == "" {
			return
		}
		switch t {
		case "{":
			depth++
		case "}":
			depth--
		}
		if depth <= 0 {
			return
		}
	}
}

// Tokens splits a single line into tokens.
func Tokens(line string) []string {
	c := New("", line)
	var out []string
	for {
		t, ok := c.Next(false)
		if !ok {
			return out
		}
		out = append(out, t)
	}
}
