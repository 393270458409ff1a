// SPDX-License-Identifier: GPL-2.0-or-later

// Package errs holds the error kinds and engine error codes shared by all
// subsystems.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	Corruption
	BadFormat
	NotFound
	Overflow
	LimitExceeded
	VersionMismatch
	Configuration
)

func (k Kind) String() string {
	switch k {
	case Corruption:
		return "corruption"
	case BadFormat:
		return "bad format"
	case NotFound:
		return "not found"
	case Overflow:
		return "overflow"
	case LimitExceeded:
		return "limit exceeded"
	case VersionMismatch:
		return "version mismatch"
	case Configuration:
		return "configuration"
	}
	return "unknown"
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

// New creates an error of the given kind with a stack trace attached.
func New(k Kind, format string, args ...interface{}) error {
	return errors.WithStack(&kindError{kind: k, msg: fmt.Sprintf(format, args...)})
}

// Wrap annotates err with msg and the kind k. Wrapping nil returns nil.
func Wrap(err error, k Kind, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(&wrapped{kindError{kind: k, msg: err.Error()}, err}, msg)
}

type wrapped struct {
	kindError
	cause error
}

func (w *wrapped) Unwrap() error { return w.cause }

// KindOf returns the outermost kind found in the error chain.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *kindError:
			return e.kind
		case *wrapped:
			return e.kind
		case *ComError:
			return KindOf(e.Err)
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
