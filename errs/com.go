// SPDX-License-Identifier: GPL-2.0-or-later

package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the severity of an engine error.
type Code int

const (
	// Fatal shuts the engine down.
	Fatal Code = iota
	// Drop aborts the level and returns the server to the dead state.
	Drop
	// Disconnect drops the local client but keeps the server running.
	Disconnect
)

func (c Code) String() string {
	switch c {
	case Fatal:
		return "fatal"
	case Drop:
		return "drop"
	case Disconnect:
		return "disconnect"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

type ComError struct {
	Code Code
	Err  error
}

func (e *ComError) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Err)
}

func (e *ComError) Unwrap() error { return e.Err }

// Com attaches an engine error code to err.
func Com(c Code, err error) *ComError {
	return &ComError{Code: c, Err: err}
}

// Raise panics with a ComError. The engine frame recovers it.
func Raise(c Code, k Kind, format string, args ...interface{}) {
	panic(Com(c, New(k, format, args...)))
}

// Recover turns a recovered panic value into an error. A ComError keeps its
// code, everything else becomes a Drop.
func Recover(r interface{}) *ComError {
	switch v := r.(type) {
	case nil:
		return nil
	case *ComError:
		return v
	case error:
		return Com(Drop, errors.WithStack(v))
	default:
		return Com(Drop, errors.Errorf("%v", v))
	}
}

// CodeOf reports the engine code of err, Fatal if none is attached.
func CodeOf(err error) Code {
	var ce *ComError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return Fatal
}
