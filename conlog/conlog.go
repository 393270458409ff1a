// SPDX-License-Identifier: GPL-2.0-or-later

// Package conlog is the engine console print sink.
package conlog

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	logger    = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
	p         func(string, ...interface{})
	sp        func(string, ...interface{})
	developer atomic.Bool
)

// SetLogger replaces the backing logger.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// Logger returns the backing logger for structured events.
func Logger() *zerolog.Logger {
	return &logger
}

// SetPrintf installs an extra sink that receives every printed line, the way
// a console collaborator would.
func SetPrintf(f func(string, ...interface{})) {
	p = f
}

func SetSafePrintf(f func(string, ...interface{})) {
	sp = f
}

// SetDeveloper toggles DPrintf output.
func SetDeveloper(on bool) {
	developer.Store(on)
}

func Developer() bool {
	return developer.Load()
}

func emit(ev *zerolog.Event, format string, v ...interface{}) {
	ev.Msg(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

func Printf(format string, v ...interface{}) {
	emit(logger.Info(), format, v...)
	if p != nil {
		p(format, v...)
	}
}

// SafePrintf prints without triggering a console redraw.
func SafePrintf(format string, v ...interface{}) {
	emit(logger.Info(), format, v...)
	if sp != nil {
		sp(format, v...)
	} else if p != nil {
		p(format, v...)
	}
}

func DPrintf(format string, v ...interface{}) {
	if !developer.Load() {
		return
	}
	emit(logger.Debug(), format, v...)
	if p != nil {
		p(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	emit(logger.Warn(), format, v...)
	if p != nil {
		p("WARNING: "+format, v...)
	}
}

func Errorf(err error, format string, v ...interface{}) {
	emit(logger.Error().Err(err), format, v...)
	if p != nil {
		p("ERROR: "+format, v...)
	}
}
