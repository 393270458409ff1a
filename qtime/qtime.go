// SPDX-License-Identifier: GPL-2.0-or-later

// Package qtime is the engine clock.
package qtime

import (
	"time"
)

var (
	startTime = time.Now()
)

func QTime() time.Duration {
	return time.Since(startTime)
}

// Milliseconds since the engine started. It never goes backwards.
func Milliseconds() int {
	return int(QTime() / time.Millisecond)
}
