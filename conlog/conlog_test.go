// SPDX-License-Identifier: GPL-2.0-or-later

package conlog

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrintSinks(t *testing.T) {
	var buf bytes.Buffer
	old := logger
	defer SetLogger(old)
	SetLogger(zerolog.New(&buf))

	var lines []string
	SetPrintf(func(f string, v ...interface{}) { lines = append(lines, fmt.Sprintf(f, v...)) })
	defer SetPrintf(nil)

	Printf("hello %d\n", 1)
	DPrintf("hidden\n")
	SetDeveloper(true)
	DPrintf("shown\n")
	SetDeveloper(false)
	Warnf("careful\n")

	assert.Equal(t, []string{"hello 1\n", "shown\n", "WARNING: careful\n"}, lines)
	assert.Contains(t, buf.String(), `"message":"hello 1"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.NotContains(t, buf.String(), "hidden")
}
