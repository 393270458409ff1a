// SPDX-License-Identifier: GPL-2.0-or-later

package cgame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofakk/errs"
)

func TestLoad(t *testing.T) {
	Register("cg", func() *Export { return &Export{APIVersion: APIVersion} })
	Register("cg_old", func() *Export { return &Export{APIVersion: 2} })

	ex, err := Load(t.TempDir(), "cg")
	require.NoError(t, err)
	assert.Equal(t, APIVersion, ex.APIVersion)

	_, err = Load(t.TempDir(), "cg_old")
	assert.True(t, errs.Is(err, errs.VersionMismatch))
	assert.Equal(t, errs.Fatal, errs.CodeOf(err))

	_, err = Load(t.TempDir(), "cg_missing")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestCallRecovers(t *testing.T) {
	err := Call(func() {
		var ex *Export
		ex.Draw2D()
	})
	require.Error(t, err)
	assert.Equal(t, errs.Drop, errs.CodeOf(err))
}
