// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	gmath "math"
)

// Round rounds half away from zero.
func Round(x float32) float32 {
	return float32(gmath.Round(float64(x)))
}

func Trunc(x float32) float32 {
	return float32(gmath.Trunc(float64(x)))
}

// IsIntegral reports whether x has no fractional part.
func IsIntegral(x float32) bool {
	return float32(int32(x)) == x
}
