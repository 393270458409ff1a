// SPDX-License-Identifier: GPL-2.0-or-later

package math

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Clamp limits val to [min, max].
func Clamp[K Number](min, val, max K) K {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
