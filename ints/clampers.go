// Copyright (C) 2026 The extsais Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package ints provides the generic integer-width helpers used to
// monomorphize the radix heap and block bookkeeping over
// uint8/uint16/uint32/uint64 value types, in place of a C++ template parameter pack.
package ints

import (
	"golang.org/x/exp/constraints"
)

// Min returns the smaller of x and y.
func Min[T constraints.Integer](x, y T) T {
	if x <= y {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func Max[T constraints.Integer](x, y T) T {
	if x >= y {
		return x
	}
	return y
}

// Clamp returns x bounded to [lo, hi].
func Clamp[T constraints.Integer](x, lo, hi T) T {
	return Max(lo, Min(x, hi))
}

// BitSize returns the bit width of T.
func BitSize[T constraints.Integer]() uint {
	var v T
	switch any(v).(type) {
	case uint8, int8:
		return 8
	case uint16, int16:
		return 16
	case uint32, int32:
		return 32
	default:
		return 64
	}
}

// FitsWithSpareBits reports whether max can be represented in T while
// leaving at least spareBits free at the top of the range, as required when
// packing status flags into the high bits of a radix-heap value field.
func FitsWithSpareBits[T constraints.Unsigned](max uint64, spareBits uint) bool {
	width := BitSize[T]()
	if width <= spareBits {
		return max == 0
	}
	if width-spareBits >= 64 {
		return true
	}
	limit := uint64(1)<<(width-spareBits) - 1
	return max <= limit
}
