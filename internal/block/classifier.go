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

// Package block implements the backward-scanning classifier that turns a
// block of text into its L/S typing, LMS bits, and the per-block auxiliary
// streams the induction state machines consume.
package block

import (
	"golang.org/x/exp/constraints"

	"github.com/extsais/extsais/ints"
)

// Type is a suffix's L/S classification. S (plus) suffixes are
// lexicographically smaller than their successor; L (minus) suffixes are
// the complement.
type Type bool

const (
	Minus Type = false // L-type
	Plus  Type = true  // S-type
)

// Classification holds the per-position results of classifying one block:
// the suffix type and the LMS ("star") bit for every position in the block,
// indexed from the block's first position.
type Classification struct {
	IsPlus []bool
	IsLMS  []bool
}

// Classify runs the backward scan over one block of symbols, given the
// symbol immediately following the block's last position (firstOfNext) and
// the suffix type of that following position (typeOfNext). It returns the
// classification for every position in block, in text order.
//
// The scan direction is mandatory: position i's type depends on i+1's type,
// so the block must be typed from its last position backward to its first.
//
// Classify cannot resolve the LMS bit of the block's own first position,
// since that depends on the type of the preceding block's last position;
// the caller stitches that single boundary bit in using the previous
// block's final Type.
func Classify[T constraints.Unsigned](symbols []T, firstOfNext T, typeOfNext Type) Classification {
	n := len(symbols)
	c := Classification{
		IsPlus: make([]bool, n),
		IsLMS:  make([]bool, n),
	}
	if n == 0 {
		return c
	}

	rightSym := firstOfNext
	rightType := typeOfNext
	for i := n - 1; i >= 0; i-- {
		sym := symbols[i]
		var t Type
		switch {
		case sym < rightSym:
			t = Plus
		case sym > rightSym:
			t = Minus
		default:
			t = rightType
		}
		c.IsPlus[i] = bool(t)
		// The L->S transition at i, i+1 marks i+1 as LMS; this can only be
		// decided once i's type (the predecessor) is known.
		if i+1 < n && t == Minus && c.IsPlus[i+1] {
			c.IsLMS[i+1] = true
		}
		rightSym = sym
		rightType = t
	}
	return c
}

// BoundaryLMS reports whether a block's first position is LMS, given the
// first position's own type and the type of the last position of the
// preceding block.
func BoundaryLMS(firstOfBlock Type, lastOfPrev Type) bool {
	return firstOfBlock == Plus && lastOfPrev == Minus
}

// LastPositionType returns the suffix type of the text's final position,
// which is L-type (Minus) by convention.
func LastPositionType() Type { return Minus }

// CountLMS returns the number of LMS positions a Classification marks.
func CountLMS(c Classification) int {
	n := 0
	for _, b := range c.IsLMS {
		if b {
			n++
		}
	}
	return n
}

// BlockCount returns the number of blocks needed to cover n positions at
// the given block size.
func BlockCount(n, blockSize int) int {
	return int(ints.ChunkCount(uint(n), uint(blockSize)))
}
