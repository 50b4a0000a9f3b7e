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

// Package induce implements the external induction state machines driven by
// the monotone radix heap: LMS-substring induction, LMS-suffix induction,
// and final SA emission.
package induce

import "golang.org/x/exp/constraints"

// Flags packs the three status bits the heap's value field carries
// alongside a block id: is_head_plus, is_tail_plus, and is_diff. Callers
// pick V wide enough that blockIDBits+offsetBits+3 <= bit width of V, per the
// width monomorphization policy (see ints.FitsWithSpareBits); Pack does not
// check this, and a flag shifted past the top of V is lost.
type Flags struct {
	HeadPlus bool
	TailPlus bool
	Diff     bool
}

const (
	flagHeadPlus = 1
	flagTailPlus = 2
	flagDiff     = 4
)

// Pack combines a block id and an in-block offset with flags into one heap
// value: blockID in the low blockIDBits bits, offset in the next offsetBits
// bits, and the three status bits above that. Carrying the offset directly
// in the value (rather than an implicit per-block read cursor) makes a heap
// entry self-describing: any predecessor source can answer a query by
// (blockID, offset) alone, so a block with more than one in-flight
// LMS-substring chain never has to multiplex them through a single cursor.
func Pack[V constraints.Unsigned](blockID, offset V, blockIDBits, offsetBits uint, f Flags) V {
	v := blockID | (offset << blockIDBits)
	shift := blockIDBits + offsetBits
	if f.HeadPlus {
		v |= V(flagHeadPlus) << shift
	}
	if f.TailPlus {
		v |= V(flagTailPlus) << shift
	}
	if f.Diff {
		v |= V(flagDiff) << shift
	}
	return v
}

// Unpack splits a heap value back into its block id, offset, and flags.
func Unpack[V constraints.Unsigned](v V, blockIDBits, offsetBits uint) (blockID, offset V, f Flags) {
	blockMask := (V(1) << blockIDBits) - 1
	blockID = v & blockMask
	offset = (v >> blockIDBits) & ((V(1) << offsetBits) - 1)
	shift := blockIDBits + offsetBits
	bits := v >> shift
	f.HeadPlus = bits&flagHeadPlus != 0
	f.TailPlus = bits&flagTailPlus != 0
	f.Diff = bits&flagDiff != 0
	return blockID, offset, f
}
