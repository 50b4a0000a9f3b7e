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

package sais

import (
	"os"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Text describes the immutable, read-only input: a file of n fixed-width
// symbols from an alphabet of size sigma, accessed exclusively through the
// stream layer rather than by random access.
type Text[T constraints.Unsigned] struct {
	Filename string
	Len      int64
	Sigma    int
}

// Open stats filename and validates that its size is a whole multiple of
// sizeof(T), returning a Text describing it. sigma defaults to 256 when 0,
// matching the byte-input default from the external interface.
func Open[T constraints.Unsigned](filename string, sigma int) (Text[T], error) {
	fi, err := os.Stat(filename)
	if err != nil {
		return Text[T]{}, fatal(IO, "stat %s: %w", filename, err)
	}
	var zero T
	sz := int64(unsafe.Sizeof(zero))
	if fi.Size()%sz != 0 {
		return Text[T]{}, fatal(Precondition, "%s size %d is not a multiple of element size %d", filename, fi.Size(), sz)
	}
	if sigma == 0 {
		sigma = 256
	}
	return Text[T]{Filename: filename, Len: fi.Size() / sz, Sigma: sigma}, nil
}

// Comparator is the external, in-scope-boundary collaborator used only to
// validate a finished suffix array against a ground truth during recursion
// base cases; the production comparator (divsufsort) itself is out of
// scope here and supplied by the caller.
type Comparator[T constraints.Unsigned] interface {
	// Less reports whether T[i..n) < T[j..n) lexicographically.
	Less(i, j int64) bool
}

// Recurser produces the sorted order of LMS-suffixes for a reduced string,
// by whatever means the caller chooses (recursive application of this
// package, an in-memory base case, or a different algorithm entirely). The
// recursion driver itself is out of scope; this interface is its seam.
type Recurser interface {
	// Sort returns a permutation of [0, len(reduced)) such that
	// reduced[perm[i]] gives the i-th smallest suffix of reduced, where a
	// suffix that is a proper prefix of another sorts first. saisCore's
	// reduced strings end with a unique minimum sentinel name; runExternal's
	// carry none.
	Sort(reduced []uint32) ([]int32, error)
}

// validateWidth asserts the runtime precondition from the design notes: the
// chosen block-id type must be able to address every block while leaving at
// least 2 spare high bits for status flags.
func validateWidth(widthBits uint, numBlocks int) error {
	if numBlocks <= 0 {
		return fatal(Precondition, "num_blocks must be positive, got %d", numBlocks)
	}
	need := bitsFor(uint64(numBlocks - 1))
	if need+2 > widthBits {
		return fatal(Precondition, "value width %d bits cannot address %d blocks with 2 spare flag bits", widthBits, numBlocks)
	}
	return nil
}

func bitsFor(v uint64) uint {
	n := uint(1)
	for v>>n != 0 {
		n++
	}
	return n
}
