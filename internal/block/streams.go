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

package block

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/extsais/extsais/internal/stream"
)

// AuxWriters bundles the per-block auxiliary stream writers produced during
// classification: one bit stream of LMS flags and one position stream per
// block, plus the shared character-bucket count stream.
type AuxWriters[P constraints.Unsigned] struct {
	typeW []*stream.BitWriter
	posW  []*stream.Writer[P]
	count *stream.Writer[uint64]
}

// NewAuxWriters creates the type[k] and pos[k] streams for blocks
// [0, numBlocks) plus the shared count stream, all rooted at dir with the
// given prefix.
func NewAuxWriters[P constraints.Unsigned](dir, prefix string, numBlocks, bufBytes int) (*AuxWriters[P], error) {
	a := &AuxWriters[P]{
		typeW: make([]*stream.BitWriter, numBlocks),
		posW:  make([]*stream.Writer[P], numBlocks),
	}
	for k := 0; k < numBlocks; k++ {
		tw, err := stream.NewBitWriter(fmt.Sprintf("%s/%s-type-%d.bin", dir, prefix, k), bufBytes, 2)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.typeW[k] = tw
		pw, err := stream.NewWriter[P](fmt.Sprintf("%s/%s-pos-%d.bin", dir, prefix, k), bufBytes, 2)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.posW[k] = pw
	}
	cw, err := stream.NewWriter[uint64](fmt.Sprintf("%s/%s-count.bin", dir, prefix), bufBytes, 2)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.count = cw
	return a, nil
}

// WriteLMSBit appends the LMS flag for the next S-position of block k.
func (a *AuxWriters[P]) WriteLMSBit(k int, isLMS bool) {
	a.typeW[k].WriteBit(isLMS)
}

// WritePos appends the in-block offset of an S-position of block k.
func (a *AuxWriters[P]) WritePos(k int, offset P) {
	a.posW[k].Write(offset)
}

// WriteCount appends one character bucket's count to the shared count
// stream, in descending character order as produced by classification.
func (a *AuxWriters[P]) WriteCount(n uint64) {
	a.count.Write(n)
}

// Close closes every underlying writer, returning the first error
// encountered.
func (a *AuxWriters[P]) Close() error {
	var first error
	for _, w := range a.typeW {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, w := range a.posW {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.count != nil {
		if err := a.count.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
