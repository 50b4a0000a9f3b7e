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

package induce

import (
	"path/filepath"
	"testing"

	"github.com/extsais/extsais/internal/radixheap"
	"github.com/extsais/extsais/internal/stream"
)

// constPred hands out one fixed predecessor exactly once per (block, offset)
// pair, then reports exhaustion; enough to exercise the predecessor-chase
// path without needing a full classifier fixture.
type constPred struct {
	sym    uint8
	isPlus bool
	left   map[[2]int]int
}

func (p *constPred) Predecessor(blockID, offset int) (int, int, uint8, bool, bool) {
	key := [2]int{blockID, offset}
	if p.left[key] <= 0 {
		return 0, 0, 0, false, false
	}
	p.left[key]--
	return blockID, offset - 1, p.sym, p.isPlus, true
}

func TestSubstringInductorDrainsToCompletion(t *testing.T) {
	dir := t.TempDir()

	h, err := radixheap.New[uint16, uint16](radixheap.Config{
		MaxKey:         255,
		RadixLog:       3,
		BucketMemItems: 4,
		SpillDir:       dir,
		RunID:          "t",
	})
	if err != nil {
		t.Fatalf("radixheap.New: %v", err)
	}
	defer h.Close()

	posW, err := stream.NewWriter[uint16](filepath.Join(dir, "pos.bin"), 256, 2)
	if err != nil {
		t.Fatalf("NewWriter pos: %v", err)
	}
	diffW, err := stream.NewBitWriter(filepath.Join(dir, "diff.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewBitWriter: %v", err)
	}
	countW, err := stream.NewWriter[uint64](filepath.Join(dir, "count.bin"), 256, 2)
	if err != nil {
		t.Fatalf("NewWriter count: %v", err)
	}

	pred := &constPred{sym: 30, isPlus: false, left: map[[2]int]int{{0, 3}: 1, {1, 3}: 1}}

	ind := NewSubstringInductor[uint16, uint16, uint8](h, SubstringInductorConfig[uint16, uint16, uint8]{
		Dir:          MinusStar,
		MaxChar:      255,
		AlphabetSize: 256,
		BlockIDBits:  8,
		OffsetBits:   8,
		Pred:         pred,
		OutputPos:    posW,
		OutputDiff:   diffW,
		OutputCount:  countW,
	})

	ind.Seed(10, 0, 3, true, false)
	ind.Seed(20, 1, 3, true, false)
	ind.Run()

	if err := posW.Close(); err != nil {
		t.Fatalf("close pos: %v", err)
	}
	if err := diffW.Close(); err != nil {
		t.Fatalf("close diff: %v", err)
	}
	if err := countW.Close(); err != nil {
		t.Fatalf("close count: %v", err)
	}

	r, err := stream.NewForwardReader[uint16](filepath.Join(dir, "pos.bin"), 256, 2)
	if err != nil {
		t.Fatalf("NewForwardReader: %v", err)
	}
	defer r.Close()
	n := 0
	for !r.Empty() {
		r.Read()
		n++
	}
	// Two seeded entries plus one chased predecessor per block, since pred
	// reports an L-type predecessor and the inductor runs MinusStar.
	if n < 4 {
		t.Fatalf("expected the 2 seeded entries plus 2 chased predecessors, got %d", n)
	}
}
