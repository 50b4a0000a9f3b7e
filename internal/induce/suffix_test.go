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

// onePredecessor hands out a single fixed predecessor for one (block,
// offset) pair, then reports exhaustion for everything else; enough to
// exercise SuffixInductor's predecessor-push path without a full position
// table.
type onePredecessor struct {
	fromBlock, fromOffset int
	toBlock, toOffset     int
	sym                   uint8
	used                  bool
}

func (p *onePredecessor) Predecessor(blockID, offset int) (int, int, uint8, bool, bool) {
	if p.used || blockID != p.fromBlock || offset != p.fromOffset {
		return 0, 0, 0, false, false
	}
	p.used = true
	return p.toBlock, p.toOffset, p.sym, true, true
}

func TestSuffixInductorDrainsHeapEntriesAtHeadChar(t *testing.T) {
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

	outW, err := stream.NewWriter[uint16](filepath.Join(dir, "out.bin"), 256, 2)
	if err != nil {
		t.Fatalf("NewWriter out: %v", err)
	}
	countW, err := stream.NewWriter[uint64](filepath.Join(dir, "count.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewWriter count: %v", err)
	}
	// Every count is zero, so the minus-admission path is not exercised by
	// this test.
	for i := 0; i < 256; i++ {
		countW.Write(0)
	}
	if err := countW.Close(); err != nil {
		t.Fatalf("close count: %v", err)
	}

	countR, err := stream.NewForwardReader[uint64](filepath.Join(dir, "count.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewForwardReader count: %v", err)
	}
	defer countR.Close()

	pred := &onePredecessor{fromBlock: 0, fromOffset: 5, toBlock: 0, toOffset: 4, sym: 10}

	ind := NewSuffixInductor[uint16, uint16, uint8](h, SuffixInductorConfig[uint16, uint16, uint8]{
		Dir:         MinusStar,
		MaxChar:     255,
		BlockIDBits: 8,
		PosBits:     8,
		Pred:        pred,
		Count:       countR,
		Output:      outW,
	})

	// Seed directly at the head character (255) so the very first Step call
	// drains it immediately.
	packed := uint16(0) | (uint16(5) << 8)
	h.Push(0, packed)

	ind.Run()

	if err := outW.Close(); err != nil {
		t.Fatalf("close out: %v", err)
	}

	outR, err := stream.NewForwardReader[uint16](filepath.Join(dir, "out.bin"), 256, 2)
	if err != nil {
		t.Fatalf("NewForwardReader out: %v", err)
	}
	defer outR.Close()

	n := 0
	for !outR.Empty() {
		outR.Read()
		n++
	}
	if n < 1 {
		t.Fatalf("expected at least the seeded entry to be emitted, got %d", n)
	}
	if !pred.used {
		t.Fatal("expected the seeded entry's predecessor to be pushed back onto the heap")
	}
}

func TestSuffixInductorStepFalseWhenExhausted(t *testing.T) {
	dir := t.TempDir()

	h, err := radixheap.New[uint16, uint16](radixheap.Config{
		MaxKey:         3,
		RadixLog:       1,
		BucketMemItems: 4,
		SpillDir:       dir,
		RunID:          "t2",
	})
	if err != nil {
		t.Fatalf("radixheap.New: %v", err)
	}
	defer h.Close()

	outW, err := stream.NewWriter[uint16](filepath.Join(dir, "out2.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewWriter out: %v", err)
	}
	countW, err := stream.NewWriter[uint64](filepath.Join(dir, "count2.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewWriter count: %v", err)
	}
	for i := 0; i < 4; i++ {
		countW.Write(0)
	}
	if err := countW.Close(); err != nil {
		t.Fatalf("close count: %v", err)
	}
	countR, err := stream.NewForwardReader[uint64](filepath.Join(dir, "count2.bin"), 64, 2)
	if err != nil {
		t.Fatalf("NewForwardReader count: %v", err)
	}
	defer countR.Close()

	ind := NewSuffixInductor[uint16, uint16, uint8](h, SuffixInductorConfig[uint16, uint16, uint8]{
		Dir:         MinusStar,
		MaxChar:     3,
		BlockIDBits: 8,
		PosBits:     8,
		Pred:        &onePredecessor{},
		Count:       countR,
		Output:      outW,
	})

	steps := 0
	for ind.Step() {
		steps++
		if steps > 10 {
			t.Fatal("Step did not converge to false")
		}
	}
	if steps != 4 {
		t.Fatalf("expected 4 steps (one per character 3..0), got %d", steps)
	}
	if err := outW.Close(); err != nil {
		t.Fatalf("close out: %v", err)
	}
}
