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

package radixheap

import (
	"math/rand"
	"testing"
)

func newTestHeap(t *testing.T, maxKey uint64, bucketMem int) *Heap[uint32, uint32] {
	t.Helper()
	h, err := New[uint32, uint32](Config{
		MaxKey:         maxKey,
		RadixLog:       3,
		BucketMemItems: bucketMem,
		SpillDir:       t.TempDir(),
		RunID:          "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func TestExtractMinNonDecreasing(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	h := newTestHeap(t, 255, 4)

	const n = 2000
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = uint32(rnd.Intn(256))
		h.Push(keys[i], uint32(i))
	}

	var prev uint32
	seen := 0
	for !h.Empty() {
		k, _ := h.ExtractMin()
		if k < prev {
			t.Fatalf("extracted key %d after %d: not non-decreasing", k, prev)
		}
		prev = k
		seen++
	}
	if seen != n {
		t.Fatalf("extracted %d entries, want %d", seen, n)
	}
}

func TestMinCompareExact(t *testing.T) {
	h := newTestHeap(t, 255, 4)
	h.Push(10, 1)
	h.Push(20, 2)

	if !h.MinCompare(10) {
		t.Fatal("MinCompare(10) should be true when min key is 10")
	}
	if h.MinCompare(9) {
		t.Fatal("MinCompare(9) should be false when min key is 10")
	}

	k, v := h.ExtractMin()
	if k != 10 || v != 1 {
		t.Fatalf("ExtractMin() = (%d, %d), want (10, 1)", k, v)
	}

	if !h.MinCompare(20) {
		t.Fatal("MinCompare(20) should be true when min key is 20")
	}
}

func TestEmptyHeap(t *testing.T) {
	h := newTestHeap(t, 255, 4)
	if !h.Empty() {
		t.Fatal("new heap should be empty")
	}
	if h.MinCompare(0) {
		t.Fatal("MinCompare on empty heap should be false")
	}
}

func TestPushBelowMinPanics(t *testing.T) {
	h := newTestHeap(t, 255, 4)
	h.Push(10, 1)
	h.ExtractMin()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on monotonicity violation")
		}
	}()
	h.Push(5, 2)
}

func TestSpillRoundTrip(t *testing.T) {
	h := newTestHeap(t, 1000, 2) // tiny in-memory capacity forces spills
	const n = 500
	for i := n - 1; i >= 0; i-- {
		h.Push(uint32(i%64), uint32(i))
	}
	var prev uint32
	count := 0
	for !h.Empty() {
		k, _ := h.ExtractMin()
		if k < prev {
			t.Fatalf("non-monotone extraction after spill: %d < %d", k, prev)
		}
		prev = k
		count++
	}
	if count != n {
		t.Fatalf("got %d entries back, want %d", count, n)
	}
	if h.IOVolume() == 0 {
		t.Fatal("expected non-zero IO volume once buckets spilled")
	}
}
