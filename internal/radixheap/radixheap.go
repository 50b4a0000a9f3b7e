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

// Package radixheap implements the external-memory monotone radix heap that
// drives every induction pass: a min-priority queue whose extracted keys
// form a non-decreasing sequence, and whose per-bucket queues spill to disk
// when they outgrow their RAM budget.
package radixheap

import (
	"fmt"
	"math/bits"
	"path/filepath"

	"golang.org/x/exp/constraints"
)

// Heap is a monotone radix heap over keys of type K (the symbol alphabet, or
// an alphabet-derived channel) and values of type V (typically a block id,
// possibly carrying status flags in its high bits). K and V are picked by
// the caller to be the narrowest unsigned integer type that fits the run's
// key range and value range respectively, implementing the width
// monomorphization called for in place of the hand-tuned C++ template
// instantiations.
type Heap[K, V constraints.Unsigned] struct {
	radixLog int
	depth    int
	radix    uint64
	maxMem   int // in-memory capacity per bucket, in entries

	rmin    K
	rminU64 uint64
	count   int // total entries across all buckets

	buckets []bucket[K, V]
	queued  []bool
	pending bucketHeap

	spillDir string
	runID    string
	nextSeq  int

	ioVolume uint64
}

// Config controls how a Heap partitions its key range into levels and how
// much RAM each bucket may use before spilling to disk.
type Config struct {
	// MaxKey is the largest key that will ever be pushed, relative to the
	// initial reference key of zero. It determines how many radix levels
	// are needed to cover the whole key range.
	MaxKey uint64
	// RadixLog is the number of bits per level (spec tunable, typically
	// 8-10). Must be at least 1.
	RadixLog int
	// BucketMemItems bounds how many entries a single bucket holds in RAM
	// before its tail is spilled to disk.
	BucketMemItems int
	// SpillDir is the directory spill files are created in.
	SpillDir string
	// RunID prefixes every spill filename so that concurrent runs sharing
	// SpillDir never collide.
	RunID string
}

// New constructs a Heap per cfg. The heap starts with a reference key of
// zero; every subsequent Push must use a key >= the heap's current minimum.
func New[K, V constraints.Unsigned](cfg Config) (*Heap[K, V], error) {
	if cfg.RadixLog <= 0 {
		return nil, fmt.Errorf("radixheap: radix_log must be positive, got %d", cfg.RadixLog)
	}
	if cfg.BucketMemItems <= 0 {
		return nil, fmt.Errorf("radixheap: bucket_mem_items must be positive, got %d", cfg.BucketMemItems)
	}
	keyBits := bits.Len64(cfg.MaxKey)
	if keyBits == 0 {
		keyBits = 1
	}
	depth := (keyBits + cfg.RadixLog - 1) / cfg.RadixLog
	if depth == 0 {
		depth = 1
	}
	radix := uint64(1) << uint(cfg.RadixLog)
	nQueues := depth*(int(radix)-1) + 1

	h := &Heap[K, V]{
		radixLog: cfg.RadixLog,
		depth:    depth,
		radix:    radix,
		maxMem:   cfg.BucketMemItems,
		buckets:  make([]bucket[K, V], nQueues),
		queued:   make([]bool, nQueues),
		spillDir: cfg.SpillDir,
		runID:    cfg.RunID,
	}
	return h, nil
}

// bucketIndex returns the queue index for key relative to the heap's current
// rmin. Index 0 holds exactly the entries at key == rmin; index order
// otherwise matches ascending key-range order, so the smallest non-empty
// index always contains the overall smallest key. A key is placed by the
// highest radix digit in which it differs from rmin and by its own value of
// that digit, so a bucket's index stays valid when rmin advances to the
// minimum of that bucket or of a lower one.
func (h *Heap[K, V]) bucketIndex(key K) int {
	ku := uint64(key)
	if ku == h.rminU64 {
		return 0
	}
	diff := ku ^ h.rminU64
	for l := h.depth; l >= 1; l-- {
		shift := uint(h.radixLog) * uint(l-1)
		if (diff>>shift)&(h.radix-1) != 0 {
			digit := (ku >> shift) & (h.radix - 1)
			return 1 + (l-1)*int(h.radix-1) + int(digit-1)
		}
	}
	panic("radixheap: key distance exceeds configured depth")
}

func (h *Heap[K, V]) spillPath(idx int) func() string {
	return func() string {
		h.nextSeq++
		return filepath.Join(h.spillDir, fmt.Sprintf("%s-radixheap-%d-%d.spill", h.runID, idx, h.nextSeq))
	}
}

// insert places an entry whose key is already known to be >= h.rmin,
// without the monotonicity check Push performs. Used when redistributing a
// bucket's contents during normalize.
func (h *Heap[K, V]) insert(e entry[K, V]) error {
	idx := h.bucketIndex(e.Key)
	if err := h.buckets[idx].append(e, h.maxMem, h.spillPath(idx), &h.ioVolume); err != nil {
		return err
	}
	h.count++
	if !h.queued[idx] {
		h.queued[idx] = true
		h.pending.push(idx)
	}
	return nil
}

// Push inserts (key, value). It is a programmer error to push a key below
// the heap's current minimum; in that case Push panics so the violation is
// caught immediately rather than silently corrupting the induction order.
func (h *Heap[K, V]) Push(key K, value V) {
	if uint64(key) < h.rminU64 {
		panic(fmt.Sprintf("radixheap: monotonicity violated: push(%d) after min advanced to %d", uint64(key), h.rminU64))
	}
	if err := h.insert(entry[K, V]{Key: key, Value: value}); err != nil {
		panic(err)
	}
}

// normalize collapses non-empty buckets above level 0 until either the heap
// is empty or bucket 0 (key == rmin exactly) is the lowest non-empty bucket,
// establishing that h.rmin is the true minimum key currently held.
func (h *Heap[K, V]) normalize() error {
	for {
		idx := -1
		for !h.pending.empty() {
			cand := h.pending.popMin()
			h.queued[cand] = false
			if !h.buckets[cand].empty() {
				idx = cand
				break
			}
		}
		if idx < 0 {
			return nil
		}
		if idx == 0 {
			h.queued[0] = true
			h.pending.push(0)
			return nil
		}
		entries, err := h.buckets[idx].drain(&h.ioVolume)
		if err != nil {
			return err
		}
		h.count -= len(entries)
		newMin := entries[0].Key
		for _, e := range entries[1:] {
			if e.Key < newMin {
				newMin = e.Key
			}
		}
		h.rmin = newMin
		h.rminU64 = uint64(newMin)
		for _, e := range entries {
			if err := h.insert(e); err != nil {
				return err
			}
		}
	}
}

// ExtractMin removes and returns the entry with the smallest key currently
// held. The sequence of keys returned across calls is non-decreasing.
func (h *Heap[K, V]) ExtractMin() (K, V) {
	if err := h.normalize(); err != nil {
		panic(err)
	}
	if h.count == 0 {
		panic("radixheap: ExtractMin called on empty heap")
	}
	e, err := h.buckets[0].popOne(&h.ioVolume)
	if err != nil {
		panic(err)
	}
	h.count--
	if h.buckets[0].empty() {
		h.queued[0] = false
	}
	return e.Key, e.Value
}

// MinCompare reports whether the heap's current minimum key is <= k,
// without extracting anything. An empty heap compares false against any k.
func (h *Heap[K, V]) MinCompare(k K) bool {
	if err := h.normalize(); err != nil {
		panic(err)
	}
	if h.count == 0 {
		return false
	}
	return h.rminU64 <= uint64(k)
}

// Empty reports whether the heap holds no entries.
func (h *Heap[K, V]) Empty() bool {
	return h.count == 0
}

// IOVolume returns the total bytes written to and read from spill files over
// the heap's lifetime.
func (h *Heap[K, V]) IOVolume() uint64 {
	return h.ioVolume
}

// Close releases any spill files still on disk. It is safe to call on an
// empty heap.
func (h *Heap[K, V]) Close() {
	for i := range h.buckets {
		h.buckets[i].close()
	}
}
