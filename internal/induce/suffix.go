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
	"golang.org/x/exp/constraints"

	"github.com/extsais/extsais/internal/radixheap"
	"github.com/extsais/extsais/internal/stream"
)

// PredecessorSource supplies the predecessor of an explicit (blockID,
// offset) position: its own block id, in-block offset, symbol, and type.
// Addressing is always explicit rather than an implicit per-block read
// cursor, so it serves both SuffixInductor (full suffixes) and
// SubstringInductor (LMS substrings) without either needing to track which
// of several concurrently active chains within one block it is resuming.
type PredecessorSource[T constraints.Unsigned] interface {
	// Predecessor returns the preceding position's block id, in-block
	// offset, symbol, and type, or ok=false at the text start.
	Predecessor(blockID int, offset int) (predBlock int, predOffset int, sym T, isPlus bool, ok bool)
}

// SuffixInductorConfig configures one direction (plus or minus) of the
// final LMS-suffix/SA induction.
type SuffixInductorConfig[K, V constraints.Unsigned, T constraints.Unsigned] struct {
	Dir         Direction
	MaxChar     K
	BlockIDBits uint
	PosBits     uint
	Pred        PredecessorSource[T]
	Count       *stream.ForwardReader[uint64]
	MinusPos    *stream.MultiPartBackwardReader[V]
	Output      *stream.Writer[V]
}

// SuffixInductor runs the count-driven outer loop described for LMS-suffix
// induction: for each character from high to low, drain the heap at that
// character, then admit the minus-star suffixes queued for it.
type SuffixInductor[K, V constraints.Unsigned, T constraints.Unsigned] struct {
	cfg      SuffixInductorConfig[K, V, T]
	heap     *radixheap.Heap[K, V]
	headChar int
}

// NewSuffixInductor creates a SuffixInductor over the given shared heap.
func NewSuffixInductor[K, V constraints.Unsigned, T constraints.Unsigned](heap *radixheap.Heap[K, V], cfg SuffixInductorConfig[K, V, T]) *SuffixInductor[K, V, T] {
	return &SuffixInductor[K, V, T]{cfg: cfg, heap: heap, headChar: int(cfg.MaxChar)}
}

func (s *SuffixInductor[K, V, T]) pack(blockID, offset V) V {
	return blockID | (offset << s.cfg.BlockIDBits)
}

func (s *SuffixInductor[K, V, T]) unpack(v V) (blockID, offset V) {
	mask := (V(1) << s.cfg.BlockIDBits) - 1
	return v & mask, v >> s.cfg.BlockIDBits
}

// pushPredecessorPlus pushes the predecessor of (blockID, offset) found
// while draining the heap (a plus-admitted entry), using the "+1 offset"
// key so it sorts after same-character entries already read from the input
// bucket.
func (s *SuffixInductor[K, V, T]) pushPredecessorPlus(blockID, offset int) {
	predBlock, predOffset, sym, _, ok := s.cfg.Pred.Predecessor(blockID, offset)
	if !ok {
		return
	}
	key := s.cfg.MaxChar - (K(sym) + 1)
	s.heap.Push(key, s.pack(V(predBlock), V(predOffset)))
}

// pushPredecessorMinus pushes the predecessor of (blockID, offset) found
// while admitting queued minus-star suffixes for head character c. Within
// bucket c, plus-suffixes must sort before minus-suffixes, which this key —
// max_char-c rather than the plus path's max_char-(sym+1) — realizes: it
// places the predecessor strictly after every plus-admitted entry already
// queued for bucket c this round.
func (s *SuffixInductor[K, V, T]) pushPredecessorMinus(blockID, offset int, c K) {
	predBlock, predOffset, _, _, ok := s.cfg.Pred.Predecessor(blockID, offset)
	if !ok {
		return
	}
	key := s.cfg.MaxChar - c
	s.heap.Push(key, s.pack(V(predBlock), V(predOffset)))
}

// Step drains one character bucket of the outer loop: every heap entry at
// the current head character, then every queued minus-star suffix for that
// character, then advances head_char downward. It returns false once both
// are exhausted for every remaining character.
func (s *SuffixInductor[K, V, T]) Step() bool {
	if s.headChar < 0 {
		return false
	}
	c := K(s.headChar)
	limit := s.cfg.MaxChar - c

	for !s.heap.Empty() && s.heap.MinCompare(limit) {
		_, v := s.heap.ExtractMin()
		blockID, offset := s.unpack(v)
		s.cfg.Output.Write(s.pack(blockID, offset))
		s.pushPredecessorPlus(int(blockID), int(offset))
	}

	if !s.cfg.Count.Empty() {
		n := s.cfg.Count.Read()
		for i := uint64(0); i < n; i++ {
			v := s.cfg.MinusPos.Read()
			blockID, offset := s.unpack(v)
			s.pushPredecessorMinus(int(blockID), int(offset), c)
		}
	}

	s.headChar--
	return true
}

// Run drains the outer loop to completion.
func (s *SuffixInductor[K, V, T]) Run() {
	for s.Step() {
	}
}
