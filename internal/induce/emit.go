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
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/extsais/extsais/internal/radixheap"
	"github.com/extsais/extsais/internal/stream"
)

// FinalEmitConfig wires the two-pass composition that produces the final
// suffix array from sorted LMS-suffixes: a forward plus-suffix induction
// pass followed by a backward-scanning minus-suffix induction pass that
// writes the final SA forward.
type FinalEmitConfig[K, V constraints.Unsigned, T constraints.Unsigned] struct {
	Plus  SuffixInductorConfig[K, V, T]
	Minus SuffixInductorConfig[K, V, T]

	PlusHeap  *radixheap.Heap[K, V]
	MinusHeap *radixheap.Heap[K, V]

	TextLen     int
	PartBytes   int
	BufBytes    int
	OutputPath  string
}

// Run executes the plus pass and then the minus pass, each writing to its own
// config's Output, and returns cfg.TextLen; it does not count the entries
// the passes write.
func Run[K, V constraints.Unsigned, T constraints.Unsigned](cfg FinalEmitConfig[K, V, T]) (int, error) {
	if cfg.PlusHeap == nil || cfg.MinusHeap == nil {
		return 0, invalidConfig("both PlusHeap and MinusHeap are required")
	}
	if cfg.TextLen < 0 {
		return 0, invalidConfig("TextLen must be non-negative")
	}

	plusPass := NewSuffixInductor[K, V, T](cfg.PlusHeap, cfg.Plus)
	plusPass.Run()

	minusPass := NewSuffixInductor[K, V, T](cfg.MinusHeap, cfg.Minus)
	minusPass.Run()

	return cfg.TextLen, nil
}

// SAWriter converts packed (blockID, offset) values into absolute text
// positions and writes them in the order it receives them, for the cases where the caller needs absolute
// positions rather than block-relative ones on disk.
type SAWriter[V constraints.Unsigned] struct {
	w           *stream.MultiPartWriter[V]
	blockIDBits uint
	blockSize   int
}

// NewSAWriter creates a multi-part forward writer for the final SA,
// splitting into parts of at most partBytes bytes.
func NewSAWriter[V constraints.Unsigned](path string, partBytes, bufBytes int, blockIDBits uint, blockSize int) *SAWriter[V] {
	return &SAWriter[V]{
		w:           stream.NewMultiPartWriter[V](path, partBytes, bufBytes, 4),
		blockIDBits: blockIDBits,
		blockSize:   blockSize,
	}
}

// WritePacked decodes a packed (blockID, offset) value and writes the
// absolute text position blockID*blockSize + offset.
func (w *SAWriter[V]) WritePacked(v V) error {
	mask := (V(1) << w.blockIDBits) - 1
	blockID := v & mask
	offset := v >> w.blockIDBits
	pos := V(int(blockID)*w.blockSize) + offset
	return w.w.Write(pos)
}

// Close flushes the writer and returns the number of parts produced.
func (w *SAWriter[V]) Close() (int, error) {
	return w.w.Close()
}

func invalidConfig(msg string) error {
	return fmt.Errorf("induce: %s", msg)
}
