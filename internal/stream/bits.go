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

package stream

import "fmt"

// BitWriter packs single-bit values eight to a byte, LSB first, on top of a
// forward byte Writer. Used for the per-position diff and LMS bit arrays,
// which would otherwise waste seven bits per element.
type BitWriter struct {
	w    *Writer[byte]
	cur  byte
	nbit uint
}

// NewBitWriter creates path and starts its background writer.
func NewBitWriter(path string, bufBytes, nBuffers int) (*BitWriter, error) {
	w, err := NewWriter[byte](path, bufBytes, nBuffers)
	if err != nil {
		return nil, err
	}
	return &BitWriter{w: w}, nil
}

// WriteBit appends a single bit.
func (bw *BitWriter) WriteBit(b bool) {
	if b {
		bw.cur |= 1 << bw.nbit
	}
	bw.nbit++
	if bw.nbit == 8 {
		bw.w.Write(bw.cur)
		bw.cur = 0
		bw.nbit = 0
	}
}

// Close flushes any partial trailing byte and closes the underlying writer.
func (bw *BitWriter) Close() error {
	if bw.nbit != 0 {
		bw.w.Write(bw.cur)
	}
	return bw.w.Close()
}

// BitReader unpacks a BitWriter's output one bit at a time, in the same
// order they were written.
type BitReader struct {
	r    *ForwardReader[byte]
	cur  byte
	nbit uint
}

// NewBitReader opens path and starts its background reader.
func NewBitReader(path string, bufBytes, nBuffers int) (*BitReader, error) {
	r, err := NewForwardReader[byte](path, bufBytes, nBuffers)
	if err != nil {
		return nil, err
	}
	return &BitReader{r: r, nbit: 8}, nil
}

// Empty reports whether every bit has been consumed.
func (br *BitReader) Empty() bool {
	return br.nbit == 8 && br.r.Empty()
}

// ReadBit returns the next bit.
func (br *BitReader) ReadBit() bool {
	if br.nbit == 8 {
		br.cur = br.r.Read()
		br.nbit = 0
	}
	b := (br.cur>>br.nbit)&1 != 0
	br.nbit++
	return b
}

// Close closes the underlying reader.
func (br *BitReader) Close() error { return br.r.Close() }

// MultiBitReader backward-consumes N independent bit streams, one per
// partition of a bit array split across several files, such as a per-block
// plus_type array. It mirrors the original's N-way async backward bit
// stream reader, where each partition is exhausted independently and the
// caller selects which partition to pull from next.
type MultiBitReader struct {
	parts []*multiBitPart
}

type multiBitPart struct {
	r    *BackwardReader[byte]
	cur  byte
	nbit uint
	have bool
}

// NewMultiBitReader opens n backward bit readers over files named
// fmt.Sprintf(pathFmt, i) for i in [0, n).
func NewMultiBitReader(pathFmt string, n, bufBytes, nBuffers int) (*MultiBitReader, error) {
	m := &MultiBitReader{parts: make([]*multiBitPart, n)}
	for i := 0; i < n; i++ {
		r, err := NewBackwardReader[byte](fmt.Sprintf(pathFmt, i), bufBytes, nBuffers)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.parts[i] = &multiBitPart{r: r}
	}
	return m, nil
}

// Empty reports whether partition i is exhausted.
func (m *MultiBitReader) Empty(i int) bool {
	p := m.parts[i]
	return p.nbit == 0 && !p.have && p.r.Empty()
}

// ReadBit returns the next bit (in backward order) from partition i.
func (m *MultiBitReader) ReadBit(i int) bool {
	p := m.parts[i]
	if !p.have {
		p.cur = p.r.Read()
		p.nbit = 8
		p.have = true
	}
	p.nbit--
	b := (p.cur>>p.nbit)&1 != 0
	if p.nbit == 0 {
		p.have = false
	}
	return b
}

// Close closes every partition's underlying reader.
func (m *MultiBitReader) Close() error {
	var first error
	for _, p := range m.parts {
		if p == nil {
			continue
		}
		if err := p.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
