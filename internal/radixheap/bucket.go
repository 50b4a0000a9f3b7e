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
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/exp/constraints"
)

// entry is one (key, value) pair held by a bucket.
type entry[K, V constraints.Unsigned] struct {
	Key   K
	Value V
}

// bucket holds the entries currently assigned to one radix-heap queue. Once
// the in-memory ring fills past maxMem items, the tail is appended to an
// on-disk spill file; on drain, the file is read back before the remaining
// in-memory tail, per the spill discipline in the radix-heap design.
type bucket[K, V constraints.Unsigned] struct {
	mem       []entry[K, V]
	file      *os.File
	path      string
	spillSize int // entries currently resident in file
}

func (b *bucket[K, V]) empty() bool {
	return len(b.mem) == 0 && b.spillSize == 0
}

func (b *bucket[K, V]) size() int {
	return len(b.mem) + b.spillSize
}

// append adds e to the bucket, spilling the current memory contents to disk
// first if the bucket has reached its in-memory capacity.
func (b *bucket[K, V]) append(e entry[K, V], maxMem int, pathFn func() string, io *uint64) error {
	if len(b.mem) >= maxMem {
		if err := b.spill(pathFn, io); err != nil {
			return err
		}
	}
	b.mem = append(b.mem, e)
	return nil
}

func (b *bucket[K, V]) spill(pathFn func() string, io *uint64) error {
	if b.file == nil {
		b.path = pathFn()
		f, err := os.OpenFile(b.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("radixheap: opening spill file: %w", err)
		}
		b.file = f
	}
	if _, err := b.file.Seek(0, 2); err != nil {
		return fmt.Errorf("radixheap: seeking spill file: %w", err)
	}
	buf := make([]byte, 16*len(b.mem))
	for i, e := range b.mem {
		binary.LittleEndian.PutUint64(buf[i*16:], uint64(e.Key))
		binary.LittleEndian.PutUint64(buf[i*16+8:], uint64(e.Value))
	}
	if _, err := b.file.Write(buf); err != nil {
		return fmt.Errorf("radixheap: writing spill file: %w", err)
	}
	*io += uint64(len(buf))
	b.spillSize += len(b.mem)
	b.mem = b.mem[:0]
	return nil
}

// drain returns (and removes) every entry held by the bucket, reading back
// any spilled buffer first.
func (b *bucket[K, V]) drain(io *uint64) ([]entry[K, V], error) {
	out := make([]entry[K, V], 0, b.size())
	if b.spillSize > 0 {
		if _, err := b.file.Seek(0, 0); err != nil {
			return nil, fmt.Errorf("radixheap: seeking spill file: %w", err)
		}
		buf := make([]byte, 16*b.spillSize)
		if _, err := readFull(b.file, buf); err != nil {
			return nil, fmt.Errorf("radixheap: reading spill file: %w", err)
		}
		*io += uint64(len(buf))
		for i := 0; i < b.spillSize; i++ {
			out = append(out, entry[K, V]{
				Key:   K(binary.LittleEndian.Uint64(buf[i*16:])),
				Value: V(binary.LittleEndian.Uint64(buf[i*16+8:])),
			})
		}
		b.spillSize = 0
		b.file.Close()
		os.Remove(b.path)
		b.file = nil
	}
	out = append(out, b.mem...)
	b.mem = b.mem[:0]
	return out, nil
}

// popOne removes and returns a single entry; used only on bucket 0, whose
// members all carry the exact current minimum key, so any one will do.
func (b *bucket[K, V]) popOne(io *uint64) (entry[K, V], error) {
	if len(b.mem) == 0 && b.spillSize > 0 {
		entries, err := b.drain(io)
		if err != nil {
			return entry[K, V]{}, err
		}
		b.mem = entries
	}
	e := b.mem[len(b.mem)-1]
	b.mem = b.mem[:len(b.mem)-1]
	return e, nil
}

func (b *bucket[K, V]) close() {
	if b.file != nil {
		b.file.Close()
		os.Remove(b.path)
		b.file = nil
	}
}

func readFull(f *os.File, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := f.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
