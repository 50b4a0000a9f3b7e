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

// MultiStreamWriter fans a single logical stream out across n independent
// files, one forward Writer per partition, each with its own background
// worker. Partitions are addressed by index rather than interleaved into
// one file.
type MultiStreamWriter[T any] struct {
	writers []*Writer[T]
}

// NewMultiStreamWriter creates n files named fmt.Sprintf(pathFmt, i) and
// starts their writers. bufBytes is split evenly across partitions.
func NewMultiStreamWriter[T any](pathFmt string, n, bufBytes, nBuffers int) (*MultiStreamWriter[T], error) {
	m := &MultiStreamWriter[T]{writers: make([]*Writer[T], n)}
	perStream := bufBytes / n
	if perStream < 1 {
		perStream = 1
	}
	for i := 0; i < n; i++ {
		w, err := NewWriter[T](fmt.Sprintf(pathFmt, i), perStream, nBuffers)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.writers[i] = w
	}
	return m, nil
}

// WriteToFile appends v to partition i.
func (m *MultiStreamWriter[T]) WriteToFile(i int, v T) {
	m.writers[i].Write(v)
}

// Close flushes and closes every partition.
func (m *MultiStreamWriter[T]) Close() error {
	var first error
	for _, w := range m.writers {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MultiStreamReader is the forward-reading counterpart of
// MultiStreamWriter: n independent partitions, each addressed by index.
type MultiStreamReader[T any] struct {
	readers []*ForwardReader[T]
}

// NewMultiStreamReader opens n files named fmt.Sprintf(pathFmt, i).
func NewMultiStreamReader[T any](pathFmt string, n, bufBytes, nBuffers int) (*MultiStreamReader[T], error) {
	m := &MultiStreamReader[T]{readers: make([]*ForwardReader[T], n)}
	perStream := bufBytes / n
	if perStream < 1 {
		perStream = 1
	}
	for i := 0; i < n; i++ {
		r, err := NewForwardReader[T](fmt.Sprintf(pathFmt, i), perStream, nBuffers)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.readers[i] = r
	}
	return m, nil
}

// EmptyFile reports whether partition i is exhausted.
func (m *MultiStreamReader[T]) EmptyFile(i int) bool {
	return m.readers[i].Empty()
}

// ReadFromFile returns the next element of partition i.
func (m *MultiStreamReader[T]) ReadFromFile(i int) T {
	return m.readers[i].Read()
}

// Close closes every partition's underlying reader.
func (m *MultiStreamReader[T]) Close() error {
	var first error
	for _, r := range m.readers {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
