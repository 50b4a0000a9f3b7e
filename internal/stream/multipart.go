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

import (
	"fmt"
)

// MultiPartWriter is a Writer that rolls over to a new file once the current
// part reaches partBytes, naming parts "<path>.partN" in creation order. It
// exists so very large streams never produce a single file past a caller
// chosen size cap.
type MultiPartWriter[T any] struct {
	path      string
	partBytes int
	bufBytes  int
	nBuffers  int

	cur       *Writer[T]
	curBytes  int
	partCount int
}

// NewMultiPartWriter prepares a multi-part writer. No file is created until
// the first Write call, so a stream that never receives data produces zero
// parts.
func NewMultiPartWriter[T any](path string, partBytes, bufBytes, nBuffers int) *MultiPartWriter[T] {
	return &MultiPartWriter[T]{path: path, partBytes: partBytes, bufBytes: bufBytes, nBuffers: nBuffers}
}

func (w *MultiPartWriter[T]) partPath(i int) string {
	return fmt.Sprintf("%s.part%d", w.path, i)
}

func (w *MultiPartWriter[T]) rollIfNeeded() error {
	if w.cur == nil || w.curBytes >= w.partBytes {
		if w.cur != nil {
			if err := w.cur.Close(); err != nil {
				return err
			}
		}
		wr, err := NewWriterPrealloc[T](w.partPath(w.partCount), w.bufBytes, w.nBuffers, int64(w.partBytes))
		if err != nil {
			return err
		}
		w.cur = wr
		w.curBytes = 0
		w.partCount++
	}
	return nil
}

// Write appends v, rolling over to a new part first if the current part has
// reached its byte cap.
func (w *MultiPartWriter[T]) Write(v T) error {
	if err := w.rollIfNeeded(); err != nil {
		return err
	}
	w.cur.Write(v)
	w.curBytes += elemSize[T]()
	return nil
}

// PartCount returns how many part files have been created so far.
func (w *MultiPartWriter[T]) PartCount() int { return w.partCount }

// Close flushes and closes the current part, if any, and returns the total
// number of parts written.
func (w *MultiPartWriter[T]) Close() (int, error) {
	if w.cur != nil {
		if err := w.cur.Close(); err != nil {
			return w.partCount, err
		}
		w.cur = nil
	}
	return w.partCount, nil
}

// MultiPartBackwardReader consumes a sequence of parts created by
// MultiPartWriter in reverse creation order, reading each part backward
// internally so the concatenation of parts 0..N-1 read forward equals the
// same sequence read by this type in reverse.
type MultiPartBackwardReader[T any] struct {
	path      string
	nextPart  int // next part index to open, counting down
	bufBytes  int
	nBuffers  int
	cur       *BackwardReader[T]
}

// NewMultiPartBackwardReader prepares a reader over partCount parts written
// by a MultiPartWriter sharing the same path and partBytes.
func NewMultiPartBackwardReader[T any](path string, partCount, bufBytes, nBuffers int) *MultiPartBackwardReader[T] {
	return &MultiPartBackwardReader[T]{path: path, nextPart: partCount - 1, bufBytes: bufBytes, nBuffers: nBuffers}
}

func (r *MultiPartBackwardReader[T]) partPath(i int) string {
	return fmt.Sprintf("%s.part%d", r.path, i)
}

func (r *MultiPartBackwardReader[T]) advancePart() error {
	if r.cur != nil {
		r.cur.Close()
		r.cur = nil
	}
	if r.nextPart < 0 {
		return nil
	}
	br, err := NewBackwardReader[T](r.partPath(r.nextPart), r.bufBytes, r.nBuffers)
	if err != nil {
		return err
	}
	r.cur = br
	r.nextPart--
	return nil
}

// Empty reports whether every part has been fully consumed.
func (r *MultiPartBackwardReader[T]) Empty() bool {
	for {
		if r.cur == nil {
			if err := r.advancePart(); err != nil {
				panic(err)
			}
			if r.cur == nil {
				return true
			}
		}
		if !r.cur.Empty() {
			return false
		}
		r.cur.Close()
		r.cur = nil
		if r.nextPart < 0 {
			return true
		}
	}
}

// Read returns the next element in overall-reverse order.
func (r *MultiPartBackwardReader[T]) Read() T {
	if r.Empty() {
		panic("stream: Read past end of multi-part backward stream")
	}
	return r.cur.Read()
}

// Close releases the currently open part, if any.
func (r *MultiPartBackwardReader[T]) Close() error {
	if r.cur != nil {
		return r.cur.Close()
	}
	return nil
}
