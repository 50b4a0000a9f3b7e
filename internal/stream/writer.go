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
	"os"
)

// Writer streams elements of type T to a file, buffering writes in the
// background so the foreground producer never blocks on disk latency except
// when every buffer is simultaneously in flight.
type Writer[T any] struct {
	f       *os.File
	p       *pump[T]
	cur     *chunk[T]
	werr    error
	written uint64
}

// NewWriter creates (truncating) the file at path and starts its background
// writer.
func NewWriter[T any](path string, bufBytes, nBuffers int) (*Writer[T], error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("stream: creating %s: %w", path, err)
	}
	n, itemsPerBuf := defaultBuffering[T](bufBytes, nBuffers)
	w := &Writer[T]{f: f, p: newPump[T](n, itemsPerBuf)}
	w.p.wg.Add(1)
	go w.worker()
	w.cur = <-w.p.empty
	return w, nil
}

// NewWriterPrealloc is NewWriter plus a best-effort preallocate hint for the
// file's eventual size, used by callers (such as MultiPartWriter) that know
// a part's byte cap up front and want to avoid one-extent-at-a-time growth
// under concurrent writers sharing a spill directory. A failed preallocate
// is not an error: it is purely an allocation hint.
func NewWriterPrealloc[T any](path string, bufBytes, nBuffers int, reserveBytes int64) (*Writer[T], error) {
	w, err := NewWriter[T](path, bufBytes, nBuffers)
	if err != nil {
		return nil, err
	}
	_ = preallocate(w.f, reserveBytes)
	return w, nil
}

func (w *Writer[T]) worker() {
	defer w.p.wg.Done()
	for {
		select {
		case buf, ok := <-w.p.full:
			if !ok {
				return
			}
			raw := bufferBytes(buf.data[:buf.n])
			if _, err := w.f.Write(raw); err != nil && w.werr == nil {
				w.werr = fmt.Errorf("stream: writing %s: %w", w.f.Name(), err)
			}
			buf.n = 0
			select {
			case w.p.empty <- buf:
			case <-w.p.stop:
				return
			}
		case <-w.p.stop:
			return
		}
	}
}

// Write appends v to the stream.
func (w *Writer[T]) Write(v T) {
	if w.cur.n == len(w.cur.data) {
		w.flushCurrent()
		w.cur = <-w.p.empty
	}
	w.cur.data[w.cur.n] = v
	w.cur.n++
	w.written += uint64(elemSize[T]())
}

// WriteBulk appends every element of vs.
func (w *Writer[T]) WriteBulk(vs []T) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *Writer[T]) flushCurrent() {
	if w.cur.n == 0 {
		return
	}
	w.p.full <- w.cur
	w.cur = nil
}

// BytesWritten returns the total bytes written so far.
func (w *Writer[T]) BytesWritten() uint64 { return w.written }

// Close flushes any pending buffer, stops the background worker, and closes
// the underlying file.
func (w *Writer[T]) Close() error {
	if w.cur != nil {
		w.flushCurrent()
	}
	close(w.p.full)
	w.p.wg.Wait()
	if err := w.f.Close(); err != nil {
		return err
	}
	return w.werr
}
