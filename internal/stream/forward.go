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

// ForwardReader streams elements of type T from a file from beginning to
// end. Reads past EOF are not an error; Empty reports true instead.
type ForwardReader[T any] struct {
	f    *os.File
	p    *pump[T]
	cur  *chunk[T]
	pos  int
	eof  bool
	read uint64
}

// NewForwardReader opens path and starts its background reader. bufBytes is
// the total buffering budget across nBuffers buffers (typically 4).
func NewForwardReader[T any](path string, bufBytes, nBuffers int) (*ForwardReader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: opening %s: %w", path, err)
	}
	n, itemsPerBuf := defaultBuffering[T](bufBytes, nBuffers)
	r := &ForwardReader[T]{f: f, p: newPump[T](n, itemsPerBuf)}
	r.p.wg.Add(1)
	go r.worker()
	return r, nil
}

func (r *ForwardReader[T]) worker() {
	defer r.p.wg.Done()
	for {
		select {
		case buf, ok := <-r.p.empty:
			if !ok {
				return
			}
			raw := bufferBytes(buf.data)
			n, _ := readAtLeast(r.f, raw)
			buf.n = n / elemSize[T]()
			select {
			case r.p.full <- buf:
			case <-r.p.stop:
				return
			}
			if buf.n == 0 {
				close(r.p.full)
				return
			}
		case <-r.p.stop:
			return
		}
	}
}

// readAtLeast reads until buf is full, the file is exhausted, or an error
// occurs, returning the number of bytes actually read. A short final read
// at EOF is not an error.
func readAtLeast(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

func (r *ForwardReader[T]) advance() {
	if r.cur != nil {
		r.p.empty <- r.cur
		r.cur = nil
	}
	if r.eof {
		return
	}
	buf, ok := <-r.p.full
	if !ok || buf.n == 0 {
		r.eof = true
		return
	}
	r.cur = buf
	r.pos = 0
	r.read += uint64(buf.n * elemSize[T]())
}

// Empty reports whether the stream is exhausted.
func (r *ForwardReader[T]) Empty() bool {
	if r.cur != nil && r.pos < r.cur.n {
		return false
	}
	if r.eof {
		return true
	}
	r.advance()
	return r.cur == nil
}

// Read returns the next element. It panics if called when Empty() is true;
// callers are expected to check Empty first, matching the element-at-a-time
// contract of the async readers.
func (r *ForwardReader[T]) Read() T {
	if r.Empty() {
		panic("stream: Read past end of forward stream")
	}
	v := r.cur.data[r.pos]
	r.pos++
	return v
}

// Peek returns the next element without consuming it. It panics if called
// when Empty() is true.
func (r *ForwardReader[T]) Peek() T {
	if r.Empty() {
		panic("stream: Peek past end of forward stream")
	}
	return r.cur.data[r.pos]
}

// ReadBulk fills dest with up to len(dest) elements, returning how many were
// actually available.
func (r *ForwardReader[T]) ReadBulk(dest []T) int {
	n := 0
	for n < len(dest) && !r.Empty() {
		dest[n] = r.Read()
		n++
	}
	return n
}

// BytesRead returns the total bytes read so far.
func (r *ForwardReader[T]) BytesRead() uint64 { return r.read }

// Close stops the background worker and closes the underlying file.
func (r *ForwardReader[T]) Close() error {
	r.p.closeAndJoin()
	return r.f.Close()
}
