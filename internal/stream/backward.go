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

// BackwardReader streams elements of type T from a file from end to
// beginning. Unlike the C++ original's raw seek-twice bookkeeping, it tracks
// an explicit element frontier and issues positional reads (pread), so the
// background worker never races the foreground over the file's seek offset.
type BackwardReader[T any] struct {
	f        *os.File
	p        *pump[T]
	frontier int // element index one past the next unread element, scanning backward
	cur      *chunk[T]
	pos      int // next index to consume within cur, counting from cur.n down to 0
	eof      bool
	read     uint64
}

// NewBackwardReader opens path, whose size must be a whole multiple of
// sizeof(T), and starts its background reader at the file's tail.
func NewBackwardReader[T any](path string, bufBytes, nBuffers int) (*BackwardReader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: opening %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stream: stat %s: %w", path, err)
	}
	sz := elemSize[T]()
	total := int(fi.Size()) / sz
	n, itemsPerBuf := defaultBuffering[T](bufBytes, nBuffers)
	r := &BackwardReader[T]{f: f, p: newPump[T](n, itemsPerBuf), frontier: total}
	r.p.wg.Add(1)
	go r.worker()
	return r, nil
}

func (r *BackwardReader[T]) worker() {
	defer r.p.wg.Done()
	frontier := r.frontier
	sz := elemSize[T]()
	for {
		select {
		case buf, ok := <-r.p.empty:
			if !ok {
				return
			}
			if frontier == 0 {
				buf.n = 0
				select {
				case r.p.full <- buf:
				case <-r.p.stop:
					return
				}
				close(r.p.full)
				return
			}
			want := len(buf.data)
			if want > frontier {
				want = frontier
			}
			start := frontier - want
			raw := bufferBytes(buf.data[:want])
			if _, err := pread(r.f, raw, int64(start*sz)); err != nil {
				buf.n = 0
			} else {
				buf.n = want
			}
			frontier = start
			select {
			case r.p.full <- buf:
			case <-r.p.stop:
				return
			}
		case <-r.p.stop:
			return
		}
	}
}

func (r *BackwardReader[T]) advance() {
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
	r.pos = buf.n // consume from the tail of the buffer backward
	r.read += uint64(buf.n * elemSize[T]())
}

// Empty reports whether the stream is exhausted.
func (r *BackwardReader[T]) Empty() bool {
	if r.cur != nil && r.pos > 0 {
		return false
	}
	if r.eof {
		return true
	}
	r.advance()
	return r.cur == nil
}

// Read returns the next element in back-to-front order.
func (r *BackwardReader[T]) Read() T {
	if r.Empty() {
		panic("stream: Read past end of backward stream")
	}
	r.pos--
	return r.cur.data[r.pos]
}

// Peek returns the next element in back-to-front order without consuming it.
// It panics if called when Empty() is true.
func (r *BackwardReader[T]) Peek() T {
	if r.Empty() {
		panic("stream: Peek past end of backward stream")
	}
	return r.cur.data[r.pos-1]
}

// BytesRead returns the total bytes read so far.
func (r *BackwardReader[T]) BytesRead() uint64 { return r.read }

// Close stops the background worker and closes the underlying file.
func (r *BackwardReader[T]) Close() error {
	r.p.closeAndJoin()
	return r.f.Close()
}
