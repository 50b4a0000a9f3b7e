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

//go:build linux

package stream

import (
	"os"

	"golang.org/x/sys/unix"
)

// pread issues a raw positional read via the pread(2) syscall instead of
// os.File.ReadAt, avoiding ReadAt's extra Seek-free-but-still-locked path
// through the runtime poller on some platforms for files this package never
// treats as pollable (plain regular files, never pipes or sockets).
func pread(f *os.File, buf []byte, off int64) (int, error) {
	return unix.Pread(int(f.Fd()), buf, off)
}

// preallocate reserves size bytes for f starting at offset 0, without
// changing the file's size, so a multi-part writer's part file never needs
// to grow one extent at a time under concurrent writers sharing the same
// spill directory.
func preallocate(f *os.File, size int64) error {
	if size <= 0 {
		return nil
	}
	return unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
