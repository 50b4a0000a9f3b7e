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

//go:build !linux

package stream

import "os"

// pread falls back to os.File.ReadAt on platforms without pread(2) wired
// through golang.org/x/sys/unix in this package.
func pread(f *os.File, buf []byte, off int64) (int, error) {
	return f.ReadAt(buf, off)
}

// preallocate is a no-op outside Linux; the file still grows correctly on
// demand, just without the extent-reservation hint.
func preallocate(f *os.File, size int64) error {
	return nil
}
