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

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []struct {
		blockID uint32
		offset  uint32
		f       Flags
	}{
		{0, 0, Flags{}},
		{42, 3, Flags{HeadPlus: true}},
		{42, 0, Flags{TailPlus: true}},
		{42, 17, Flags{Diff: true}},
		{1000, 255, Flags{HeadPlus: true, TailPlus: true, Diff: true}},
	}
	const blockIDBits, offsetBits = 20, 10
	for _, c := range cases {
		v := Pack[uint32](c.blockID, c.offset, blockIDBits, offsetBits, c.f)
		gotID, gotOff, gotF := Unpack[uint32](v, blockIDBits, offsetBits)
		if gotID != c.blockID {
			t.Fatalf("block id: got %d, want %d", gotID, c.blockID)
		}
		if gotOff != c.offset {
			t.Fatalf("offset: got %d, want %d", gotOff, c.offset)
		}
		if gotF != c.f {
			t.Fatalf("flags: got %+v, want %+v", gotF, c.f)
		}
	}
}

func TestMaxFieldsFitBelowFlagBits(t *testing.T) {
	// max(block_id) and max(offset) must be representable in their
	// respective bit widths so the flag bits packed above them never
	// collide with either field.
	const blockIDBits, offsetBits = 8, 8
	maxID := uint32(1<<blockIDBits) - 1
	maxOff := uint32(1<<offsetBits) - 1
	v := Pack[uint32](maxID, maxOff, blockIDBits, offsetBits, Flags{HeadPlus: true, TailPlus: true, Diff: true})
	gotID, gotOff, gotF := Unpack[uint32](v, blockIDBits, offsetBits)
	if gotID != maxID {
		t.Fatalf("block id corrupted by flags: got %d, want %d", gotID, maxID)
	}
	if gotOff != maxOff {
		t.Fatalf("offset corrupted by flags: got %d, want %d", gotOff, maxOff)
	}
	if !gotF.HeadPlus || !gotF.TailPlus || !gotF.Diff {
		t.Fatalf("flags lost: %+v", gotF)
	}
}
