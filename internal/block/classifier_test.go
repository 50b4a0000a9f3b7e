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

package block

import "testing"

// classifyWhole types an entire in-memory text as one block, appending a
// sentinel the size of the rest so the reference oracle and Classify share
// the same "last position is L-type" convention.
func classifyWhole(t *testing.T, text []uint8) Classification {
	t.Helper()
	n := len(text)
	types := make([]bool, n+1) // types[n] is the sentinel, Minus
	for i := n - 1; i >= 0; i-- {
		switch {
		case text[i] < sentinelOrSym(text, i+1, n):
			types[i] = bool(Plus)
		case text[i] > sentinelOrSym(text, i+1, n):
			types[i] = bool(Minus)
		default:
			types[i] = types[i+1]
		}
	}
	c := Classify[uint8](text, 0, Minus)
	for i := 0; i < n; i++ {
		if c.IsPlus[i] != types[i] {
			t.Fatalf("position %d: IsPlus=%v, want %v", i, c.IsPlus[i], types[i])
		}
	}
	return c
}

func sentinelOrSym(text []uint8, i, n int) uint8 {
	if i == n {
		return 0
	}
	return text[i]
}

func TestClassifyMississippi(t *testing.T) {
	text := []byte("mississippi")
	c := classifyWhole(t, text)

	// Known L/S typing for "mississippi$": positions 0..10, $ at 11 is L.
	// L=minus(false), S=plus(true).
	want := []bool{false, true, false, false, true, false, false, true, false, false, false}
	for i, w := range want {
		if c.IsPlus[i] != w {
			t.Fatalf("position %d: IsPlus=%v, want %v", i, c.IsPlus[i], w)
		}
	}

	lms := CountLMS(c)
	if lms == 0 {
		t.Fatal("expected at least one LMS position in mississippi")
	}
}

func TestClassifySingleRepeatedChar(t *testing.T) {
	text := []byte("aaaa")
	c := classifyWhole(t, text)
	for i, p := range c.IsPlus {
		if p {
			t.Fatalf("position %d: all-equal text should type every position L (minus), got plus", i)
		}
	}
	if CountLMS(c) != 0 {
		t.Fatal("all-equal text has no internal LMS position")
	}
}

func TestClassifyAlternating(t *testing.T) {
	text := []byte{1, 0, 1, 0, 1, 0}
	c := classifyWhole(t, text)
	if CountLMS(c) == 0 {
		t.Fatal("alternating high/low text should have LMS positions")
	}
}

func TestClassifyEmptyBlock(t *testing.T) {
	c := Classify[uint8](nil, 0, Minus)
	if len(c.IsPlus) != 0 || len(c.IsLMS) != 0 {
		t.Fatal("empty block should classify to empty slices")
	}
}

func TestBoundaryLMS(t *testing.T) {
	if !BoundaryLMS(Plus, Minus) {
		t.Fatal("plus after minus at a block boundary should be LMS")
	}
	if BoundaryLMS(Minus, Minus) {
		t.Fatal("minus position is never LMS")
	}
	if BoundaryLMS(Plus, Plus) {
		t.Fatal("plus after plus is not an L->S transition")
	}
}

func TestBlockCount(t *testing.T) {
	cases := []struct{ n, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 1, 100},
	}
	for _, c := range cases {
		if got := BlockCount(c.n, c.size); got != c.want {
			t.Fatalf("BlockCount(%d, %d) = %d, want %d", c.n, c.size, got, c.want)
		}
	}
}
