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

package sais

import "sort"

// saisCore computes the suffix array of symbols (values in [0, sigma)) by
// classic two-pass induced sorting: induce LMS-substring order, name the
// substrings, resolve ties for non-unique names via recurse, then induce
// the full suffix array from the now fully-ordered LMS suffixes.
//
// The returned array excludes the implicit end-of-string sentinel this
// function appends internally, matching the no-sentinel convention used
// throughout this package.
//
// recurse is consulted only when LMS-substring names are not already
// unique; it receives the reduced name string in LMS text order, ending
// with the sentinel's name 0, which is unique and smallest, and must return
// the permutation that sorts its suffixes (the sentinel's index first). Run
// passes Config.Recurser's Sort here, SaisCoreRecurser's by default.
func saisCore(symbols []int32, sigma int, recurse func([]uint32) ([]int32, error)) ([]int32, error) {
	n := len(symbols)
	if n == 0 {
		return []int32{}, nil
	}
	if n == 1 {
		return []int32{0}, nil
	}

	// S is symbols shifted up by one with an explicit sentinel (value 0,
	// strictly smallest) appended, so every position including the real
	// text's last one can be typed uniformly against a real successor.
	N := n + 1
	K := sigma + 1
	s := make([]int32, N)
	for i, v := range symbols {
		s[i] = v + 1
	}
	s[n] = 0

	sa, err := saisExtended(s, K, recurse)
	if err != nil {
		return nil, err
	}
	// sa[0] is always the sentinel position n; drop it.
	return sa[1:], nil
}

// saisExtended runs one level of induced sorting over s (already containing
// its own trailing sentinel) and alphabet size K, returning the suffix
// array of s including the sentinel at sa[0].
func saisExtended(s []int32, K int, recurse func([]uint32) ([]int32, error)) ([]int32, error) {
	n := len(s)

	isS := make([]bool, n)
	isS[n-1] = true
	for i := n - 2; i >= 0; i-- {
		switch {
		case s[i] < s[i+1]:
			isS[i] = true
		case s[i] > s[i+1]:
			isS[i] = false
		default:
			isS[i] = isS[i+1]
		}
	}
	isLMS := func(i int) bool {
		return i > 0 && isS[i] && !isS[i-1]
	}

	cnt := make([]int, K)
	for _, v := range s {
		cnt[v]++
	}
	bucketEnds := func() []int {
		b := make([]int, K)
		sum := 0
		for c := 0; c < K; c++ {
			sum += cnt[c]
			b[c] = sum
		}
		return b
	}
	bucketStarts := func() []int {
		b := make([]int, K)
		sum := 0
		for c := 0; c < K; c++ {
			b[c] = sum
			sum += cnt[c]
		}
		return b
	}

	induceL := func(sa []int32) {
		heads := bucketStarts()
		for i := 0; i < n; i++ {
			if sa[i] <= 0 {
				continue
			}
			j := sa[i] - 1
			if !isS[j] {
				c := s[j]
				sa[heads[c]] = j
				heads[c]++
			}
		}
	}
	induceS := func(sa []int32) {
		tails := bucketEnds()
		for i := n - 1; i >= 0; i-- {
			j := sa[i] - 1
			if j < 0 {
				continue
			}
			if isS[j] {
				c := s[j]
				tails[c]--
				sa[tails[c]] = j
			}
		}
	}

	sa := make([]int32, n)
	for i := range sa {
		sa[i] = -1
	}
	tails := bucketEnds()
	for i := n - 1; i >= 1; i-- {
		if isLMS(i) {
			c := s[i]
			tails[c]--
			sa[tails[c]] = int32(i)
		}
	}
	induceL(sa)
	induceS(sa)

	// Name LMS-substrings by their now-established relative order.
	name := make([]int32, n)
	for i := range name {
		name[i] = -1
	}
	numNames := 0
	prev := int32(-1)
	for i := 0; i < n; i++ {
		pos := sa[i]
		if pos < 0 || !isLMS(int(pos)) {
			continue
		}
		if prev < 0 {
			name[pos] = 0
			numNames = 1
			prev = pos
			continue
		}
		diff := substringsDiffer(s, isLMS, prev, pos)
		if diff {
			numNames++
		}
		name[pos] = int32(numNames - 1)
		prev = pos
	}

	var lmsTextOrder []int32
	for i := 0; i < n; i++ {
		if isLMS(i) {
			lmsTextOrder = append(lmsTextOrder, int32(i))
		}
	}
	n1 := len(lmsTextOrder)

	var sa1 []int32
	if numNames == n1 {
		sa1 = make([]int32, n1)
		for i, pos := range lmsTextOrder {
			sa1[name[pos]] = int32(i)
		}
	} else {
		reduced := make([]uint32, n1)
		for i, pos := range lmsTextOrder {
			reduced[i] = uint32(name[pos])
		}
		if recurse == nil {
			return nil, fatal(Precondition, "LMS-substring names are not unique (%d names for %d substrings) and no recursion strategy was supplied", numNames, n1)
		}
		var err error
		sa1, err = recurse(reduced)
		if err != nil {
			return nil, err
		}
	}

	sortedLMS := make([]int32, n1)
	for i, idx := range sa1 {
		sortedLMS[i] = lmsTextOrder[idx]
	}

	return induceFromSortedLMS(s, K, sortedLMS), nil
}

// induceFromSortedLMS runs the final induction pass over s (already
// containing its trailing sentinel) given sortedLMS, the already-resolved
// sort order of every LMS position including the sentinel itself: seed each
// LMS position into its bucket tail, then induce L-type then S-type
// positions from that seed. saisExtended calls this once it has resolved
// sortedLMS itself (by naming and, if needed, recursing); the external-
// memory driver calls the same function with a sortedLMS it resolved
// instead through the block classifier and the LMS-substring radix heap, so
// the two paths share one proven final-induction implementation rather than
// each carrying its own copy of the bucket arithmetic.
func induceFromSortedLMS(s []int32, K int, sortedLMS []int32) []int32 {
	n := len(s)

	isS := make([]bool, n)
	isS[n-1] = true
	for i := n - 2; i >= 0; i-- {
		switch {
		case s[i] < s[i+1]:
			isS[i] = true
		case s[i] > s[i+1]:
			isS[i] = false
		default:
			isS[i] = isS[i+1]
		}
	}

	cnt := make([]int, K)
	for _, v := range s {
		cnt[v]++
	}
	bucketEnds := func() []int {
		b := make([]int, K)
		sum := 0
		for c := 0; c < K; c++ {
			sum += cnt[c]
			b[c] = sum
		}
		return b
	}
	bucketStarts := func() []int {
		b := make([]int, K)
		sum := 0
		for c := 0; c < K; c++ {
			b[c] = sum
			sum += cnt[c]
		}
		return b
	}

	induceL := func(sa []int32) {
		heads := bucketStarts()
		for i := 0; i < n; i++ {
			if sa[i] <= 0 {
				continue
			}
			j := sa[i] - 1
			if !isS[j] {
				c := s[j]
				sa[heads[c]] = j
				heads[c]++
			}
		}
	}
	induceS := func(sa []int32) {
		tails := bucketEnds()
		for i := n - 1; i >= 0; i-- {
			j := sa[i] - 1
			if j < 0 {
				continue
			}
			if isS[j] {
				c := s[j]
				tails[c]--
				sa[tails[c]] = j
			}
		}
	}

	sa := make([]int32, n)
	for i := range sa {
		sa[i] = -1
	}
	tails := bucketEnds()
	for k := len(sortedLMS) - 1; k >= 0; k-- {
		pos := sortedLMS[k]
		c := s[pos]
		tails[c]--
		sa[tails[c]] = pos
	}
	induceL(sa)
	induceS(sa)
	return sa
}

// substringsDiffer reports whether the LMS-substrings starting at a and b
// differ, comparing symbol by symbol until both substrings simultaneously
// reach their closing LMS boundary.
func substringsDiffer(s []int32, isLMS func(int) bool, a, b int32) bool {
	d := int32(0)
	for {
		if s[a+d] != s[b+d] {
			return true
		}
		if d > 0 {
			aEnd := isLMS(int(a + d))
			bEnd := isLMS(int(b + d))
			if aEnd || bEnd {
				return !(aEnd && bEnd)
			}
		}
		d++
	}
}

// SaisCoreRecurser resolves a reduced name string by recursing into
// saisCore itself, using BruteForceRecurser as its own base case. Run uses
// it by default whenever LMS-substring names collide, on both the in-memory
// and the external path (external.go); Run also calls saisCore itself as the
// top-level sort when no temporary directory is configured or the text has
// fewer than two symbols.
type SaisCoreRecurser struct{}

// Sort implements Recurser.
func (SaisCoreRecurser) Sort(reduced []uint32) ([]int32, error) {
	symbols := make([]int32, len(reduced))
	maxSeen := int32(-1)
	for i, v := range reduced {
		symbols[i] = int32(v)
		if symbols[i] > maxSeen {
			maxSeen = symbols[i]
		}
	}
	sigma := int(maxSeen) + 1
	if sigma <= 0 {
		sigma = 1
	}
	return saisCore(symbols, sigma, func(r []uint32) ([]int32, error) {
		return BruteForceRecurser{}.Sort(r)
	})
}

// BruteForceRecurser sorts a reduced name string by direct suffix
// comparison. It is a correctness-first Recurser suitable for the small
// reduced strings produced by a single level of reduction; it does not
// recurse into saisCore itself, so it carries none of the recursion
// driver's depth or base-case policy.
type BruteForceRecurser struct{}

// Sort implements Recurser.
func (BruteForceRecurser) Sort(reduced []uint32) ([]int32, error) {
	n := len(reduced)
	idx := make([]int32, n)
	for i := range idx {
		idx[i] = int32(i)
	}
	sort.Slice(idx, func(a, b int) bool {
		i, j := int(idx[a]), int(idx[b])
		for i < n && j < n {
			if reduced[i] != reduced[j] {
				return reduced[i] < reduced[j]
			}
			i++
			j++
		}
		return i >= n
	})
	return idx, nil
}
