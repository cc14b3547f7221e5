// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package roachpb

import "slices"

// MergeSpans sorts the incoming spans by start key and coalesces spans that
// overlap or touch, so that [a, c) and [b, d) become [a, d) and [a, b) and
// [b, c) become [a, c). Invalid (empty) spans are dropped. An unbounded span
// absorbs every span starting inside it. Returns true iff no two input spans
// overlapped; touching spans still count as distinct.
//
// The input spans are not safe for re-use.
func MergeSpans(spans []Span) ([]Span, bool) {
	r := spans[:0]
	for _, s := range spans {
		if s.Valid() {
			r = append(r, s)
		}
	}
	if len(r) == 0 {
		return r, true
	}

	// Unbounded end keys sort after every bounded one.
	slices.SortFunc(r, func(s1, s2 Span) int {
		if c := s1.Key.Compare(s2.Key); c != 0 {
			return c
		}
		return CompareEndKeys(s1.EndKey, s2.EndKey)
	})

	// Merge in place; "out" never overtakes the iteration over r.
	out := r[:1]
	distinct := true
	for _, cur := range r[1:] {
		prev := &out[len(out)-1]
		if !prev.Unbounded() && cur.Key.Compare(prev.EndKey) > 0 {
			out = append(out, cur)
			continue
		}
		if prev.Unbounded() || cur.Key.Compare(prev.EndKey) < 0 {
			distinct = false
		}
		if CompareEndKeys(cur.EndKey, prev.EndKey) > 0 {
			prev.EndKey = cur.EndKey
		}
	}
	return out, distinct
}

// CompareEndKeys compares two span end keys, treating an empty key as
// +infinity.
func CompareEndKeys(a, b Key) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	default:
		return a.Compare(b)
	}
}
