// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package roachpb

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/redact"
)

// Key is a raw key in the global key space.
type Key []byte

// KeyMin is the minimum key in the key space.
var KeyMin = Key{}

// Compare compares the two keys bytewise.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k, other)
}

// Equal returns whether the two keys are equal. A nil key equals an empty one.
func (k Key) Equal(other Key) bool {
	return bytes.Equal(k, other)
}

// Next returns the next key in lexicographic sort order. The method may only
// take a shallow copy of the Key, so both the receiver and the return
// value should be treated as immutable after.
func (k Key) Next() Key {
	return append(k[:len(k):len(k)], 0)
}

// PrefixEnd determines the end key given key as a prefix, that is the key
// that sorts precisely behind all keys starting with prefix: "1" is added to
// the final byte and the carry propagated. The special cases of nil and
// KeyMin always returns KeyMax (represented here by the empty key).
func (k Key) PrefixEnd() Key {
	if len(k) == 0 {
		return Key{}
	}
	end := append(Key(nil), k...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	// The key is all 0xff; there is no finite prefix end.
	return Key{}
}

// String returns a printable, quoted form of the key.
func (k Key) String() string {
	return strconv.Quote(string(k))
}

// Format implements fmt.Formatter. %x prints the key in hex.
func (k Key) Format(f fmt.State, verb rune) {
	if verb == 'x' {
		fmt.Fprintf(f, "%x", []byte(k))
		return
	}
	fmt.Fprint(f, k.String())
}

// Span is a half-open key range [Key, EndKey). An empty EndKey means the
// span extends to the end of the key space.
type Span struct {
	Key    Key
	EndKey Key
}

// Valid returns whether the span has a non-empty extent.
func (s Span) Valid() bool {
	return len(s.EndKey) == 0 || s.Key.Compare(s.EndKey) < 0
}

// Unbounded returns whether the span extends to the end of the key space.
func (s Span) Unbounded() bool {
	return len(s.EndKey) == 0
}

// ContainsKey returns whether the span contains the given key.
func (s Span) ContainsKey(key Key) bool {
	return s.Key.Compare(key) <= 0 && (s.Unbounded() || key.Compare(s.EndKey) < 0)
}

// Intersect returns the intersection of the two spans, and false if it is
// empty.
func (s Span) Intersect(o Span) (Span, bool) {
	res := s
	if o.Key.Compare(res.Key) > 0 {
		res.Key = o.Key
	}
	if !o.Unbounded() && (res.Unbounded() || o.EndKey.Compare(res.EndKey) < 0) {
		res.EndKey = o.EndKey
	}
	if !res.Unbounded() && res.Key.Compare(res.EndKey) >= 0 {
		return Span{}, false
	}
	return res, true
}

// Equal compares two spans.
func (s Span) Equal(o Span) bool {
	return s.Key.Equal(o.Key) && s.EndKey.Equal(o.EndKey)
}

func (s Span) String() string {
	return redact.StringWithoutMarkers(s)
}

// SafeFormat implements the redact.SafeFormatter interface. Keys may carry
// row data and are printed as unsafe values.
func (s Span) SafeFormat(w redact.SafePrinter, _ rune) {
	if s.Unbounded() {
		w.Printf("[%s, /Max)", s.Key)
		return
	}
	w.Printf("[%s, %s)", s.Key, s.EndKey)
}

// Spans is a slice of spans.
type Spans []Span

// Len implements sort.Interface.
func (a Spans) Len() int { return len(a) }

// Swap implements sort.Interface.
func (a Spans) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

// Less implements sort.Interface.
func (a Spans) Less(i, j int) bool { return a[i].Key.Compare(a[j].Key) < 0 }

// RegionID is a custom type for a region identifier.
type RegionID uint64

// SafeValue implements the redact.SafeValue interface.
func (RegionID) SafeValue() {}

func (r RegionID) String() string { return strconv.FormatUint(uint64(r), 10) }

// StoreID is a custom type for a storage node identifier.
type StoreID uint64

// SafeValue implements the redact.SafeValue interface.
func (StoreID) SafeValue() {}

func (s StoreID) String() string { return strconv.FormatUint(uint64(s), 10) }

// RegionEpoch versions a region's membership (ConfVer) and boundaries
// (Version). Stores reject requests carrying a stale epoch.
type RegionEpoch struct {
	ConfVer uint64
	Version uint64
}

// RegionDescriptor describes one region: the span of keys it owns and the
// store currently serving it.
type RegionDescriptor struct {
	RegionID RegionID
	StartKey Key
	// EndKey is exclusive; empty means the region extends to the end of
	// the key space.
	EndKey  Key
	Epoch   RegionEpoch
	StoreID StoreID
}

// Span returns the key span owned by the region.
func (r *RegionDescriptor) Span() Span {
	return Span{Key: r.StartKey, EndKey: r.EndKey}
}

// ContainsKey returns whether the region owns key.
func (r *RegionDescriptor) ContainsKey(key Key) bool {
	return r.Span().ContainsKey(key)
}

// SafeFormat implements the redact.SafeFormatter interface.
func (r *RegionDescriptor) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("r%d:%s (store %d, v%d)", r.RegionID, r.Span(), r.StoreID, redact.Safe(r.Epoch.Version))
}

func (r *RegionDescriptor) String() string {
	return redact.StringWithoutMarkers(r)
}

// StoreDescriptor holds the address of a storage node.
type StoreDescriptor struct {
	StoreID StoreID
	Address string
}
