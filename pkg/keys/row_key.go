// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package keys

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
)

// ErrHandleOverflow is returned by RowKey.Next when the handle is already
// MaxHandle.
var ErrHandleOverflow = errors.New("handle overflow")

// RowKey identifies one row of one table. It is an immutable value; the
// zero value is not a valid key.
type RowKey struct {
	tableID int64
	handle  int64
	key     roachpb.Key
}

// MakeRecordPrefix returns the prefix shared by every row key of tableID.
func MakeRecordPrefix(tableID int64) roachpb.Key {
	return appendRecordPrefix(make(roachpb.Key, 0, recordPrefixLen+handleLen), tableID)
}

func appendRecordPrefix(b []byte, tableID int64) []byte {
	b = append(b, TablePrefixByte)
	b = encoding.EncodeInt64Comparable(b, tableID)
	return append(b, RecordPrefixSep...)
}

// MakeRowKey returns the key of the row with the given handle.
func MakeRowKey(tableID, handle int64) RowKey {
	key := MakeRecordPrefix(tableID)
	key = encoding.EncodeInt64Comparable(key, handle)
	return RowKey{tableID: tableID, handle: handle, key: key}
}

// MakeRowKeyMin returns the smallest row key of the table.
func MakeRowKeyMin(tableID int64) RowKey {
	return MakeRowKey(tableID, MinHandle)
}

// MakeRowKeyMax returns the largest row key of the table.
func MakeRowKeyMax(tableID int64) RowKey {
	return MakeRowKey(tableID, MaxHandle)
}

// MakeRowKeyFromDatum returns the key of the row whose handle is d. Only
// integer datums can be handles.
func MakeRowKeyFromDatum(tableID int64, d tree.Datum) (RowKey, error) {
	h, ok := d.(*tree.DInt)
	if !ok {
		return RowKey{}, errors.Newf("cannot encode row key with non-integer handle %T", d)
	}
	return MakeRowKey(tableID, int64(*h)), nil
}

// Next returns the key of the row following k in the same table.
func (k RowKey) Next() (RowKey, error) {
	if k.handle == MaxHandle {
		return RowKey{}, errors.Wrapf(ErrHandleOverflow, "table %d", errors.Safe(k.tableID))
	}
	return MakeRowKey(k.tableID, k.handle+1), nil
}

// TableID returns the table the row belongs to.
func (k RowKey) TableID() int64 { return k.tableID }

// Handle returns the row handle.
func (k RowKey) Handle() int64 { return k.handle }

// Key returns the encoded key. The caller must not modify it.
func (k RowKey) Key() roachpb.Key { return k.key }

// Compare orders row keys by their encoding, which matches the numeric order
// of (tableID, handle).
func (k RowKey) Compare(o RowKey) int {
	return bytes.Compare(k.key, o.key)
}

// SafeFormat implements the redact.SafeFormatter interface. The handle is
// row data and is redactable.
func (k RowKey) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("/Table/%d/%d", redact.Safe(k.tableID), k.handle)
}

func (k RowKey) String() string {
	return redact.StringWithoutMarkers(k)
}

// DecodeStatus classifies a raw key relative to the key space of one table.
type DecodeStatus int

const (
	_ DecodeStatus = iota
	// DecodeMin means the key sorts before every row key of the table.
	DecodeMin
	// DecodeMax means the key sorts after every row key of the table.
	DecodeMax
	// DecodeEqual means the key is a complete row key of the table.
	DecodeEqual
	// DecodeLess means the key is a truncated row key of the table; the
	// handle is decoded from the bytes present, zero-padded.
	DecodeLess
	// DecodeGreater means the key is a row key of the table followed by
	// extra bytes, so it sorts just after the row with the decoded handle.
	DecodeGreater
	// DecodeUnknownInf means the key is empty, which scan boundaries use for
	// an unbounded end.
	DecodeUnknownInf
)

// SafeValue implements the redact.SafeValue interface.
func (DecodeStatus) SafeValue() {}

func (s DecodeStatus) String() string {
	switch s {
	case DecodeMin:
		return "MIN"
	case DecodeMax:
		return "MAX"
	case DecodeEqual:
		return "EQUAL"
	case DecodeLess:
		return "LESS"
	case DecodeGreater:
		return "GREATER"
	case DecodeUnknownInf:
		return "UNKNOWN_INF"
	default:
		return "UNKNOWN"
	}
}

// DecodeResult is the outcome of TryDecodeRowKey. Handle is only meaningful
// for DecodeEqual, DecodeLess and DecodeGreater.
type DecodeResult struct {
	Handle int64
	Status DecodeStatus
}

// TryDecodeRowKey classifies rawKey, typically a scan boundary, against the
// key space of tableID without requiring it to be a well-formed row key.
// Passing a nil key is a programming error.
func TryDecodeRowKey(tableID int64, rawKey []byte) (DecodeResult, error) {
	if rawKey == nil {
		return DecodeResult{}, errors.AssertionFailedf("row key cannot be nil")
	}
	if len(rawKey) == 0 {
		return DecodeResult{Status: DecodeUnknownInf}, nil
	}

	var buf [32]byte
	prefix := appendRecordPrefix(buf[:0], tableID)
	n := len(prefix)
	if len(rawKey) < n {
		n = len(rawKey)
	}
	switch c := bytes.Compare(prefix, rawKey[:n]); {
	case c > 0:
		return DecodeResult{Status: DecodeMin}, nil
	case c < 0:
		return DecodeResult{Status: DecodeMax}, nil
	}

	rest := rawKey[n:]
	res := DecodeResult{}
	switch {
	case len(rest) == handleLen:
		res.Status = DecodeEqual
	case len(rest) < handleLen:
		res.Status = DecodeLess
	default:
		res.Status = DecodeGreater
	}
	_, res.Handle = encoding.DecodePartialInt64Comparable(rest)
	return res, nil
}

// TableRecordSpan returns the span covering every row of the table.
func TableRecordSpan(tableID int64) roachpb.Span {
	return roachpb.Span{
		Key:    MakeRowKeyMin(tableID).Key(),
		EndKey: MakeRecordPrefix(tableID).PrefixEnd(),
	}
}

// HandleRangeSpan returns the span covering the rows with handles in
// [lo, hi], both inclusive.
func HandleRangeSpan(tableID, lo, hi int64) roachpb.Span {
	return roachpb.Span{
		Key:    MakeRowKey(tableID, lo).Key(),
		EndKey: MakeRowKey(tableID, hi).Key().Next(),
	}
}
