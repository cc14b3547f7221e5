// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package keys

import "math"

// Row keys have the form
//
//	TablePrefixByte ++ cmpInt64(tableID) ++ RecordPrefixSep ++ cmpInt64(handle)
//
// where cmpInt64 is the 8 byte big-endian encoding with the sign bit
// flipped (see encoding.EncodeInt64Comparable).
const (
	// TablePrefixByte starts every key belonging to a table.
	TablePrefixByte = byte('t')
	// MinHandle is the smallest row handle.
	MinHandle = math.MinInt64
	// MaxHandle is the largest row handle.
	MaxHandle = math.MaxInt64

	handleLen = 8
)

// RecordPrefixSep separates the table ID from the handle in a row key.
var RecordPrefixSep = []byte("_r")

// recordPrefixLen is the length of the encoded prefix shared by all row keys
// of one table.
var recordPrefixLen = 1 + 8 + len(RecordPrefixSep)
