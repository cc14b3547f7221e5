// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package keys

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
)

// PrettyPrint returns a human-readable rendering of key. Row keys print as
// /Table/<id>/<handle>; truncated or extended row keys get a suffix showing
// the undecoded bytes; anything else is quoted.
func PrettyPrint(key roachpb.Key) string {
	if len(key) == 0 {
		return "/Min"
	}
	if key[0] != TablePrefixByte {
		return strconv.Quote(string(key))
	}
	rest, tableID, err := encoding.DecodeInt64Comparable(key[1:])
	if err != nil {
		return strconv.Quote(string(key))
	}
	if !bytes.HasPrefix(rest, RecordPrefixSep) {
		return fmt.Sprintf("/Table/%d/%q", tableID, rest)
	}
	rest = rest[len(RecordPrefixSep):]
	if len(rest) < handleLen {
		if len(rest) == 0 {
			return fmt.Sprintf("/Table/%d", tableID)
		}
		return fmt.Sprintf("/Table/%d/<partial %x>", tableID, rest)
	}
	rest, handle := encoding.DecodePartialInt64Comparable(rest)
	if len(rest) > 0 {
		return fmt.Sprintf("/Table/%d/%d/%q", tableID, handle, rest)
	}
	return fmt.Sprintf("/Table/%d/%d", tableID, handle)
}
