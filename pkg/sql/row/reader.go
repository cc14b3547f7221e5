// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package row decodes the rows carried by coprocessor chunks.
package row

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/rowenc"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
)

// Row is one decoded row: a datum per column of the schema it was read
// with. Rows are never modified once returned.
type Row []tree.Datum

func (r Row) String() string {
	return tree.Datums(r).String()
}

// Format renders the row with one string per column, using the text form
// accepted by rowenc.ParseDatum.
func (r Row) Format(schema []*types.T) []string {
	out := make([]string, len(r))
	for i, d := range r {
		out[i] = rowenc.FormatDatum(schema[i], d)
	}
	return out
}

// Reader is a cursor over the encoded rows of one chunk. Rows are stored
// back to back, each as one value-encoded datum per column with no row
// header, so the schema alone determines where a row ends.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of undecoded bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// ReadRow decodes exactly len(schema) datums. On success the cursor is
// advanced past the row; on error it is left where it was.
func (r *Reader) ReadRow(schema []*types.T) (Row, error) {
	if r.Remaining() == 0 {
		return nil, errors.Mark(
			errors.Newf("row underflow: no data left at offset %d", r.off), encoding.ErrCorrupt)
	}
	if len(schema) == 0 {
		return nil, errors.AssertionFailedf("cannot read a row without columns: %d bytes left at offset %d",
			r.Remaining(), r.off)
	}
	b := r.data[r.off:]
	row := make(Row, len(schema))
	for i, t := range schema {
		pos := len(r.data) - len(b)
		var err error
		b, row[i], err = rowenc.DecodeDatum(t, b)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding column %d (%s) at offset %d", i, t, pos)
		}
	}
	r.off = len(r.data) - len(b)
	return row, nil
}

// DebugString renders the remaining bytes of the reader with
// encoding.PrettyPrintValue.
func (r *Reader) DebugString() string {
	return encoding.PrettyPrintValue(r.data[r.off:], "/")
}
