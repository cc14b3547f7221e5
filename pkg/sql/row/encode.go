// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package row

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/rowenc"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
)

// EncodeRow appends the value encoding of r, in the layout Reader expects.
func EncodeRow(b []byte, schema []*types.T, r Row) ([]byte, error) {
	if len(r) != len(schema) {
		return nil, errors.AssertionFailedf("row has %d columns, schema has %d", len(r), len(schema))
	}
	for i, t := range schema {
		var err error
		if b, err = rowenc.EncodeDatum(b, t, encoding.ValueMode, r[i]); err != nil {
			return nil, errors.Wrapf(err, "encoding column %d", i)
		}
	}
	return b, nil
}
