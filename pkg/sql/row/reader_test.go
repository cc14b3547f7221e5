// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package row

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

var testSchema = []*types.T{types.Varchar, types.Int}

func TestReaderReadsRowsInOrder(t *testing.T) {
	rows := []Row{
		{tree.NewDString("a"), tree.NewDInt(1)},
		{tree.DNull, tree.NewDInt(-2)},
		{tree.NewDString(""), tree.DNull},
	}
	var data []byte
	for _, r := range rows {
		var err error
		data, err = EncodeRow(data, testSchema, r)
		require.NoError(t, err)
	}
	require.Equal(t, `/"a"/1/NULL/-2/""/NULL`, NewReader(data).DebugString())

	rd := NewReader(data)
	for i, expected := range rows {
		before := rd.Remaining()
		got, err := rd.ReadRow(testSchema)
		require.NoError(t, err, "row %d", i)
		require.Equal(t, expected.String(), got.String())
		require.Less(t, rd.Remaining(), before)
	}
	require.Equal(t, 0, rd.Remaining())

	_, err := rd.ReadRow(testSchema)
	require.True(t, errors.Is(err, encoding.ErrCorrupt), "%v", err)
	require.ErrorContains(t, err, "row underflow")
}

func TestReaderCursorExactlyOverRow(t *testing.T) {
	data, err := EncodeRow(nil, testSchema, Row{tree.NewDString("abc"), tree.NewDInt(300)})
	require.NoError(t, err)
	// compact bytes: flag + len + 3 bytes; varint: flag + 2 bytes
	require.Len(t, data, 5+3)
	trailer := []byte{byte(encoding.NilFlag)}
	rd := NewReader(append(data, trailer...))
	_, err = rd.ReadRow(testSchema)
	require.NoError(t, err)
	require.Equal(t, len(trailer), rd.Remaining())
}

func TestReaderTruncatedRow(t *testing.T) {
	data, err := EncodeRow(nil, testSchema, Row{tree.NewDString("abc"), tree.NewDInt(300)})
	require.NoError(t, err)
	rd := NewReader(data[:len(data)-1])
	_, err = rd.ReadRow(testSchema)
	require.True(t, errors.Is(err, encoding.ErrCorrupt), "%v", err)
	require.ErrorContains(t, err, "decoding column 1")
	// The cursor does not move on failure.
	require.Equal(t, len(data)-1, rd.Remaining())
}

func TestReaderEmptySchema(t *testing.T) {
	data, err := EncodeRow(nil, testSchema, Row{tree.NewDString("abc"), tree.NewDInt(300)})
	require.NoError(t, err)
	rd := NewReader(data)
	_, err = rd.ReadRow(nil)
	require.True(t, errors.HasAssertionFailure(err), "%v", err)
	require.Equal(t, len(data), rd.Remaining())
}

func TestEncodeRowMismatch(t *testing.T) {
	_, err := EncodeRow(nil, testSchema, Row{tree.NewDInt(1)})
	require.True(t, errors.HasAssertionFailure(err))
	_, err = EncodeRow(nil, testSchema, Row{tree.NewDInt(1), tree.NewDInt(1)})
	require.Error(t, err)
}

func TestRowFormat(t *testing.T) {
	r := Row{tree.NewDBytes([]byte{0xde, 0xad}), tree.NewDInt(7)}
	require.Equal(t, []string{`\xdead`, "7"}, r.Format([]*types.T{types.Binary, types.Int}))
}

func TestReaderRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("rows read back in order", prop.ForAll(
		func(strs []string, ints []int64) bool {
			n := len(strs)
			if len(ints) < n {
				n = len(ints)
			}
			var data []byte
			for i := 0; i < n; i++ {
				var err error
				data, err = EncodeRow(data, testSchema, Row{tree.NewDString(strs[i]), tree.NewDInt(ints[i])})
				if err != nil {
					return false
				}
			}
			rd := NewReader(data)
			for i := 0; i < n; i++ {
				r, err := rd.ReadRow(testSchema)
				if err != nil {
					return false
				}
				if string(*r[0].(*tree.DString)) != strs[i] || int64(*r[1].(*tree.DInt)) != ints[i] {
					return false
				}
			}
			return rd.Remaining() == 0
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.Int64()),
	))
	properties.TestingRun(t)
}
