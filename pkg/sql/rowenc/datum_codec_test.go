// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rowenc

import (
	"bytes"
	"math"
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

func TestEncodeDatum(t *testing.T) {
	testCases := []struct {
		typ      *types.T
		mode     encoding.Mode
		datum    tree.Datum
		expected []byte
	}{
		{types.Varchar, encoding.KeyMode, tree.NewDString("abc"),
			[]byte{0x01, 'a', 'b', 'c', 0, 0, 0, 0, 0, 0xfa}},
		{types.Varchar, encoding.ValueMode, tree.NewDString("abc"),
			[]byte{0x02, 0x06, 'a', 'b', 'c'}},
		{types.Binary, encoding.ValueMode, tree.NewDString(""),
			[]byte{0x02, 0x00}},
		{types.Int, encoding.KeyMode, tree.NewDInt(1),
			[]byte{0x03, 0x80, 0, 0, 0, 0, 0, 0, 0x01}},
		{types.Int, encoding.ValueMode, tree.NewDInt(-1),
			[]byte{0x08, 0x01}},
		{types.Int, encoding.KeyMode, tree.DNull, []byte{0x00}},
		{types.Char, encoding.ValueMode, tree.DNull, []byte{0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.Name()+"/"+tc.mode.String()+"/"+tc.datum.String(), func(t *testing.T) {
			enc, err := EncodeDatum([]byte{0xaa}, tc.typ, tc.mode, tc.datum)
			require.NoError(t, err)
			require.Equal(t, byte(0xaa), enc[0], "existing buffer contents must be preserved")
			require.Equal(t, tc.expected, enc[1:])

			rem, dec, err := DecodeDatum(tc.typ, append(enc[1:], 0xbb))
			require.NoError(t, err)
			require.Equal(t, []byte{0xbb}, rem)
			c, err := tc.datum.Compare(dec)
			require.NoError(t, err)
			require.Zero(t, c)
		})
	}
}

func TestEncodeDatumTypeMismatch(t *testing.T) {
	_, err := EncodeDatum(nil, types.Varchar, encoding.KeyMode, tree.NewDInt(1))
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err))

	_, err = EncodeDatum(nil, types.Int, encoding.ValueMode, tree.NewDString("1"))
	require.True(t, errors.HasAssertionFailure(err))

	_, err = EncodeDatum(nil, types.Int, encoding.Mode(0), tree.NewDInt(1))
	require.True(t, errors.HasAssertionFailure(err))

	_, err = EncodeDatum(nil, types.Varchar, encoding.ValueMode, nil)
	require.True(t, errors.HasAssertionFailure(err))
	require.ErrorContains(t, err, "cannot encode nil datum as VARCHAR")
}

func TestDecodeDatumErrors(t *testing.T) {
	testCases := []struct {
		name string
		typ  *types.T
		buf  []byte
	}{
		{"empty", types.Varchar, nil},
		{"int flag for bytes", types.Varchar, []byte{0x03, 0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"bytes flag for int", types.Int, []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0xf7}},
		{"unknown flag", types.Binary, []byte{0x63}},
		{"truncated group", types.Varchar, []byte{0x01, 'a'}},
		{"truncated compact", types.Varchar, []byte{0x02, 0x08, 'a'}},
		{"truncated int", types.Int, []byte{0x03, 0x80}},
		{"uint overflow", types.Int, []byte{0x04, 0xff, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeDatum(tc.typ, tc.buf)
			require.Error(t, err)
			require.True(t, encoding.IsCorrupt(err), "%+v", err)
		})
	}
}

func TestDecodeUnsignedInt(t *testing.T) {
	b := append([]byte{byte(encoding.UintFlag)}, encoding.EncodeUint64Ascending(nil, 77)...)
	b = append(b, byte(encoding.UvarintFlag))
	b = encoding.EncodeUvarint(b, math.MaxInt64)

	rem, d, err := DecodeDatum(types.Int, b)
	require.NoError(t, err)
	require.Equal(t, tree.NewDInt(77), d)
	rem, d, err = DecodeDatum(types.Int, rem)
	require.NoError(t, err)
	require.Empty(t, rem)
	require.Equal(t, tree.NewDInt(math.MaxInt64), d)
}

func TestRegisterCodecTwice(t *testing.T) {
	require.Panics(t, func() {
		RegisterCodec(types.BytesFamily, Codec{Encode: encodeBytesDatum, Decode: decodeBytesDatum})
	})
	require.Panics(t, func() {
		RegisterCodec(types.Family(99), Codec{})
	})
}

func TestDatumCodecProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	keyEncode := func(typ *types.T, d tree.Datum) []byte {
		b, err := EncodeDatum(nil, typ, encoding.KeyMode, d)
		if err != nil {
			panic(err)
		}
		return b
	}

	properties.Property("bytes key encoding preserves order", prop.ForAll(
		func(a, b string) bool {
			encA := keyEncode(types.Varchar, tree.NewDString(a))
			encB := keyEncode(types.Varchar, tree.NewDString(b))
			if a < b {
				return bytes.Compare(encA, encB) < 0
			}
			if a > b {
				return bytes.Compare(encA, encB) > 0
			}
			return bytes.Equal(encA, encB)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("int key encoding preserves order", prop.ForAll(
		func(a, b int64) bool {
			c := bytes.Compare(keyEncode(types.Int, tree.NewDInt(a)), keyEncode(types.Int, tree.NewDInt(b)))
			return (a < b) == (c < 0) && (a == b) == (c == 0)
		},
		gen.Int64(),
		gen.Int64(),
	))

	roundTrip := func(typ *types.T, d tree.Datum) bool {
		for _, mode := range []encoding.Mode{encoding.KeyMode, encoding.ValueMode} {
			enc, err := EncodeDatum(nil, typ, mode, d)
			if err != nil {
				return false
			}
			rem, dec, err := DecodeDatum(typ, enc)
			if err != nil || len(rem) != 0 {
				return false
			}
			if c, err := d.Compare(dec); err != nil || c != 0 {
				return false
			}
		}
		return true
	}

	properties.Property("bytes round-trip in both modes", prop.ForAll(
		func(s string) bool { return roundTrip(types.Binary, tree.NewDString(s)) },
		gen.AnyString(),
	))

	properties.Property("int round-trip in both modes", prop.ForAll(
		func(i int64) bool { return roundTrip(types.Int, tree.NewDInt(i)) },
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestParseFormatDatum(t *testing.T) {
	testCases := []struct {
		typ  *types.T
		in   string
		want tree.Datum
	}{
		{types.Varchar, "hello", tree.NewDString("hello")},
		{types.Binary, `\x00ff`, tree.NewDBytes([]byte{0x00, 0xff})},
		{types.Int, "-12", tree.NewDInt(-12)},
		{types.Int, "null", tree.DNull},
	}
	for _, tc := range testCases {
		d, err := ParseDatum(tc.typ, tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, d)
		if d != tree.DNull {
			require.Equal(t, tc.in, FormatDatum(tc.typ, d))
		}
	}

	_, err := ParseDatum(types.Int, "twelve")
	require.Error(t, err)
	_, err = ParseDatum(types.Binary, `\xzz`)
	require.Error(t, err)
}
