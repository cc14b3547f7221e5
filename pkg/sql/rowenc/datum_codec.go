// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package rowenc encodes and decodes column values. Every encoded datum is a
// one-byte encoding.Flag followed by a payload; the flag alone identifies the
// payload format so that a reader can decode a value without knowing which
// mode it was written in.
package rowenc

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
)

// Codec is the pair of functions implementing the wire format for one type
// family. Neither function handles NULL; EncodeDatum and DecodeDatum take
// care of the NilFlag before dispatching.
type Codec struct {
	// Encode appends the flag and payload for d, which is guaranteed to be
	// non-NULL, to b.
	Encode func(b []byte, t *types.T, mode encoding.Mode, d tree.Datum) ([]byte, error)
	// Decode decodes the payload following flag, which has already been
	// consumed from b.
	Decode func(b []byte, t *types.T, flag encoding.Flag) ([]byte, tree.Datum, error)
}

var codecs = map[types.Family]Codec{}

// RegisterCodec installs the codec for a family. It is meant to be called
// from init functions and panics on duplicate registration.
func RegisterCodec(family types.Family, c Codec) {
	if _, ok := codecs[family]; ok {
		panic(errors.AssertionFailedf("codec for %s registered twice", family))
	}
	if c.Encode == nil || c.Decode == nil {
		panic(errors.AssertionFailedf("codec for %s is incomplete", family))
	}
	codecs[family] = c
}

func lookupCodec(t *types.T) (Codec, error) {
	c, ok := codecs[t.Family()]
	if !ok {
		return Codec{}, errors.AssertionFailedf("no codec registered for %s", t.Family())
	}
	return c, nil
}

// EncodeDatum appends the encoding of d, interpreted as type t, to b. In
// encoding.KeyMode the output is memcomparable; in encoding.ValueMode it is
// compact. Passing a datum whose family does not match t is an assertion
// failure.
func EncodeDatum(b []byte, t *types.T, mode encoding.Mode, d tree.Datum) ([]byte, error) {
	if mode != encoding.KeyMode && mode != encoding.ValueMode {
		return nil, errors.AssertionFailedf("invalid encoding mode %s", mode)
	}
	if d == nil {
		return nil, errors.AssertionFailedf("cannot encode nil datum as %s", errors.Safe(t.Name()))
	}
	if d == tree.DNull {
		return append(b, byte(encoding.NilFlag)), nil
	}
	if d.Family() != t.Family() {
		return nil, errors.AssertionFailedf("cannot encode %T as %s", d, errors.Safe(t.Name()))
	}
	c, err := lookupCodec(t)
	if err != nil {
		return nil, err
	}
	return c.Encode(b, t, mode, d)
}

// DecodeDatum decodes one value of type t from the front of b and returns
// the remaining bytes. Exactly the flag byte and its payload are consumed.
func DecodeDatum(t *types.T, b []byte) ([]byte, tree.Datum, error) {
	flag, err := encoding.PeekFlag(b)
	if err != nil {
		return nil, nil, err
	}
	b = b[1:]
	if flag == encoding.NilFlag {
		return b, tree.DNull, nil
	}
	c, err := lookupCodec(t)
	if err != nil {
		return nil, nil, err
	}
	return c.Decode(b, t, flag)
}

func invalidFlagError(t *types.T, flag encoding.Flag) error {
	return errors.Mark(
		errors.Newf("invalid flag %s for %s", errors.Safe(flag), errors.Safe(t.Name())),
		encoding.ErrCorrupt)
}

func encodeBytesDatum(b []byte, _ *types.T, mode encoding.Mode, d tree.Datum) ([]byte, error) {
	s := []byte(*d.(*tree.DString))
	if mode == encoding.KeyMode {
		b = append(b, byte(encoding.BytesFlag))
		return encoding.EncodeBytesAscending(b, s), nil
	}
	b = append(b, byte(encoding.CompactBytesFlag))
	return encoding.EncodeCompactBytes(b, s), nil
}

func decodeBytesDatum(b []byte, t *types.T, flag encoding.Flag) ([]byte, tree.Datum, error) {
	var data []byte
	var err error
	switch flag {
	case encoding.BytesFlag:
		b, data, err = encoding.DecodeBytesAscending(b, nil)
	case encoding.CompactBytesFlag:
		b, data, err = encoding.DecodeCompactBytes(b)
	default:
		return nil, nil, invalidFlagError(t, flag)
	}
	if err != nil {
		return nil, nil, err
	}
	return b, tree.NewDBytes(data), nil
}

func encodeIntDatum(b []byte, _ *types.T, mode encoding.Mode, d tree.Datum) ([]byte, error) {
	v := int64(*d.(*tree.DInt))
	if mode == encoding.KeyMode {
		b = append(b, byte(encoding.IntFlag))
		return encoding.EncodeInt64Comparable(b, v), nil
	}
	b = append(b, byte(encoding.VarintFlag))
	return encoding.EncodeVarint(b, v), nil
}

func decodeIntDatum(b []byte, t *types.T, flag encoding.Flag) ([]byte, tree.Datum, error) {
	var v int64
	var u uint64
	var err error
	switch flag {
	case encoding.IntFlag:
		b, v, err = encoding.DecodeInt64Comparable(b)
	case encoding.VarintFlag:
		b, v, err = encoding.DecodeVarint(b)
	case encoding.UintFlag, encoding.UvarintFlag:
		if flag == encoding.UintFlag {
			b, u, err = encoding.DecodeUint64Ascending(b)
		} else {
			b, u, err = encoding.DecodeUvarint(b)
		}
		if err == nil && u > math.MaxInt64 {
			err = errors.Mark(
				errors.Newf("unsigned value %d overflows %s", u, errors.Safe(t.Name())),
				encoding.ErrCorrupt)
		}
		v = int64(u)
	default:
		return nil, nil, invalidFlagError(t, flag)
	}
	if err != nil {
		return nil, nil, err
	}
	return b, tree.NewDInt(v), nil
}

func init() {
	RegisterCodec(types.BytesFamily, Codec{Encode: encodeBytesDatum, Decode: decodeBytesDatum})
	RegisterCodec(types.IntFamily, Codec{Encode: encodeIntDatum, Decode: decodeIntDatum})
}
