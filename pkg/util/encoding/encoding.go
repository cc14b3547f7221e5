// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Flag is the one-byte discriminator written in front of every encoded
// datum. Key-mode and value-mode encodings of the same type use different
// flags so that a decoder can recover the encoding that was used.
type Flag byte

// Flag values. The numbering is part of the wire format shared with the
// storage nodes and must not change.
const (
	NilFlag          Flag = 0
	BytesFlag        Flag = 1
	CompactBytesFlag Flag = 2
	IntFlag          Flag = 3
	UintFlag         Flag = 4
	VarintFlag       Flag = 8
	UvarintFlag      Flag = 9
)

func (f Flag) String() string {
	switch f {
	case NilFlag:
		return "nil"
	case BytesFlag:
		return "bytes"
	case CompactBytesFlag:
		return "compact-bytes"
	case IntFlag:
		return "int"
	case UintFlag:
		return "uint"
	case VarintFlag:
		return "varint"
	case UvarintFlag:
		return "uvarint"
	default:
		return fmt.Sprintf("flag(%d)", byte(f))
	}
}

// Mode selects between the two encodings of a datum.
type Mode int

const (
	_ Mode = iota
	// KeyMode encodings are memcomparable: bytes.Compare on two encoded
	// values orders them like the values themselves.
	KeyMode
	// ValueMode encodings are compact and carry no ordering guarantee.
	ValueMode
)

func (m Mode) String() string {
	switch m {
	case KeyMode:
		return "key"
	case ValueMode:
		return "value"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrCorrupt marks every error produced while decoding malformed input:
// unknown flags, truncated buffers and broken group markers. Such errors
// indicate data corruption or a schema mismatch and are never retried.
var ErrCorrupt = errors.New("corrupt encoding")

func corruptf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrCorrupt)
}

// IsCorrupt returns true if err was produced by a decoder in this package.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

const signMask = 0x8000000000000000

// EncodeUint64Ascending encodes the uint64 value using a big-endian 8 byte
// representation. The bytes are appended to the supplied buffer and
// the final buffer is returned.
func EncodeUint64Ascending(b []byte, v uint64) []byte {
	return append(b,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// DecodeUint64Ascending decodes a uint64 from the input buffer, treating
// the input as a big-endian 8 byte uint64 representation. The remainder
// of the input buffer and the decoded uint64 are returned.
func DecodeUint64Ascending(b []byte) ([]byte, uint64, error) {
	if len(b) < 8 {
		return nil, 0, corruptf("insufficient bytes to decode uint64 int value: %d", len(b))
	}
	v := binary.BigEndian.Uint64(b)
	return b[8:], v, nil
}

// EncodeInt64Comparable encodes the int64 value as 8 big-endian bytes with
// the sign bit flipped, so that negative values sort before positive ones.
func EncodeInt64Comparable(b []byte, v int64) []byte {
	return EncodeUint64Ascending(b, uint64(v)^signMask)
}

// DecodeInt64Comparable decodes a value written by EncodeInt64Comparable.
func DecodeInt64Comparable(b []byte) ([]byte, int64, error) {
	rem, u, err := DecodeUint64Ascending(b)
	if err != nil {
		return nil, 0, err
	}
	return rem, int64(u ^ signMask), nil
}

// DecodePartialInt64Comparable decodes up to 8 bytes of a comparable int64.
// Missing trailing bytes are treated as zeroes, which yields the smallest
// value sharing the given prefix. It is used to interpret truncated scan
// boundaries and never fails.
func DecodePartialInt64Comparable(b []byte) ([]byte, int64) {
	var buf [8]byte
	n := copy(buf[:], b)
	return b[n:], int64(binary.BigEndian.Uint64(buf[:]) ^ signMask)
}

// EncodeVarint appends the zigzag varint encoding of v.
func EncodeVarint(b []byte, v int64) []byte {
	return binary.AppendVarint(b, v)
}

// DecodeVarint decodes a value written by EncodeVarint.
func DecodeVarint(b []byte) ([]byte, int64, error) {
	v, n := binary.Varint(b)
	if n == 0 {
		return nil, 0, corruptf("insufficient bytes to decode varint value")
	}
	if n < 0 {
		return nil, 0, corruptf("varint value overflows int64")
	}
	return b[n:], v, nil
}

// EncodeUvarint appends the varint encoding of v.
func EncodeUvarint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// DecodeUvarint decodes a value written by EncodeUvarint.
func DecodeUvarint(b []byte) ([]byte, uint64, error) {
	v, n := binary.Uvarint(b)
	if n == 0 {
		return nil, 0, corruptf("insufficient bytes to decode uvarint value")
	}
	if n < 0 {
		return nil, 0, corruptf("uvarint value overflows uint64")
	}
	return b[n:], v, nil
}

const (
	encGroupSize = 8
	encMarker    = byte(0xff)
	encPad       = byte(0x00)
)

var pads = make([]byte, encGroupSize)

// EncodeBytesAscending encodes the []byte value using a memcomparable group
// encoding: the data is split into groups of 8 bytes, the last group padded
// with zeroes, and every group is followed by a marker byte equal to 0xff
// minus the number of pad bytes in that group. For example:
//
//	[]                        -> [0 0 0 0 0 0 0 0 247]
//	[1 2 3]                   -> [1 2 3 0 0 0 0 0 250]
//	[1 2 3 4 5 6 7 8]         -> [1 2 3 4 5 6 7 8 255 0 0 0 0 0 0 0 0 247]
//
// The encoded bytes are appended to the supplied buffer and the resulting
// buffer is returned. No flag byte is written.
func EncodeBytesAscending(b []byte, data []byte) []byte {
	dLen := len(data)
	reallocSize := (dLen/encGroupSize + 1) * (encGroupSize + 1)
	if cap(b)-len(b) < reallocSize {
		nb := make([]byte, len(b), len(b)+reallocSize)
		copy(nb, b)
		b = nb
	}
	for idx := 0; idx <= dLen; idx += encGroupSize {
		remain := dLen - idx
		padCount := 0
		if remain >= encGroupSize {
			b = append(b, data[idx:idx+encGroupSize]...)
		} else {
			padCount = encGroupSize - remain
			b = append(b, data[idx:]...)
			b = append(b, pads[:padCount]...)
		}
		b = append(b, encMarker-byte(padCount))
	}
	return b
}

// EncodeBytesDescending encodes the []byte value using the group encoding
// and then inverts (ones complement) the result so that it sorts in reverse
// order, from larger to smaller lexicographically.
func EncodeBytesDescending(b []byte, data []byte) []byte {
	n := len(b)
	b = EncodeBytesAscending(b, data)
	onesComplement(b[n:])
	return b
}

// DecodeBytesAscending decodes a []byte value from the input buffer which
// was encoded using EncodeBytesAscending. The decoded bytes are appended to
// r. The remainder of the input buffer and the decoded []byte are returned.
func DecodeBytesAscending(b []byte, r []byte) ([]byte, []byte, error) {
	return decodeBytesInternal(b, r, false)
}

// DecodeBytesDescending decodes a []byte value from the input buffer which
// was encoded using EncodeBytesDescending.
func DecodeBytesDescending(b []byte, r []byte) ([]byte, []byte, error) {
	return decodeBytesInternal(b, r, true)
}

func decodeBytesInternal(b []byte, r []byte, desc bool) ([]byte, []byte, error) {
	for {
		if len(b) < encGroupSize+1 {
			return nil, nil, corruptf("insufficient bytes to decode value group: %d", len(b))
		}
		groupBytes := b[:encGroupSize+1]
		group := groupBytes[:encGroupSize]
		marker := groupBytes[encGroupSize]
		if desc {
			marker = ^marker
		}

		padCount := encMarker - marker
		if padCount > encGroupSize {
			return nil, nil, corruptf("invalid group marker %#x", marker)
		}
		realGroupSize := encGroupSize - int(padCount)
		start := len(r)
		r = append(r, group[:realGroupSize]...)
		if desc {
			onesComplement(r[start:])
		}
		b = b[encGroupSize+1:]

		if padCount != 0 {
			padByte := encPad
			if desc {
				padByte = ^encPad
			}
			// Pad bytes must all be zero (or 0xff when descending).
			for _, v := range group[realGroupSize:] {
				if v != padByte {
					return nil, nil, corruptf("invalid padding byte %#x in group %#x", v, group)
				}
			}
			break
		}
	}
	if r == nil {
		r = []byte{}
	}
	return b, r, nil
}

// EncodeCompactBytes appends the zigzag varint length of data followed by
// data itself.
func EncodeCompactBytes(b []byte, data []byte) []byte {
	b = EncodeVarint(b, int64(len(data)))
	return append(b, data...)
}

// DecodeCompactBytes decodes a value written by EncodeCompactBytes. The
// returned slice aliases b.
func DecodeCompactBytes(b []byte) ([]byte, []byte, error) {
	b, n, err := DecodeVarint(b)
	if err != nil {
		return nil, nil, err
	}
	if n < 0 || int64(len(b)) < n {
		return nil, nil, corruptf("insufficient bytes to decode compact bytes of length %d: %d left", n, len(b))
	}
	return b[n:], b[:n:n], nil
}

// PeekFlag returns the flag of the value at the start of b.
func PeekFlag(b []byte) (Flag, error) {
	if len(b) == 0 {
		return 0, corruptf("insufficient bytes to decode flag")
	}
	return Flag(b[0]), nil
}

// PrettyPrintValue returns the string representation of all contiguous
// decodable values in the provided byte slice, separated by a provided
// separator. Undecodable input is rendered in angle brackets.
func PrettyPrintValue(b []byte, sep string) string {
	var buf bytes.Buffer
	for len(b) > 0 {
		bb, s, err := prettyPrintFirstValue(b)
		if err != nil {
			fmt.Fprintf(&buf, "%s<%v>", sep, err)
			break
		}
		fmt.Fprintf(&buf, "%s%s", sep, s)
		b = bb
	}
	return buf.String()
}

func prettyPrintFirstValue(b []byte) ([]byte, string, error) {
	flag := Flag(b[0])
	b = b[1:]
	switch flag {
	case NilFlag:
		return b, "NULL", nil
	case BytesFlag:
		rem, data, err := DecodeBytesAscending(b, nil)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprintf("%q", data), nil
	case CompactBytesFlag:
		rem, data, err := DecodeCompactBytes(b)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprintf("%q", data), nil
	case IntFlag:
		rem, v, err := DecodeInt64Comparable(b)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprint(v), nil
	case UintFlag:
		rem, v, err := DecodeUint64Ascending(b)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprint(v), nil
	case VarintFlag:
		rem, v, err := DecodeVarint(b)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprint(v), nil
	case UvarintFlag:
		rem, v, err := DecodeUvarint(b)
		if err != nil {
			return nil, "", err
		}
		return rem, fmt.Sprint(v), nil
	default:
		return nil, "", corruptf("unknown flag %s", flag)
	}
}

// onesComplement inverts b in place.
func onesComplement(b []byte) {
	for i := range b {
		b[i] = ^b[i]
	}
}
